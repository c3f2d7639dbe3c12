package events

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/nina-protocol/nina-indexer-sub000/internal/chain"
	"github.com/nina-protocol/nina-indexer-sub000/internal/database"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps every query on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

// testKey builds a deterministic public key from a single seed byte.
func testKey(seed byte) solana.PublicKey {
	var b [32]byte
	for i := range b {
		b[i] = seed
	}
	return solana.PublicKeyFromBytes(b[:])
}

// fakeClient is an in-memory ChainClient backed by plain maps. The
// signature history is held newest first, the way the RPC returns it.
type fakeClient struct {
	mu sync.Mutex

	programID solana.PublicKey
	history   []chain.SignatureInfo
	events    map[string]*chain.RawEvent

	releases map[string]*chain.ReleaseAccount
	hubs     map[string]*chain.HubAccount
	posts    map[string]*chain.PostAccount
	contents map[string]*chain.HubContentAccount
	balances map[string]uint64

	signatureErr   error
	signatureCalls int
}

func newFakeClient(programID solana.PublicKey) *fakeClient {
	return &fakeClient{
		programID: programID,
		events:    make(map[string]*chain.RawEvent),
		releases:  make(map[string]*chain.ReleaseAccount),
		hubs:      make(map[string]*chain.HubAccount),
		posts:     make(map[string]*chain.PostAccount),
		contents:  make(map[string]*chain.HubContentAccount),
		balances:  make(map[string]uint64),
	}
}

func (f *fakeClient) ProgramID() solana.PublicKey {
	return f.programID
}

func (f *fakeClient) Signatures(_ context.Context, before, until string, limit int) ([]chain.SignatureInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signatureCalls++
	if f.signatureErr != nil {
		return nil, f.signatureErr
	}

	start := 0
	if before != "" {
		for i, ref := range f.history {
			if ref.Signature == before {
				start = i + 1
				break
			}
		}
	}

	var out []chain.SignatureInfo
	for _, ref := range f.history[start:] {
		if until != "" && ref.Signature == until {
			break
		}
		out = append(out, ref)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeClient) Transaction(_ context.Context, signature string) (*chain.RawEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	event, ok := f.events[signature]
	if !ok {
		return nil, fmt.Errorf("unknown transaction %s", signature)
	}
	return event, nil
}

func (f *fakeClient) Release(_ context.Context, address string) (*chain.ReleaseAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acct, ok := f.releases[address]
	if !ok {
		return nil, chain.ErrAccountNotFound
	}
	return acct, nil
}

func (f *fakeClient) Hub(_ context.Context, address string) (*chain.HubAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acct, ok := f.hubs[address]
	if !ok {
		return nil, chain.ErrAccountNotFound
	}
	return acct, nil
}

func (f *fakeClient) Post(_ context.Context, address string) (*chain.PostAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acct, ok := f.posts[address]
	if !ok {
		return nil, chain.ErrAccountNotFound
	}
	return acct, nil
}

func (f *fakeClient) HubContent(_ context.Context, hub, child string) (*chain.HubContentAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acct, ok := f.contents[hub+"|"+child]
	if !ok {
		return nil, chain.ErrAccountNotFound
	}
	return acct, nil
}

func (f *fakeClient) HubContentAddress(hub, child string) (string, error) {
	return "content:" + hub + ":" + child, nil
}

func (f *fakeClient) HubCollaboratorAddress(hub, account string) (string, error) {
	return "collab:" + hub + ":" + account, nil
}

func (f *fakeClient) TokenBalance(_ context.Context, owner, mint string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[owner+"|"+mint], nil
}

// addHistory appends a confirmed signature to the front of the history
// (newest first) and registers its parsed event.
func (f *fakeClient) addHistory(signature string, blockTime time.Time, event *chain.RawEvent) {
	event.Signature = signature
	event.BlockTime = blockTime
	f.history = append([]chain.SignatureInfo{{Signature: signature, BlockTime: blockTime}}, f.history...)
	f.events[signature] = event
}

// programEvent builds a raw event with one top-level instruction addressed
// to the given program.
func programEvent(program solana.PublicKey, accounts []solana.PublicKey, logs ...string) *chain.RawEvent {
	feePayer := ""
	if len(accounts) > 0 {
		feePayer = accounts[0].String()
	}
	return &chain.RawEvent{
		FeePayer: feePayer,
		Logs:     logs,
		Instructions: []chain.Instruction{
			{ProgramID: program, Accounts: accounts},
		},
	}
}

// keyList builds n distinct deterministic keys starting at seed.
func keyList(seed byte, n int) []solana.PublicKey {
	keys := make([]solana.PublicKey, n)
	for i := range keys {
		keys[i] = testKey(seed + byte(i))
	}
	return keys
}
