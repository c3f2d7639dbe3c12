package events

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nina-protocol/nina-indexer-sub000/internal/chain"
	"github.com/nina-protocol/nina-indexer-sub000/internal/logic"
	"github.com/nina-protocol/nina-indexer-sub000/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedHistory fills the fake client with n signatures s1..sn, s1 oldest.
func seedHistory(client *fakeClient, n int) {
	base := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= n; i++ {
		sig := fmt.Sprintf("s%d", i)
		client.addHistory(sig, base.Add(time.Duration(i)*time.Minute),
			programEvent(client.programID, keyList(1, 3)))
	}
}

func signatures(batch []chain.SignatureInfo) []string {
	out := make([]string, len(batch))
	for i, ref := range batch {
		out[i] = ref.Signature
	}
	return out
}

func TestNextBatch_EmptyStoreReturnsOldestFirst(t *testing.T) {
	db := newTestDB(t)
	client := newFakeClient(testKey(0xEE))
	seedHistory(client, 3)

	cursor := NewSignatureCursor(client, logic.NewTransactionLogic(db), 100)

	batch, err := cursor.NextBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2", "s3"}, signatures(batch))
}

func TestNextBatch_PagesBackwardThroughHistory(t *testing.T) {
	db := newTestDB(t)
	client := newFakeClient(testKey(0xEE))
	seedHistory(client, 5)

	cursor := NewSignatureCursor(client, logic.NewTransactionLogic(db), 2)

	batch, err := cursor.NextBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2", "s3", "s4", "s5"}, signatures(batch))
	assert.GreaterOrEqual(t, client.signatureCalls, 3, "2-per-page over 5 entries needs 3 pages")
}

func TestNextBatch_StopsAtLatestPersisted(t *testing.T) {
	db := newTestDB(t)
	client := newFakeClient(testKey(0xEE))
	seedHistory(client, 5)

	transactions := logic.NewTransactionLogic(db)
	_, err := transactions.Insert(&model.Transaction{
		Signature:   "s3",
		BlockTime:   time.Date(2023, 6, 1, 0, 3, 0, 0, time.UTC),
		EventType:   string(EventReleaseInit),
		AuthorityID: 1,
	})
	require.NoError(t, err)

	cursor := NewSignatureCursor(client, transactions, 100)

	batch, err := cursor.NextBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"s4", "s5"}, signatures(batch))
}

func TestNextBatch_DropsAlreadyPersistedRows(t *testing.T) {
	db := newTestDB(t)
	client := newFakeClient(testKey(0xEE))
	seedHistory(client, 5)

	transactions := logic.NewTransactionLogic(db)
	// s3 is the derived cursor; s4 also has a row, but with an older
	// block time, so it reappears inside the fetched window.
	_, err := transactions.Insert(&model.Transaction{
		Signature:   "s3",
		BlockTime:   time.Date(2023, 6, 1, 0, 3, 0, 0, time.UTC),
		EventType:   string(EventReleaseInit),
		AuthorityID: 1,
	})
	require.NoError(t, err)
	_, err = transactions.Insert(&model.Transaction{
		Signature:   "s4",
		BlockTime:   time.Date(2023, 6, 1, 0, 1, 0, 0, time.UTC),
		EventType:   string(EventUnknown),
		AuthorityID: 1,
	})
	require.NoError(t, err)

	cursor := NewSignatureCursor(client, transactions, 100)

	batch, err := cursor.NextBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"s5"}, signatures(batch))
}

func TestNextBatch_PageErrorAbortsWholeBatch(t *testing.T) {
	db := newTestDB(t)
	client := newFakeClient(testKey(0xEE))
	seedHistory(client, 3)
	client.signatureErr = errors.New("rpc unavailable")

	cursor := NewSignatureCursor(client, logic.NewTransactionLogic(db), 100)

	batch, err := cursor.NextBatch(context.Background())
	assert.Error(t, err)
	assert.Nil(t, batch)
}

func TestNextBatch_EmptyHistory(t *testing.T) {
	db := newTestDB(t)
	client := newFakeClient(testKey(0xEE))

	cursor := NewSignatureCursor(client, logic.NewTransactionLogic(db), 100)

	batch, err := cursor.NextBatch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, batch)
}
