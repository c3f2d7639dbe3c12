package events

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/nina-protocol/nina-indexer-sub000/internal/chain"
	"github.com/nina-protocol/nina-indexer-sub000/internal/config"
	"github.com/nina-protocol/nina-indexer-sub000/internal/logger"
	"github.com/nina-protocol/nina-indexer-sub000/internal/logic"
	"github.com/nina-protocol/nina-indexer-sub000/internal/metadata"
	"github.com/nina-protocol/nina-indexer-sub000/internal/metrics"
	"github.com/nina-protocol/nina-indexer-sub000/internal/model"
	"gorm.io/gorm"
)

// Coordinator orchestrates one sync pass: pull a batch through the
// cursor, build a task per signature, dispatch to the owning processor
// and persist the transaction row.
type Coordinator struct {
	client       ChainClient
	cursor       *SignatureCursor
	classifier   *Classifier
	sponsor      solana.PublicKey
	batchSize    int
	accounts     *logic.AccountLogic
	transactions *logic.TransactionLogic
	processors   map[EventType]Processor
}

func NewCoordinator(db *gorm.DB, client ChainClient, fetcher *metadata.Fetcher, cfg *config.Config) (*Coordinator, error) {
	var sponsor solana.PublicKey
	if cfg.Chain.SponsorAddress != "" {
		var err error
		sponsor, err = solana.PublicKeyFromBase58(cfg.Chain.SponsorAddress)
		if err != nil {
			return nil, fmt.Errorf("invalid sponsor address %q: %w", cfg.Chain.SponsorAddress, err)
		}
	}

	batchSize := cfg.Sync.BatchSize
	if batchSize <= 0 {
		batchSize = 200
	}

	accounts := logic.NewAccountLogic(db)
	releases := logic.NewReleaseLogic(db)
	hubs := logic.NewHubLogic(db)
	posts := logic.NewPostLogic(db)
	transactions := logic.NewTransactionLogic(db)

	processors, err := buildDispatch(
		NewReleaseProcessor(client, fetcher, accounts, releases, hubs),
		NewHubProcessor(client, fetcher, accounts, releases, hubs),
		NewPostProcessor(client, fetcher, accounts, releases, hubs, posts),
	)
	if err != nil {
		return nil, err
	}

	return &Coordinator{
		client:       client,
		cursor:       NewSignatureCursor(client, transactions, batchSize),
		classifier:   NewClassifier(client),
		sponsor:      sponsor,
		batchSize:    batchSize,
		accounts:     accounts,
		transactions: transactions,
		processors:   processors,
	}, nil
}

// buildDispatch folds the processors' ownership declarations into one
// static dispatch table, rejecting overlapping claims.
func buildDispatch(processors ...Processor) (map[EventType]Processor, error) {
	dispatch := make(map[EventType]Processor)
	for _, proc := range processors {
		for _, typ := range proc.OwnedTypes() {
			if _, taken := dispatch[typ]; taken {
				return nil, fmt.Errorf("event type %s claimed by two processors", typ)
			}
			dispatch[typ] = proc
		}
	}
	return dispatch, nil
}

// RunOnce performs a single sync pass and returns the count of newly
// inserted transaction rows. Signatures are processed strictly in order,
// one at a time, so one bad event cannot block the rest of its page.
func (c *Coordinator) RunOnce(ctx context.Context) (int, error) {
	batch, err := c.cursor.NextBatch(ctx)
	if err != nil {
		return 0, err
	}
	if len(batch) == 0 {
		return 0, nil
	}

	logger.Info("Processing %d new signatures", len(batch))

	inserted := 0
	for start := 0; start < len(batch); start += c.batchSize {
		end := start + c.batchSize
		if end > len(batch) {
			end = len(batch)
		}
		for _, ref := range batch[start:end] {
			ok, err := c.processReference(ctx, ref)
			if err != nil {
				logger.Error("Abandoning signature %s: %v", ref.Signature, err)
				continue
			}
			if ok {
				inserted++
			}
		}
	}

	return inserted, nil
}

// ProcessSignature is the on-demand path used by the read API when a
// client reports a transaction the pipeline has not seen yet. Returns
// whether the transaction is now reflected in the store.
func (c *Coordinator) ProcessSignature(ctx context.Context, signature string) (bool, error) {
	event, err := c.client.Transaction(ctx, signature)
	if err != nil {
		return false, err
	}

	ref := chain.SignatureInfo{Signature: signature, BlockTime: event.BlockTime}
	if _, err := c.processEvent(ctx, ref, event); err != nil {
		return false, err
	}

	existing, err := c.transactions.ExistingSignatures([]string{signature})
	if err != nil {
		return false, err
	}
	return existing[signature], nil
}

func (c *Coordinator) processReference(ctx context.Context, ref chain.SignatureInfo) (bool, error) {
	event, err := c.client.Transaction(ctx, ref.Signature)
	if err != nil {
		return false, fmt.Errorf("fetch transaction detail: %w", err)
	}
	return c.processEvent(ctx, ref, event)
}

func (c *Coordinator) processEvent(ctx context.Context, ref chain.SignatureInfo, event *chain.RawEvent) (bool, error) {
	// A transaction that failed on chain had no effect; record it as
	// Unknown so the derived cursor still advances past it. The event's
	// own flag covers the on-demand path, where no signature listing is
	// available to carry the error.
	if ref.Failed || event.Failed {
		return c.insertRow(ref, event, &Task{Type: EventUnknown}, Result{})
	}

	accounts := ExtractAccounts(event, c.client.ProgramID())
	if len(accounts) == 0 {
		// Not our event: skipped, never persisted.
		logger.Debug("Signature %s does not involve the monitored program", ref.Signature)
		return false, nil
	}

	typ, heuristic := c.classifier.Classify(ctx, event, accounts)

	task := &Task{
		Event:     event,
		Type:      typ,
		Heuristic: heuristic,
		Accounts:  accounts,
	}

	if typ != EventUnknown {
		slots, err := ResolveSlots(typ, accounts, c.sponsor)
		if err != nil {
			return false, fmt.Errorf("resolve roles for %s (%d accounts): %w", typ, len(accounts), err)
		}
		task.Slots = slots
	}

	actor := event.FeePayer
	if addr := task.AccountAt(RoleAuthority); addr != "" {
		actor = addr
	}
	authority, err := c.accounts.FindOrCreate(actor)
	if err != nil {
		return false, err
	}
	task.Authority = authority

	var result Result
	if proc, ok := c.processors[typ]; ok {
		result, err = proc.Process(ctx, task)
		if err != nil {
			return false, fmt.Errorf("process %s event (accounts: %d): %w", typ, len(accounts), err)
		}
		if !result.Success {
			// A referenced entity is missing. Withhold the row so this
			// signature is retried once the dependency is ingested.
			metrics.ProcessorDeferrals.WithLabelValues(string(typ)).Inc()
			logger.Info("Deferring %s %s: referenced entity not found yet", typ, ref.Signature)
			return false, nil
		}
	}

	return c.insertRow(ref, event, task, result)
}

func (c *Coordinator) insertRow(ref chain.SignatureInfo, event *chain.RawEvent, task *Task, result Result) (bool, error) {
	blockTime := ref.BlockTime
	if blockTime.IsZero() {
		blockTime = event.BlockTime
	}

	authorityID := uint(0)
	if task.Authority != nil {
		authorityID = task.Authority.ID
	} else {
		authority, err := c.accounts.FindOrCreate(event.FeePayer)
		if err != nil {
			return false, err
		}
		authorityID = authority.ID
	}

	row := &model.Transaction{
		Signature:   ref.Signature,
		BlockTime:   blockTime,
		EventType:   string(task.Type),
		AuthorityID: authorityID,
		ReleaseID:   result.ReleaseID,
		HubID:       result.HubID,
		PostID:      result.PostID,
		ToAccountID: result.ToAccountID,
		ToHubID:     result.ToHubID,
		Heuristic:   task.Heuristic,
	}

	inserted, err := c.transactions.Insert(row)
	if err != nil {
		return false, err
	}
	if inserted {
		metrics.TransactionsIngested.WithLabelValues(string(task.Type)).Inc()
	}
	return inserted, nil
}
