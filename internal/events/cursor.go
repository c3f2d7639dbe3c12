package events

import (
	"context"
	"fmt"

	"github.com/nina-protocol/nina-indexer-sub000/internal/chain"
	"github.com/nina-protocol/nina-indexer-sub000/internal/logic"
)

// SignatureCursor produces the next batch of unprocessed signatures in
// chronological order. The last-synced point is not checkpointed anywhere;
// it is derived from the newest row in the transactions table, so the
// cursor can never drift from the persisted data.
type SignatureCursor struct {
	client       ChainClient
	transactions *logic.TransactionLogic
	pageSize     int
}

func NewSignatureCursor(client ChainClient, transactions *logic.TransactionLogic, pageSize int) *SignatureCursor {
	if pageSize <= 0 {
		pageSize = 200
	}
	return &SignatureCursor{
		client:       client,
		transactions: transactions,
		pageSize:     pageSize,
	}
}

// NextBatch pages backward from now toward the last-synced signature, then
// reverses so callers see strict oldest-to-newest order. Any page fetch
// error aborts the whole batch: a partial cursor must never be acted on.
func (c *SignatureCursor) NextBatch(ctx context.Context) ([]chain.SignatureInfo, error) {
	latest, err := c.transactions.Latest()
	if err != nil {
		return nil, err
	}

	until := ""
	if latest != nil {
		until = latest.Signature
	}

	var collected []chain.SignatureInfo
	before := ""
	for {
		page, err := c.client.Signatures(ctx, before, until, c.pageSize)
		if err != nil {
			return nil, fmt.Errorf("fetch signature page: %w", err)
		}
		collected = append(collected, page...)

		// A non-full page means history (or the until boundary) is reached.
		if len(page) < c.pageSize {
			break
		}
		before = page[len(page)-1].Signature
	}

	// Oldest first: later processing assumes a release exists before a hub
	// event can reference it.
	for i, j := 0, len(collected)-1; i < j; i, j = i+1, j-1 {
		collected[i], collected[j] = collected[j], collected[i]
	}

	return c.dropPersisted(collected)
}

// dropPersisted filters out signatures that already have a row. The until
// boundary normally guarantees this; the filter keeps the monotonicity
// invariant even when boundary rows reappear in a page.
func (c *SignatureCursor) dropPersisted(batch []chain.SignatureInfo) ([]chain.SignatureInfo, error) {
	if len(batch) == 0 {
		return batch, nil
	}

	signatures := make([]string, len(batch))
	for i, ref := range batch {
		signatures[i] = ref.Signature
	}

	existing, err := c.transactions.ExistingSignatures(signatures)
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 {
		return batch, nil
	}

	fresh := batch[:0]
	for _, ref := range batch {
		if !existing[ref.Signature] {
			fresh = append(fresh, ref)
		}
	}
	return fresh, nil
}
