package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/nina-protocol/nina-indexer-sub000/internal/logger"
	"github.com/nina-protocol/nina-indexer-sub000/internal/logic"
	"github.com/nina-protocol/nina-indexer-sub000/internal/model"
	"github.com/panjf2000/ants/v2"
)

const collectorPageSize = 200

// CollectorSync re-checks collector edges against current token holdings:
// a wallet that no longer holds the release mint loses the edge. Checks
// run on a worker pool; each edge is an independent row so concurrent
// deletes cannot race each other.
type CollectorSync struct {
	client   ChainClient
	releases *logic.ReleaseLogic
	workers  int
}

func NewCollectorSync(client ChainClient, releases *logic.ReleaseLogic, workers int) *CollectorSync {
	if workers <= 0 {
		workers = 8
	}
	return &CollectorSync{
		client:   client,
		releases: releases,
		workers:  workers,
	}
}

// RunOnce walks every collector edge once.
func (s *CollectorSync) RunOnce(ctx context.Context) error {
	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return fmt.Errorf("create collector pool: %w", err)
	}
	defer pool.Release()

	checked := 0
	removed := 0
	var mu sync.Mutex

	for offset := 0; ; offset += collectorPageSize {
		page, err := s.releases.CollectedEdges(offset, collectorPageSize)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			break
		}

		var wg sync.WaitGroup
		for _, edge := range page {
			edge := edge
			wg.Add(1)
			submitErr := pool.Submit(func() {
				defer wg.Done()
				dropped := s.checkEdge(ctx, edge)
				mu.Lock()
				checked++
				if dropped {
					removed++
				}
				mu.Unlock()
			})
			if submitErr != nil {
				wg.Done()
				logger.Error("Collector pool submit failed: %v", submitErr)
			}
		}
		wg.Wait()
	}

	logger.Info("Collector sync checked %d edges, removed %d", checked, removed)
	return nil
}

func (s *CollectorSync) checkEdge(ctx context.Context, edge model.ReleaseCollected) bool {
	if edge.Account.PublicKey == "" || edge.Release.Mint == "" {
		return false
	}

	balance, err := s.client.TokenBalance(ctx, edge.Account.PublicKey, edge.Release.Mint)
	if err != nil {
		logger.Warn("Collector balance check failed for %s on %s: %v",
			edge.Account.PublicKey, edge.Release.Mint, err)
		return false
	}
	if balance > 0 {
		return false
	}

	if err := s.releases.RemoveCollector(edge.AccountID, edge.ReleaseID); err != nil {
		logger.Error("Failed to remove stale collector edge: %v", err)
		return false
	}
	return true
}
