package events

import (
	"context"
	"errors"

	"github.com/nina-protocol/nina-indexer-sub000/internal/chain"
	"github.com/nina-protocol/nina-indexer-sub000/internal/logger"
	"github.com/nina-protocol/nina-indexer-sub000/internal/logic"
	"github.com/nina-protocol/nina-indexer-sub000/internal/metadata"
)

const verificationPageSize = 100

// VerificationSync re-checks persisted entity rows against authoritative
// chain state and patches columns that drifted (supply counters move on
// chain without emitting events the pipeline watches).
type VerificationSync struct {
	client   ChainClient
	fetcher  *metadata.Fetcher
	releases *logic.ReleaseLogic
	hubs     *logic.HubLogic
}

func NewVerificationSync(client ChainClient, fetcher *metadata.Fetcher,
	releases *logic.ReleaseLogic, hubs *logic.HubLogic) *VerificationSync {
	return &VerificationSync{
		client:   client,
		fetcher:  fetcher,
		releases: releases,
		hubs:     hubs,
	}
}

// RunOnce walks every release and hub once, in id order.
func (s *VerificationSync) RunOnce(ctx context.Context) error {
	if err := s.verifyReleases(ctx); err != nil {
		return err
	}
	return s.verifyHubs(ctx)
}

func (s *VerificationSync) verifyReleases(ctx context.Context) error {
	for offset := 0; ; offset += verificationPageSize {
		page, err := s.releases.Releases(offset, verificationPageSize)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}

		for _, release := range page {
			acct, err := s.client.Release(ctx, release.PublicKey)
			if err != nil {
				if errors.Is(err, chain.ErrAccountNotFound) {
					continue
				}
				logger.Warn("Verification fetch failed for release %s: %v", release.PublicKey, err)
				continue
			}

			uri := acct.URIString()
			drifted := release.MetadataURI != uri ||
				release.TotalSupply != acct.TotalSupply ||
				release.RemainingSupply != acct.RemainingSupply ||
				release.Price != acct.Price
			if !drifted {
				continue
			}

			if err := s.releases.UpdateChainState(release.ID, uri, acct.TotalSupply, acct.RemainingSupply, acct.Price); err != nil {
				return err
			}
			if release.MetadataURI != uri && uri != "" && s.fetcher != nil {
				if doc, err := s.fetcher.Fetch(ctx, uri); err == nil {
					if err := s.releases.UpdateMetadata(release.ID, string(doc.Raw)); err != nil {
						return err
					}
				} else {
					logger.Warn("Verification metadata fetch failed for %s: %v", uri, err)
				}
			}
			logger.Info("Verified release %s: chain state refreshed", release.PublicKey)
		}
	}
}

func (s *VerificationSync) verifyHubs(ctx context.Context) error {
	for offset := 0; ; offset += verificationPageSize {
		page, err := s.hubs.Hubs(offset, verificationPageSize)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}

		for _, hub := range page {
			acct, err := s.client.Hub(ctx, hub.PublicKey)
			if err != nil {
				if errors.Is(err, chain.ErrAccountNotFound) {
					continue
				}
				logger.Warn("Verification fetch failed for hub %s: %v", hub.PublicKey, err)
				continue
			}

			uri := acct.URIString()
			if hub.MetadataURI == uri {
				continue
			}
			if err := s.hubs.UpdateChainState(hub.ID, uri); err != nil {
				return err
			}
			logger.Info("Verified hub %s: metadata URI refreshed", hub.PublicKey)
		}
	}
}
