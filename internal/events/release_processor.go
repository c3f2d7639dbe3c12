package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nina-protocol/nina-indexer-sub000/internal/chain"
	"github.com/nina-protocol/nina-indexer-sub000/internal/logger"
	"github.com/nina-protocol/nina-indexer-sub000/internal/logic"
	"github.com/nina-protocol/nina-indexer-sub000/internal/metadata"
	"github.com/nina-protocol/nina-indexer-sub000/internal/model"
)

// ReleaseProcessor owns the release entity family: creation, purchases and
// claims, and the collector edges they imply.
type ReleaseProcessor struct {
	client   ChainClient
	fetcher  *metadata.Fetcher
	accounts *logic.AccountLogic
	releases *logic.ReleaseLogic
	hubs     *logic.HubLogic
}

func NewReleaseProcessor(client ChainClient, fetcher *metadata.Fetcher,
	accounts *logic.AccountLogic, releases *logic.ReleaseLogic, hubs *logic.HubLogic) *ReleaseProcessor {
	return &ReleaseProcessor{
		client:   client,
		fetcher:  fetcher,
		accounts: accounts,
		releases: releases,
		hubs:     hubs,
	}
}

func (p *ReleaseProcessor) OwnedTypes() []EventType {
	return []EventType{
		EventReleaseInit,
		EventReleaseInitViaHub,
		EventReleasePurchase,
		EventReleasePurchaseViaHub,
		EventReleaseClaim,
	}
}

func (p *ReleaseProcessor) Process(ctx context.Context, task *Task) (Result, error) {
	switch task.Type {
	case EventReleaseInit:
		return p.processInit(ctx, task)
	case EventReleaseInitViaHub:
		return p.processInitViaHub(ctx, task)
	case EventReleasePurchase, EventReleaseClaim:
		return p.processCollect(ctx, task, nil)
	case EventReleasePurchaseViaHub:
		return p.processPurchaseViaHub(ctx, task)
	default:
		return Result{}, fmt.Errorf("release processor cannot handle %s", task.Type)
	}
}

func (p *ReleaseProcessor) processInit(ctx context.Context, task *Task) (Result, error) {
	release, err := p.resolveRelease(ctx, task.AccountAt(RoleRelease))
	if err != nil {
		return Result{}, err
	}
	if release == nil {
		return Result{}, nil
	}
	return Result{Success: true, ReleaseID: &release.ID}, nil
}

func (p *ReleaseProcessor) processInitViaHub(ctx context.Context, task *Task) (Result, error) {
	hub, err := p.hubs.FindByPublicKey(task.AccountAt(RoleHub))
	if err != nil {
		return Result{}, err
	}
	if hub == nil {
		// Hub not ingested yet; retried once it is.
		return Result{}, nil
	}

	release, err := p.resolveRelease(ctx, task.AccountAt(RoleRelease))
	if err != nil {
		return Result{}, err
	}
	if release == nil {
		return Result{}, nil
	}

	// The init-via-hub event is the proof that the release was published
	// through this hub.
	if err := p.releases.SetHub(release.ID, hub.ID); err != nil {
		return Result{}, err
	}

	contentAddress, err := p.client.HubContentAddress(hub.PublicKey, release.PublicKey)
	if err != nil {
		return Result{}, err
	}
	edge := &model.HubRelease{
		PublicKey: contentAddress,
		HubID:     hub.ID,
		ReleaseID: release.ID,
		Visible:   true,
	}
	if err := p.hubs.AddRelease(edge); err != nil {
		return Result{}, err
	}

	return Result{Success: true, ReleaseID: &release.ID, HubID: &hub.ID}, nil
}

func (p *ReleaseProcessor) processPurchaseViaHub(ctx context.Context, task *Task) (Result, error) {
	hub, err := p.hubs.FindByPublicKey(task.AccountAt(RoleHub))
	if err != nil {
		return Result{}, err
	}
	if hub == nil {
		return Result{}, nil
	}
	return p.processCollect(ctx, task, &hub.ID)
}

// processCollect handles purchases and claims: the actor becomes a
// collector of the release.
func (p *ReleaseProcessor) processCollect(ctx context.Context, task *Task, hubID *uint) (Result, error) {
	release, err := p.resolveRelease(ctx, task.AccountAt(RoleRelease))
	if err != nil {
		return Result{}, err
	}
	if release == nil {
		return Result{}, nil
	}

	if err := p.releases.AddCollector(task.Authority.ID, release.ID); err != nil {
		return Result{}, err
	}

	return Result{Success: true, ReleaseID: &release.ID, HubID: hubID}, nil
}

// resolveRelease finds the release by its address, creating it from
// authoritative chain state on first sight. A nil, nil return means the
// release cannot be located yet and the event should be deferred.
func (p *ReleaseProcessor) resolveRelease(ctx context.Context, address string) (*model.Release, error) {
	if address == "" {
		return nil, errors.New("release address missing from account layout")
	}

	release, err := p.releases.FindByPublicKey(address)
	if err != nil || release != nil {
		return release, err
	}

	acct, err := p.client.Release(ctx, address)
	if err != nil {
		if errors.Is(err, chain.ErrAccountNotFound) {
			return nil, nil
		}
		return nil, err
	}

	authority, err := p.accounts.FindOrCreate(acct.Authority.String())
	if err != nil {
		return nil, err
	}

	row := &model.Release{
		PublicKey:       address,
		Mint:            acct.ReleaseMint.String(),
		MetadataURI:     acct.URIString(),
		TotalSupply:     acct.TotalSupply,
		RemainingSupply: acct.RemainingSupply,
		Price:           acct.Price,
		ReleaseDatetime: time.Unix(acct.ReleaseDatetime, 0).UTC(),
		AuthorityID:     authority.ID,
	}
	if doc := p.fetchMetadata(ctx, row.MetadataURI); doc != nil {
		row.Metadata = string(doc.Raw)
	}

	return p.releases.Create(row)
}

// fetchMetadata is best-effort: a gateway outage must not block ingestion.
func (p *ReleaseProcessor) fetchMetadata(ctx context.Context, uri string) *metadata.Document {
	if uri == "" || p.fetcher == nil {
		return nil
	}
	doc, err := p.fetcher.Fetch(ctx, uri)
	if err != nil {
		logger.Warn("Release metadata fetch failed for %s: %v", uri, err)
		return nil
	}
	return doc
}
