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

// HubProcessor owns the hub entity family: hub creation, collaborator
// membership and content membership edges.
type HubProcessor struct {
	client   ChainClient
	fetcher  *metadata.Fetcher
	accounts *logic.AccountLogic
	releases *logic.ReleaseLogic
	hubs     *logic.HubLogic
}

func NewHubProcessor(client ChainClient, fetcher *metadata.Fetcher,
	accounts *logic.AccountLogic, releases *logic.ReleaseLogic, hubs *logic.HubLogic) *HubProcessor {
	return &HubProcessor{
		client:   client,
		fetcher:  fetcher,
		accounts: accounts,
		releases: releases,
		hubs:     hubs,
	}
}

func (p *HubProcessor) OwnedTypes() []EventType {
	return []EventType{
		EventHubInit,
		EventHubAddCollaborator,
		EventHubRemoveCollaborator,
		EventHubAddRelease,
		EventHubContentToggleVisibility,
	}
}

func (p *HubProcessor) Process(ctx context.Context, task *Task) (Result, error) {
	switch task.Type {
	case EventHubInit:
		return p.processInit(ctx, task)
	case EventHubAddCollaborator:
		return p.processAddCollaborator(ctx, task)
	case EventHubRemoveCollaborator:
		return p.processRemoveCollaborator(ctx, task)
	case EventHubAddRelease:
		return p.processAddRelease(ctx, task)
	case EventHubContentToggleVisibility:
		return p.processToggleVisibility(ctx, task)
	default:
		return Result{}, fmt.Errorf("hub processor cannot handle %s", task.Type)
	}
}

func (p *HubProcessor) processInit(ctx context.Context, task *Task) (Result, error) {
	hub, err := p.resolveHub(ctx, task.AccountAt(RoleHub))
	if err != nil {
		return Result{}, err
	}
	if hub == nil {
		return Result{}, nil
	}

	// The authority is always the hub's first collaborator.
	if err := p.addCollaboratorEdge(hub, task.Authority); err != nil {
		return Result{}, err
	}

	return Result{Success: true, HubID: &hub.ID}, nil
}

func (p *HubProcessor) processAddCollaborator(ctx context.Context, task *Task) (Result, error) {
	hub, err := p.hubs.FindByPublicKey(task.AccountAt(RoleHub))
	if err != nil {
		return Result{}, err
	}
	if hub == nil {
		return Result{}, nil
	}

	collaborator, err := p.accounts.FindOrCreate(task.AccountAt(RoleToAccount))
	if err != nil {
		return Result{}, err
	}
	if err := p.addCollaboratorEdge(hub, collaborator); err != nil {
		return Result{}, err
	}

	return Result{Success: true, ToHubID: &hub.ID, ToAccountID: &collaborator.ID}, nil
}

func (p *HubProcessor) processRemoveCollaborator(ctx context.Context, task *Task) (Result, error) {
	hub, err := p.hubs.FindByPublicKey(task.AccountAt(RoleHub))
	if err != nil {
		return Result{}, err
	}
	if hub == nil {
		return Result{}, nil
	}

	collaborator, err := p.accounts.FindByPublicKey(task.AccountAt(RoleToAccount))
	if err != nil {
		return Result{}, err
	}
	if collaborator == nil {
		return Result{}, nil
	}

	if err := p.hubs.RemoveCollaborator(hub.ID, collaborator.ID); err != nil {
		return Result{}, err
	}

	return Result{Success: true, ToHubID: &hub.ID, ToAccountID: &collaborator.ID}, nil
}

func (p *HubProcessor) processAddRelease(ctx context.Context, task *Task) (Result, error) {
	hub, err := p.hubs.FindByPublicKey(task.AccountAt(RoleHub))
	if err != nil {
		return Result{}, err
	}
	if hub == nil {
		return Result{}, nil
	}

	release, err := p.releases.FindByPublicKey(task.AccountAt(RoleRelease))
	if err != nil {
		return Result{}, err
	}
	if release == nil {
		// Release event not ingested yet; the row is withheld so this
		// signature comes around again next pass.
		return Result{}, nil
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

	// A repost does not prove publication through the hub; only the
	// content account can.
	if release.HubID == nil {
		if content, err := p.client.HubContent(ctx, hub.PublicKey, release.PublicKey); err == nil && content.PublishedThroughHub {
			if err := p.releases.SetHub(release.ID, hub.ID); err != nil {
				return Result{}, err
			}
		} else if err != nil && !errors.Is(err, chain.ErrAccountNotFound) {
			logger.Warn("Hub content lookup failed for %s: %v", contentAddress, err)
		}
	}

	return Result{Success: true, HubID: &hub.ID, ReleaseID: &release.ID}, nil
}

func (p *HubProcessor) processToggleVisibility(ctx context.Context, task *Task) (Result, error) {
	hub, err := p.hubs.FindByPublicKey(task.AccountAt(RoleHub))
	if err != nil {
		return Result{}, err
	}
	if hub == nil {
		return Result{}, nil
	}

	child := task.AccountAt(RoleContent)
	content, err := p.client.HubContent(ctx, hub.PublicKey, child)
	if err != nil {
		if errors.Is(err, chain.ErrAccountNotFound) {
			return Result{}, nil
		}
		return Result{}, err
	}

	contentAddress, err := p.client.HubContentAddress(hub.PublicKey, child)
	if err != nil {
		return Result{}, err
	}

	patched, err := p.hubs.SetContentVisibility(contentAddress, content.Visible)
	if err != nil {
		return Result{}, err
	}
	if !patched {
		// The membership edge itself has not been ingested yet.
		return Result{}, nil
	}

	return Result{Success: true, HubID: &hub.ID}, nil
}

func (p *HubProcessor) addCollaboratorEdge(hub *model.Hub, account *model.Account) error {
	address, err := p.client.HubCollaboratorAddress(hub.PublicKey, account.PublicKey)
	if err != nil {
		return err
	}
	return p.hubs.AddCollaborator(&model.HubCollaborator{
		PublicKey: address,
		HubID:     hub.ID,
		AccountID: account.ID,
	})
}

// resolveHub finds the hub by its address, creating it from authoritative
// chain state on first sight.
func (p *HubProcessor) resolveHub(ctx context.Context, address string) (*model.Hub, error) {
	if address == "" {
		return nil, errors.New("hub address missing from account layout")
	}

	hub, err := p.hubs.FindByPublicKey(address)
	if err != nil || hub != nil {
		return hub, err
	}

	acct, err := p.client.Hub(ctx, address)
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

	row := &model.Hub{
		PublicKey:   address,
		Handle:      acct.HandleString(),
		MetadataURI: acct.URIString(),
		HubDatetime: time.Unix(acct.HubDatetime, 0).UTC(),
		AuthorityID: authority.ID,
	}
	if row.MetadataURI != "" && p.fetcher != nil {
		if doc, err := p.fetcher.Fetch(ctx, row.MetadataURI); err == nil {
			row.Metadata = string(doc.Raw)
		} else {
			logger.Warn("Hub metadata fetch failed for %s: %v", row.MetadataURI, err)
		}
	}

	return p.hubs.Create(row)
}
