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

// PostProcessor owns the post entity family: hub-published posts and the
// release references embedded in their bodies.
type PostProcessor struct {
	client   ChainClient
	fetcher  *metadata.Fetcher
	accounts *logic.AccountLogic
	releases *logic.ReleaseLogic
	hubs     *logic.HubLogic
	posts    *logic.PostLogic
}

func NewPostProcessor(client ChainClient, fetcher *metadata.Fetcher,
	accounts *logic.AccountLogic, releases *logic.ReleaseLogic,
	hubs *logic.HubLogic, posts *logic.PostLogic) *PostProcessor {
	return &PostProcessor{
		client:   client,
		fetcher:  fetcher,
		accounts: accounts,
		releases: releases,
		hubs:     hubs,
		posts:    posts,
	}
}

func (p *PostProcessor) OwnedTypes() []EventType {
	return []EventType{
		EventPostInitViaHub,
		EventPostInitViaHubWithReferenceRelease,
	}
}

func (p *PostProcessor) Process(ctx context.Context, task *Task) (Result, error) {
	switch task.Type {
	case EventPostInitViaHub, EventPostInitViaHubWithReferenceRelease:
		return p.processInitViaHub(ctx, task)
	default:
		return Result{}, fmt.Errorf("post processor cannot handle %s", task.Type)
	}
}

func (p *PostProcessor) processInitViaHub(ctx context.Context, task *Task) (Result, error) {
	hub, err := p.hubs.FindByPublicKey(task.AccountAt(RoleHub))
	if err != nil {
		return Result{}, err
	}
	if hub == nil {
		return Result{}, nil
	}

	post, doc, err := p.resolvePost(ctx, task.AccountAt(RolePost))
	if err != nil {
		return Result{}, err
	}
	if post == nil {
		return Result{}, nil
	}

	contentAddress, err := p.client.HubContentAddress(hub.PublicKey, post.PublicKey)
	if err != nil {
		return Result{}, err
	}
	edge := &model.HubPost{
		PublicKey: contentAddress,
		HubID:     hub.ID,
		PostID:    post.ID,
		Visible:   true,
	}
	if err := p.hubs.AddPost(edge); err != nil {
		return Result{}, err
	}

	result := Result{Success: true, HubID: &hub.ID, PostID: &post.ID}

	// The explicit reference-release variant carries the release in the
	// account list; its absence defers the whole event.
	if task.Type == EventPostInitViaHubWithReferenceRelease {
		release, err := p.releases.FindByPublicKey(task.AccountAt(RoleRelease))
		if err != nil {
			return Result{}, err
		}
		if release == nil {
			return Result{}, nil
		}
		if err := p.posts.AddReleaseReference(post.ID, release.ID); err != nil {
			return Result{}, err
		}
		result.ReleaseID = &release.ID
	}

	// Resolve release blocks embedded in the rich content body. Unknown
	// references are skipped, not deferred: the body is advisory.
	if doc != nil {
		for _, ref := range doc.ReleaseReferences() {
			release, err := p.releases.FindByPublicKey(ref)
			if err != nil {
				return Result{}, err
			}
			if release == nil {
				logger.Debug("Post %s references unknown release %s", post.PublicKey, ref)
				continue
			}
			if err := p.posts.AddReleaseReference(post.ID, release.ID); err != nil {
				return Result{}, err
			}
		}
	}

	return result, nil
}

// resolvePost finds the post by its address, creating it from chain state
// and its off-chain document on first sight. The document is returned so
// the caller can resolve body references without a second fetch.
func (p *PostProcessor) resolvePost(ctx context.Context, address string) (*model.Post, *metadata.Document, error) {
	if address == "" {
		return nil, nil, errors.New("post address missing from account layout")
	}

	post, err := p.posts.FindByPublicKey(address)
	if err != nil {
		return nil, nil, err
	}
	if post != nil {
		return post, p.fetchDocument(ctx, post.MetadataURI), nil
	}

	acct, err := p.client.Post(ctx, address)
	if err != nil {
		if errors.Is(err, chain.ErrAccountNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	author, err := p.accounts.FindOrCreate(acct.Author.String())
	if err != nil {
		return nil, nil, err
	}

	row := &model.Post{
		PublicKey:    address,
		Slug:         acct.SlugString(),
		MetadataURI:  acct.URIString(),
		PostDatetime: time.Unix(acct.CreatedAt, 0).UTC(),
		AuthorityID:  author.ID,
	}

	doc := p.fetchDocument(ctx, row.MetadataURI)
	if doc != nil {
		row.Metadata = string(doc.Raw)
	}

	post, err = p.posts.Create(row)
	if err != nil {
		return nil, nil, err
	}
	return post, doc, nil
}

func (p *PostProcessor) fetchDocument(ctx context.Context, uri string) *metadata.Document {
	if uri == "" || p.fetcher == nil {
		return nil
	}
	doc, err := p.fetcher.Fetch(ctx, uri)
	if err != nil {
		logger.Warn("Post metadata fetch failed for %s: %v", uri, err)
		return nil
	}
	return doc
}
