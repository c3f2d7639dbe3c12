package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nina-protocol/nina-indexer-sub000/internal/config"
	"github.com/nina-protocol/nina-indexer-sub000/internal/logger"
)

// Document is the off-chain JSON referenced by an on-chain URI. Only the
// fields the pipeline reads are typed; the raw body is kept for storage.
type Document struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	Blocks      []Block `json:"blocks"`

	Raw json.RawMessage `json:"-"`
}

// Block is one segment of a post's rich content body. Release blocks carry
// the addresses of releases referenced by the post.
type Block struct {
	Type string   `json:"type"`
	Data []string `json:"data"`
}

// ReleaseReferences returns the release addresses embedded in the body.
func (d *Document) ReleaseReferences() []string {
	var refs []string
	for _, block := range d.Blocks {
		if block.Type == "release" {
			refs = append(refs, block.Data...)
		}
	}
	return refs
}

// Fetcher resolves off-chain URIs into JSON documents with a two-gateway
// fallback: the URI is tried as-is first, then re-rooted onto the fallback
// gateway.
type Fetcher struct {
	client          *http.Client
	fallbackGateway string
}

func NewFetcher(cfg config.MetadataConfig) *Fetcher {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Fetcher{
		client:          &http.Client{Timeout: timeout},
		fallbackGateway: strings.TrimRight(cfg.FallbackGateway, "/"),
	}
}

// Fetch resolves uri into a Document. A failed primary fetch is retried
// once against the fallback gateway before giving up.
func (f *Fetcher) Fetch(ctx context.Context, uri string) (*Document, error) {
	doc, err := f.fetchOne(ctx, uri)
	if err == nil {
		return doc, nil
	}

	fallback := f.fallbackURI(uri)
	if fallback == "" || fallback == uri {
		return nil, err
	}

	logger.Warn("Metadata fetch failed for %s, trying fallback gateway: %v", uri, err)
	doc, fbErr := f.fetchOne(ctx, fallback)
	if fbErr != nil {
		return nil, fmt.Errorf("both gateways failed: %v; fallback: %w", err, fbErr)
	}
	return doc, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, uri string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("build metadata request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read metadata body: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode metadata json: %w", err)
	}
	doc.Raw = body
	return &doc, nil
}

// fallbackURI re-roots the URI path onto the fallback gateway.
func (f *Fetcher) fallbackURI(uri string) string {
	if f.fallbackGateway == "" {
		return ""
	}
	parsed, err := url.Parse(uri)
	if err != nil || parsed.Path == "" {
		return ""
	}
	return f.fallbackGateway + "/" + strings.TrimLeft(parsed.Path, "/")
}
