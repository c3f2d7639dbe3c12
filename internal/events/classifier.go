package events

import (
	"context"
	"errors"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/nina-protocol/nina-indexer-sub000/internal/chain"
	"github.com/nina-protocol/nina-indexer-sub000/internal/logger"
)

// logMarkers is the primary classification table, matched against the
// program's "Instruction: <name>" log lines. Order matters: more specific
// names come before names that are their prefix (ReleasePurchaseViaHub
// must win over ReleasePurchase).
var logMarkers = []struct {
	marker string
	typ    EventType
}{
	{"PostInitViaHubWithReferenceRelease", EventPostInitViaHubWithReferenceRelease},
	{"PostInitViaHub", EventPostInitViaHub},
	{"ReleasePurchaseViaHub", EventReleasePurchaseViaHub},
	{"ReleasePurchase", EventReleasePurchase},
	{"ReleaseInitViaHub", EventReleaseInitViaHub},
	{"ReleaseInit", EventReleaseInit},
	{"ReleaseClaim", EventReleaseClaim},
	{"HubAddCollaborator", EventHubAddCollaborator},
	{"HubRemoveCollaborator", EventHubRemoveCollaborator},
	{"HubAddRelease", EventHubAddRelease},
	{"HubContentToggleVisibility", EventHubContentToggleVisibility},
	{"HubInit", EventHubInit},
}

// Classifier maps a raw event to its symbolic type: log markers first,
// then positional layout heuristics for old transactions that predate the
// explicit markers.
type Classifier struct {
	client ChainClient
}

func NewClassifier(client ChainClient) *Classifier {
	return &Classifier{client: client}
}

// Classify returns the event type and whether the positional fallback was
// used (heuristically classified rows are flagged for offline audit).
func (c *Classifier) Classify(ctx context.Context, event *chain.RawEvent, accounts []solana.PublicKey) (EventType, bool) {
	if typ := classifyByLogs(event.Logs); typ != EventUnknown {
		return typ, false
	}
	if typ := c.classifyByLayout(ctx, accounts); typ != EventUnknown {
		return typ, true
	}
	return EventUnknown, false
}

func classifyByLogs(logs []string) EventType {
	for _, entry := range logMarkers {
		needle := "Instruction: " + entry.marker
		for _, line := range logs {
			if strings.Contains(line, needle) {
				return entry.typ
			}
		}
	}
	return EventUnknown
}

// layoutRule is one positional heuristic: a pure predicate over the
// account structure, then a speculative typed fetch. A failed probe is not
// an error, it means "try the next rule".
type layoutRule struct {
	name    string
	applies func(accounts []solana.PublicKey) bool
	probe   func(ctx context.Context, c *Classifier, accounts []solana.PublicKey) (EventType, bool)
}

var layoutRules = []layoutRule{
	{
		// Sponsored purchase: payer doubled in the first two slots,
		// release account in the third.
		name: "sponsored-release-purchase",
		applies: func(accounts []solana.PublicKey) bool {
			return len(accounts) == 10 && accounts[0].Equals(accounts[1])
		},
		probe: func(ctx context.Context, c *Classifier, accounts []solana.PublicKey) (EventType, bool) {
			if c.accountIsRelease(ctx, accounts[2]) {
				return EventReleasePurchase, true
			}
			return EventUnknown, false
		},
	},
	{
		name: "hub-add-release",
		applies: func(accounts []solana.PublicKey) bool {
			return len(accounts) == 14
		},
		probe: func(ctx context.Context, c *Classifier, accounts []solana.PublicKey) (EventType, bool) {
			if c.accountIsHub(ctx, accounts[1]) && c.accountIsRelease(ctx, accounts[2]) {
				return EventHubAddRelease, true
			}
			return EventUnknown, false
		},
	},
	{
		name: "release-init",
		applies: func(accounts []solana.PublicKey) bool {
			return len(accounts) == 13
		},
		probe: func(ctx context.Context, c *Classifier, accounts []solana.PublicKey) (EventType, bool) {
			if c.accountIsRelease(ctx, accounts[1]) {
				return EventReleaseInit, true
			}
			return EventUnknown, false
		},
	},
}

func (c *Classifier) classifyByLayout(ctx context.Context, accounts []solana.PublicKey) EventType {
	for _, rule := range layoutRules {
		if !rule.applies(accounts) {
			continue
		}
		if typ, ok := rule.probe(ctx, c, accounts); ok {
			logger.Debug("Classified by layout rule %s", rule.name)
			return typ
		}
	}
	return EventUnknown
}

func (c *Classifier) accountIsRelease(ctx context.Context, address solana.PublicKey) bool {
	_, err := c.client.Release(ctx, address.String())
	return c.probeHit(err)
}

func (c *Classifier) accountIsHub(ctx context.Context, address solana.PublicKey) bool {
	_, err := c.client.Hub(ctx, address.String())
	return c.probeHit(err)
}

// probeHit treats a missing or undecodable account as a miss and anything
// else (real RPC failure) as a miss too, after logging. The fallback never
// escalates probe failures.
func (c *Classifier) probeHit(err error) bool {
	if err == nil {
		return true
	}
	if !errors.Is(err, chain.ErrAccountNotFound) {
		logger.Warn("Layout probe RPC failure: %v", err)
	}
	return false
}
