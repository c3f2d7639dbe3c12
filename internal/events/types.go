package events

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/nina-protocol/nina-indexer-sub000/internal/chain"
	"github.com/nina-protocol/nina-indexer-sub000/internal/model"
)

// EventType is the closed set of business meanings a program transaction
// can carry. Unknown is recorded but never dispatched.
type EventType string

const (
	EventReleaseInit                        EventType = "ReleaseInit"
	EventReleaseInitViaHub                  EventType = "ReleaseInitViaHub"
	EventReleasePurchase                    EventType = "ReleasePurchase"
	EventReleasePurchaseViaHub              EventType = "ReleasePurchaseViaHub"
	EventReleaseClaim                       EventType = "ReleaseClaim"
	EventHubInit                            EventType = "HubInit"
	EventHubAddCollaborator                 EventType = "HubAddCollaborator"
	EventHubRemoveCollaborator              EventType = "HubRemoveCollaborator"
	EventHubAddRelease                      EventType = "HubAddRelease"
	EventHubContentToggleVisibility         EventType = "HubContentToggleVisibility"
	EventPostInitViaHub                     EventType = "PostInitViaHub"
	EventPostInitViaHubWithReferenceRelease EventType = "PostInitViaHubWithReferenceRelease"
	EventUnknown                            EventType = "Unknown"
)

// ChainClient is the slice of the chain layer the pipeline consumes.
// *chain.Client satisfies it; tests substitute fakes.
type ChainClient interface {
	ProgramID() solana.PublicKey
	Signatures(ctx context.Context, before, until string, limit int) ([]chain.SignatureInfo, error)
	Transaction(ctx context.Context, signature string) (*chain.RawEvent, error)
	Release(ctx context.Context, address string) (*chain.ReleaseAccount, error)
	Hub(ctx context.Context, address string) (*chain.HubAccount, error)
	Post(ctx context.Context, address string) (*chain.PostAccount, error)
	HubContent(ctx context.Context, hub, child string) (*chain.HubContentAccount, error)
	HubContentAddress(hub, child string) (string, error)
	HubCollaboratorAddress(hub, account string) (string, error)
	TokenBalance(ctx context.Context, owner, mint string) (uint64, error)
}

// Task is one classified, role-resolved transaction ready for dispatch.
type Task struct {
	Event     *chain.RawEvent
	Type      EventType
	Heuristic bool
	Accounts  []solana.PublicKey
	Slots     Slots
	Authority *model.Account
}

// AccountAt returns the address filling the given role, or "" when the
// event's layout has no such slot.
func (t *Task) AccountAt(role Role) string {
	idx, ok := t.Slots[role]
	if !ok || idx < 0 || idx >= len(t.Accounts) {
		return ""
	}
	return t.Accounts[idx].String()
}

// Result is what a domain processor hands back to the coordinator.
// Success false means a referenced entity was missing and the transaction
// should be retried on a later pass.
type Result struct {
	Success     bool
	ReleaseID   *uint
	HubID       *uint
	PostID      *uint
	ToAccountID *uint
	ToHubID     *uint
}

// Processor owns creation and mutation of one entity family.
type Processor interface {
	// OwnedTypes declares the closed set of event types this processor
	// handles. Sets must be disjoint across processors.
	OwnedTypes() []EventType
	// Process applies the event's effect. An error return is reserved for
	// unexpected failures; expected misses use Result.Success.
	Process(ctx context.Context, task *Task) (Result, error)
}
