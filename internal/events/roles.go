package events

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Role names a position of interest inside an event's account list.
type Role string

const (
	RoleAuthority Role = "authority" // primary actor, recorded as the row's authority
	RoleRelease   Role = "release"
	RoleHub       Role = "hub"
	RolePost      Role = "post"
	RoleToAccount Role = "toAccount" // secondary actor (e.g. added collaborator)
	RoleContent   Role = "content"   // hub content child, release or post
)

// Slots maps roles to account indexes for one physical layout.
type Slots map[Role]int

// RoleLayout carries both physical layouts of an event type. When the
// transaction was fee-sponsored by the file service, the sponsor accounts
// are prepended and every index shifts.
type RoleLayout struct {
	Normal    Slots
	Sponsored Slots
}

var roleLayouts = map[EventType]RoleLayout{
	EventReleaseInit: {
		Normal:    Slots{RoleAuthority: 0, RoleRelease: 1},
		Sponsored: Slots{RoleAuthority: 1, RoleRelease: 2},
	},
	EventReleaseInitViaHub: {
		Normal:    Slots{RoleAuthority: 0, RoleRelease: 1, RoleHub: 4},
		Sponsored: Slots{RoleAuthority: 1, RoleRelease: 2, RoleHub: 5},
	},
	EventReleasePurchase: {
		Normal:    Slots{RoleAuthority: 0, RoleRelease: 1},
		Sponsored: Slots{RoleAuthority: 1, RoleRelease: 2},
	},
	EventReleasePurchaseViaHub: {
		Normal:    Slots{RoleAuthority: 0, RoleRelease: 1, RoleHub: 2},
		Sponsored: Slots{RoleAuthority: 1, RoleRelease: 2, RoleHub: 3},
	},
	EventReleaseClaim: {
		Normal:    Slots{RoleAuthority: 0, RoleRelease: 1},
		Sponsored: Slots{RoleAuthority: 1, RoleRelease: 2},
	},
	EventHubInit: {
		Normal:    Slots{RoleAuthority: 0, RoleHub: 1},
		Sponsored: Slots{RoleAuthority: 1, RoleHub: 2},
	},
	EventHubAddCollaborator: {
		Normal:    Slots{RoleAuthority: 0, RoleHub: 1, RoleToAccount: 2},
		Sponsored: Slots{RoleAuthority: 1, RoleHub: 2, RoleToAccount: 3},
	},
	EventHubRemoveCollaborator: {
		Normal:    Slots{RoleAuthority: 0, RoleHub: 1, RoleToAccount: 2},
		Sponsored: Slots{RoleAuthority: 1, RoleHub: 2, RoleToAccount: 3},
	},
	EventHubAddRelease: {
		Normal:    Slots{RoleAuthority: 0, RoleHub: 1, RoleRelease: 2},
		Sponsored: Slots{RoleAuthority: 1, RoleHub: 2, RoleRelease: 3},
	},
	EventHubContentToggleVisibility: {
		Normal:    Slots{RoleAuthority: 0, RoleHub: 1, RoleContent: 2},
		Sponsored: Slots{RoleAuthority: 1, RoleHub: 2, RoleContent: 3},
	},
	// Post inits get both the sponsor wallet and its token account
	// prepended, so sponsored indexes shift by two.
	EventPostInitViaHub: {
		Normal:    Slots{RoleAuthority: 0, RoleHub: 1, RolePost: 2},
		Sponsored: Slots{RoleAuthority: 2, RoleHub: 3, RolePost: 4},
	},
	EventPostInitViaHubWithReferenceRelease: {
		Normal:    Slots{RoleAuthority: 0, RoleHub: 1, RolePost: 2, RoleRelease: 3},
		Sponsored: Slots{RoleAuthority: 2, RoleHub: 3, RolePost: 4, RoleRelease: 5},
	},
}

// LayoutFor exposes the static role table (per-type lookups in tests).
func LayoutFor(typ EventType) (RoleLayout, bool) {
	layout, ok := roleLayouts[typ]
	return layout, ok
}

// IsSponsored reports whether the account list uses the fee-sponsored
// layout: the configured sponsor wallet leads the list, or the first two
// accounts are identical.
func IsSponsored(accounts []solana.PublicKey, sponsor solana.PublicKey) bool {
	if len(accounts) < 2 {
		return false
	}
	if !sponsor.IsZero() && accounts[0].Equals(sponsor) {
		return true
	}
	return accounts[0].Equals(accounts[1])
}

// ResolveSlots picks the physical layout for the event type and validates
// every slot against the account list length.
func ResolveSlots(typ EventType, accounts []solana.PublicKey, sponsor solana.PublicKey) (Slots, error) {
	layout, ok := roleLayouts[typ]
	if !ok {
		return nil, fmt.Errorf("no role layout for event type %s", typ)
	}

	slots := layout.Normal
	if IsSponsored(accounts, sponsor) {
		slots = layout.Sponsored
	}

	for role, idx := range slots {
		if idx < 0 || idx >= len(accounts) {
			return nil, fmt.Errorf("event type %s: %s slot %d out of range for %d accounts",
				typ, role, idx, len(accounts))
		}
	}
	return slots, nil
}

// ResolveActor returns the address of the account whose activity explains
// the event.
func ResolveActor(typ EventType, accounts []solana.PublicKey, sponsor solana.PublicKey) (string, error) {
	slots, err := ResolveSlots(typ, accounts, sponsor)
	if err != nil {
		return "", err
	}
	idx, ok := slots[RoleAuthority]
	if !ok {
		return "", fmt.Errorf("event type %s has no authority slot", typ)
	}
	return accounts[idx].String(), nil
}
