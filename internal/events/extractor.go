package events

import (
	"github.com/gagliardetto/solana-go"
	"github.com/nina-protocol/nina-indexer-sub000/internal/chain"
)

// ExtractAccounts locates the instruction addressed to the monitored
// program and returns its ordered account list. Top-level instructions are
// searched first, then inner instructions triggered by other programs. An
// empty result means the program is not involved, not an error.
func ExtractAccounts(event *chain.RawEvent, programID solana.PublicKey) []solana.PublicKey {
	for _, ix := range event.Instructions {
		if ix.ProgramID.Equals(programID) {
			return ix.Accounts
		}
	}
	for _, ix := range event.Inner {
		if ix.ProgramID.Equals(programID) {
			return ix.Accounts
		}
	}
	return nil
}
