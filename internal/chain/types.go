package chain

import (
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// SignatureInfo is a lightweight pointer to one program transaction,
// as returned by the address-history query. Used for paging only.
type SignatureInfo struct {
	Signature string
	BlockTime time.Time
	Slot      uint64
	Failed    bool // the transaction errored on chain
}

// Instruction is one raw instruction, top-level or inner. Account order is
// preserved exactly as the chain reports it.
type Instruction struct {
	ProgramID solana.PublicKey
	Accounts  []solana.PublicKey
}

// RawEvent is the fully parsed detail of one transaction: instruction
// lists, log lines and execution metadata. Read-only once built.
type RawEvent struct {
	Signature    string
	BlockTime    time.Time
	FeePayer     string
	Failed       bool // the transaction errored on chain
	Logs         []string
	Instructions []Instruction // top-level, original order
	Inner        []Instruction // inner instructions, flattened in order
}

func signatureInfoFromRPC(sig *rpc.TransactionSignature) SignatureInfo {
	info := SignatureInfo{
		Signature: sig.Signature.String(),
		Slot:      sig.Slot,
		Failed:    sig.Err != nil,
	}
	if sig.BlockTime != nil {
		info.BlockTime = sig.BlockTime.Time()
	}
	return info
}

func rawEventFromParsed(signature string, res *rpc.GetParsedTransactionResult) *RawEvent {
	event := &RawEvent{Signature: signature}
	if res.BlockTime != nil {
		event.BlockTime = res.BlockTime.Time()
	}
	if res.Meta != nil {
		event.Failed = res.Meta.Err != nil
		event.Logs = res.Meta.LogMessages
		for _, inner := range res.Meta.InnerInstructions {
			for _, ix := range inner.Instructions {
				event.Inner = append(event.Inner, Instruction{
					ProgramID: ix.ProgramId,
					Accounts:  ix.Accounts,
				})
			}
		}
	}
	if res.Transaction != nil {
		msg := res.Transaction.Message
		if len(msg.AccountKeys) > 0 {
			event.FeePayer = msg.AccountKeys[0].PublicKey.String()
		}
		for _, ix := range msg.Instructions {
			event.Instructions = append(event.Instructions, Instruction{
				ProgramID: ix.ProgramId,
				Accounts:  ix.Accounts,
			})
		}
	}
	return event
}
