package chain

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/nina-protocol/nina-indexer-sub000/internal/config"
	"github.com/nina-protocol/nina-indexer-sub000/internal/logger"
)

// ErrAccountNotFound is returned when a program account does not exist at
// the queried address. Callers use it to distinguish "try the next
// heuristic" from a real RPC failure.
var ErrAccountNotFound = errors.New("account not found")

// Client wraps the Solana RPC endpoint. Every outbound call retries
// timeout-class failures up to MaxRetries with bounded linear backoff;
// any other error propagates immediately.
type Client struct {
	rpc        *rpc.Client
	programID  solana.PublicKey
	maxRetries int
	retryDelay time.Duration
}

func Init(cfg config.ChainConfig) (*Client, error) {
	programID, err := solana.PublicKeyFromBase58(cfg.ProgramAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid program address %q: %w", cfg.ProgramAddress, err)
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	retryDelay := time.Duration(cfg.RetryDelayMs) * time.Millisecond
	if retryDelay <= 0 {
		retryDelay = 500 * time.Millisecond
	}

	return &Client{
		rpc:        rpc.New(cfg.RpcUrl),
		programID:  programID,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
	}, nil
}

// ProgramID returns the monitored program address.
func (c *Client) ProgramID() solana.PublicKey {
	return c.programID
}

// Signatures returns one page of transaction signatures for the monitored
// program, newest first. before and until are optional boundary signatures.
func (c *Client) Signatures(ctx context.Context, before, until string, limit int) ([]SignatureInfo, error) {
	opts := &rpc.GetSignaturesForAddressOpts{
		Commitment: rpc.CommitmentConfirmed,
	}
	if limit > 0 {
		opts.Limit = &limit
	}
	if before != "" {
		sig, err := solana.SignatureFromBase58(before)
		if err != nil {
			return nil, fmt.Errorf("invalid before signature %q: %w", before, err)
		}
		opts.Before = sig
	}
	if until != "" {
		sig, err := solana.SignatureFromBase58(until)
		if err != nil {
			return nil, fmt.Errorf("invalid until signature %q: %w", until, err)
		}
		opts.Until = sig
	}

	var page []*rpc.TransactionSignature
	err := c.withRetry(ctx, "getSignaturesForAddress", func() error {
		var err error
		page, err = c.rpc.GetSignaturesForAddressWithOpts(ctx, c.programID, opts)
		return err
	})
	if err != nil {
		return nil, err
	}

	infos := make([]SignatureInfo, 0, len(page))
	for _, sig := range page {
		infos = append(infos, signatureInfoFromRPC(sig))
	}
	return infos, nil
}

// Transaction fetches the fully parsed detail for one signature.
func (c *Client) Transaction(ctx context.Context, signature string) (*RawEvent, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("invalid signature %q: %w", signature, err)
	}

	maxVersion := uint64(0)
	opts := &rpc.GetParsedTransactionOpts{
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVersion,
	}

	var res *rpc.GetParsedTransactionResult
	err = c.withRetry(ctx, "getParsedTransaction", func() error {
		var err error
		res, err = c.rpc.GetParsedTransaction(ctx, sig, opts)
		return err
	})
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("transaction %s not found", signature)
	}

	return rawEventFromParsed(signature, res), nil
}

// TokenBalance sums the owner's balance of the given mint across all of
// their token accounts.
func (c *Client) TokenBalance(ctx context.Context, owner, mint string) (uint64, error) {
	ownerKey, err := solana.PublicKeyFromBase58(owner)
	if err != nil {
		return 0, fmt.Errorf("invalid owner %q: %w", owner, err)
	}
	mintKey, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return 0, fmt.Errorf("invalid mint %q: %w", mint, err)
	}

	var out *rpc.GetTokenAccountsResult
	err = c.withRetry(ctx, "getTokenAccountsByOwner", func() error {
		var err error
		out, err = c.rpc.GetTokenAccountsByOwner(ctx, ownerKey,
			&rpc.GetTokenAccountsConfig{Mint: &mintKey},
			&rpc.GetTokenAccountsOpts{Encoding: solana.EncodingBase64},
		)
		return err
	})
	if err != nil {
		return 0, err
	}

	var total uint64
	for _, acct := range out.Value {
		data := acct.Account.Data.GetBinary()
		// SPL token account layout: amount is a u64 LE at offset 64.
		if len(data) >= 72 {
			total += binary.LittleEndian.Uint64(data[64:72])
		}
	}
	return total, nil
}

func (c *Client) fetchAccountData(ctx context.Context, address string) ([]byte, error) {
	key, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, fmt.Errorf("invalid account address %q: %w", address, err)
	}

	var res *rpc.GetAccountInfoResult
	err = c.withRetry(ctx, "getAccountInfo", func() error {
		var err error
		res, err = c.rpc.GetAccountInfoWithOpts(ctx, key, &rpc.GetAccountInfoOpts{
			Encoding:   solana.EncodingBase64,
			Commitment: rpc.CommitmentConfirmed,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	if res == nil || res.Value == nil {
		return nil, ErrAccountNotFound
	}

	data := res.Value.Data.GetBinary()
	// Anchor accounts carry an 8-byte discriminator before the payload.
	if len(data) <= 8 {
		return nil, ErrAccountNotFound
	}
	return data[8:], nil
}

func (c *Client) decodeAccount(ctx context.Context, address string, out interface{}) error {
	data, err := c.fetchAccountData(ctx, address)
	if err != nil {
		return err
	}
	if err := bin.NewBorshDecoder(data).Decode(out); err != nil {
		return fmt.Errorf("decode account %s: %w", address, err)
	}
	return nil
}

// withRetry runs fn, retrying timeout-class failures with linear backoff.
func (c *Client) withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !isTimeout(err) {
			return err
		}
		if attempt == c.maxRetries {
			break
		}
		delay := time.Duration(attempt) * c.retryDelay
		logger.Warn("%s timed out (attempt %d/%d), retrying in %s", op, attempt, c.maxRetries, delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", op, c.maxRetries, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "timeout")
}
