package chain

import (
	"context"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// On-chain program account layouts, Borsh-encoded after the Anchor
// discriminator. Field order must match the program's IDL.

type ReleaseAccount struct {
	Authority        solana.PublicKey
	ReleaseMint      solana.PublicKey
	PaymentMint      solana.PublicKey
	TotalSupply      uint64
	RemainingSupply  uint64
	Price            uint64
	ResalePercentage uint64
	ReleaseDatetime  int64
	URI              [200]uint8
}

func (a *ReleaseAccount) URIString() string {
	return fixedString(a.URI[:])
}

type HubAccount struct {
	Authority   solana.PublicKey
	HubSigner   solana.PublicKey
	Handle      [100]uint8
	URI         [200]uint8
	HubDatetime int64
}

func (a *HubAccount) HandleString() string {
	return fixedString(a.Handle[:])
}

func (a *HubAccount) URIString() string {
	return fixedString(a.URI[:])
}

type PostAccount struct {
	Author    solana.PublicKey
	CreatedAt int64
	Slug      [100]uint8
	URI       [200]uint8
}

func (a *PostAccount) SlugString() string {
	return fixedString(a.Slug[:])
}

func (a *PostAccount) URIString() string {
	return fixedString(a.URI[:])
}

// HubContentAccount is the derived membership account relating a hub to a
// child (release or post).
type HubContentAccount struct {
	AddedBy             solana.PublicKey
	Hub                 solana.PublicKey
	Child               solana.PublicKey
	ContentType         uint8 // 0 = release, 1 = post
	Datetime            int64
	Visible             bool
	PublishedThroughHub bool
}

// Release fetches and decodes the release account at address.
func (c *Client) Release(ctx context.Context, address string) (*ReleaseAccount, error) {
	var acct ReleaseAccount
	if err := c.decodeAccount(ctx, address, &acct); err != nil {
		return nil, err
	}
	return &acct, nil
}

// Hub fetches and decodes the hub account at address.
func (c *Client) Hub(ctx context.Context, address string) (*HubAccount, error) {
	var acct HubAccount
	if err := c.decodeAccount(ctx, address, &acct); err != nil {
		return nil, err
	}
	return &acct, nil
}

// Post fetches and decodes the post account at address.
func (c *Client) Post(ctx context.Context, address string) (*PostAccount, error) {
	var acct PostAccount
	if err := c.decodeAccount(ctx, address, &acct); err != nil {
		return nil, err
	}
	return &acct, nil
}

// HubContent fetches the derived hub-content account for (hub, child).
func (c *Client) HubContent(ctx context.Context, hub, child string) (*HubContentAccount, error) {
	address, err := c.HubContentAddress(hub, child)
	if err != nil {
		return nil, err
	}
	var acct HubContentAccount
	if err := c.decodeAccount(ctx, address, &acct); err != nil {
		return nil, err
	}
	return &acct, nil
}

// HubContentAddress derives the program address of the hub-content account
// relating hub and child. This is the join row's natural key.
func (c *Client) HubContentAddress(hub, child string) (string, error) {
	hubKey, err := solana.PublicKeyFromBase58(hub)
	if err != nil {
		return "", fmt.Errorf("invalid hub address %q: %w", hub, err)
	}
	childKey, err := solana.PublicKeyFromBase58(child)
	if err != nil {
		return "", fmt.Errorf("invalid child address %q: %w", child, err)
	}

	seeds := [][]byte{
		[]byte("nina-hub-content"),
		hubKey.Bytes(),
		childKey.Bytes(),
	}
	address, _, err := solana.FindProgramAddress(seeds, c.programID)
	if err != nil {
		return "", fmt.Errorf("derive hub content address: %w", err)
	}
	return address.String(), nil
}

// HubCollaboratorAddress derives the program address of the collaborator
// account relating hub and wallet.
func (c *Client) HubCollaboratorAddress(hub, account string) (string, error) {
	hubKey, err := solana.PublicKeyFromBase58(hub)
	if err != nil {
		return "", fmt.Errorf("invalid hub address %q: %w", hub, err)
	}
	accountKey, err := solana.PublicKeyFromBase58(account)
	if err != nil {
		return "", fmt.Errorf("invalid account address %q: %w", account, err)
	}

	seeds := [][]byte{
		[]byte("nina-hub-collaborator"),
		hubKey.Bytes(),
		accountKey.Bytes(),
	}
	address, _, err := solana.FindProgramAddress(seeds, c.programID)
	if err != nil {
		return "", fmt.Errorf("derive hub collaborator address: %w", err)
	}
	return address.String(), nil
}

func fixedString(b []byte) string {
	return strings.TrimRight(string(b), "\x00 ")
}
