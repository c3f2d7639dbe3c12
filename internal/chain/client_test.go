package chain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nina-protocol/nina-indexer-sub000/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_RejectsInvalidProgramAddress(t *testing.T) {
	_, err := Init(config.ChainConfig{
		RpcUrl:         "http://localhost:8899",
		ProgramAddress: "not-base58!",
	})
	assert.Error(t, err)
}

func TestInit_AppliesRetryDefaults(t *testing.T) {
	c, err := Init(config.ChainConfig{
		RpcUrl:         "http://localhost:8899",
		ProgramAddress: "ninaN2tm9vUkxoanvGcNApEeWiidLMM2TPxGHsaTvW",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, c.maxRetries)
	assert.Equal(t, 500*time.Millisecond, c.retryDelay)
	assert.Equal(t, "ninaN2tm9vUkxoanvGcNApEeWiidLMM2TPxGHsaTvW", c.ProgramID().String())
}

type fakeTimeoutErr struct{}

func (fakeTimeoutErr) Error() string   { return "dial tcp: i/o problem" }
func (fakeTimeoutErr) Timeout() bool   { return true }
func (fakeTimeoutErr) Temporary() bool { return true }

func TestIsTimeout(t *testing.T) {
	assert.True(t, isTimeout(context.DeadlineExceeded))
	assert.True(t, isTimeout(fakeTimeoutErr{}))
	assert.True(t, isTimeout(errors.New("rpc: request Timeout")))
	assert.False(t, isTimeout(errors.New("connection refused")))
	assert.False(t, isTimeout(ErrAccountNotFound))
}

func TestWithRetry_RetriesTimeoutsThenGivesUp(t *testing.T) {
	c := &Client{maxRetries: 3, retryDelay: time.Millisecond}

	calls := 0
	err := c.withRetry(context.Background(), "test op", func() error {
		calls++
		return fakeTimeoutErr{}
	})
	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_NonTimeoutFailsImmediately(t *testing.T) {
	c := &Client{maxRetries: 3, retryDelay: time.Millisecond}

	calls := 0
	sentinel := errors.New("bad request")
	err := c.withRetry(context.Background(), "test op", func() error {
		calls++
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_SucceedsAfterTransientTimeout(t *testing.T) {
	c := &Client{maxRetries: 3, retryDelay: time.Millisecond}

	calls := 0
	err := c.withRetry(context.Background(), "test op", func() error {
		calls++
		if calls == 1 {
			return fakeTimeoutErr{}
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}
