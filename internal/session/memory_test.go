package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreTrimsToMaxLen(t *testing.T) {
	s := NewMemoryStore(Options{MaxLen: 5, TTL: time.Hour})
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, s.Append(ctx, "t1", "user", fmt.Sprintf("m%d", i)))
	}

	msgs, err := s.Messages(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, msgs, 5)
	assert.Equal(t, "m5", msgs[0].Content)
	assert.Equal(t, "m9", msgs[4].Content)
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore(Options{MaxLen: 5, TTL: time.Minute})
	ctx := context.Background()

	now := time.Now()
	s.now = func() time.Time { return now }
	require.NoError(t, s.Append(ctx, "t1", "user", "hello"))

	s.now = func() time.Time { return now.Add(2 * time.Minute) }
	msgs, err := s.Messages(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestMemoryStoreReset(t *testing.T) {
	s := NewMemoryStore(Options{})
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "t1", "user", "hello"))
	require.NoError(t, s.Reset(ctx, "t1"))

	msgs, err := s.Messages(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestMemoryStoreThreadIsolation(t *testing.T) {
	s := NewMemoryStore(Options{})
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "a", "user", "one"))
	require.NoError(t, s.Append(ctx, "b", "user", "two"))

	msgs, err := s.Messages(ctx, "a")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "one", msgs[0].Content)
}
