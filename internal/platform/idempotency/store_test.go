package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
)

func newStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, time.Hour), srv
}

func TestClaimCompleteReplay(t *testing.T) {
	store, srv := newStore(t)
	ctx := context.Background()

	_, claimed, err := store.Claim(ctx, "user:acme", "k1")
	require.NoError(t, err)
	require.True(t, claimed)

	_, _, err = store.Claim(ctx, "user:acme", "k1")
	require.ErrorIs(t, err, ErrInFlight)
	require.ErrorIs(t, err, httpx.ErrDuplicate)

	require.NoError(t, store.Complete(ctx, "user:acme", "k1", "journal-7"))
	result, claimed, err := store.Claim(ctx, "user:acme", "k1")
	require.NoError(t, err)
	require.False(t, claimed)
	require.Equal(t, "journal-7", result)
	require.Equal(t, time.Hour, srv.TTL("ledger:idempotency:user:acme:k1"))

	_, claimed, err = store.Claim(ctx, "user:globex", "k1")
	require.NoError(t, err)
	require.True(t, claimed)
}

func TestRelease(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	_, claimed, err := store.Claim(ctx, "s", "k")
	require.NoError(t, err)
	require.True(t, claimed)
	require.NoError(t, store.Release(ctx, "s", "k"))

	_, claimed, err = store.Claim(ctx, "s", "k")
	require.NoError(t, err)
	require.True(t, claimed)
}

func TestDisabledStore(t *testing.T) {
	store := NewStore(nil, 0)
	_, claimed, err := store.Claim(context.Background(), "s", "k")
	require.NoError(t, err)
	require.True(t, claimed)
	require.NoError(t, store.Complete(context.Background(), "s", "k", "x"))
	require.NoError(t, store.Release(context.Background(), "s", "k"))
}

func TestClaimRedisDown(t *testing.T) {
	store, srv := newStore(t)
	srv.Close()
	_, _, err := store.Claim(context.Background(), "s", "k")
	require.Error(t, err)
}
