// Package idempotency records which client request keys were already
// processed and what they produced.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
)

const (
	keyPrefix = "ledger:idempotency"
	pending   = "\x00pending"
)

// ErrInFlight indicates the key is claimed by a request that has not finished.
var ErrInFlight = fmt.Errorf("idempotency: request with this key still in progress: %w", httpx.ErrDuplicate)

// Store persists processed keys in Redis.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore constructs the store. A nil client makes every claim succeed.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{client: client, ttl: ttl}
}

func redisKey(scope, key string) string {
	return keyPrefix + ":" + scope + ":" + key
}

// Claim reserves key within scope. When the key already completed, its result
// is returned and claimed is false.
func (s *Store) Claim(ctx context.Context, scope, key string) (result string, claimed bool, err error) {
	if s == nil || s.client == nil {
		return "", true, nil
	}
	if key == "" {
		return "", false, errors.New("idempotency: key required")
	}
	k := redisKey(scope, key)
	ok, err := s.client.SetNX(ctx, k, pending, s.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("idempotency: claim: %w", err)
	}
	if ok {
		return "", true, nil
	}
	v, err := s.client.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		return s.Claim(ctx, scope, key)
	}
	if err != nil {
		return "", false, fmt.Errorf("idempotency: read: %w", err)
	}
	if v == pending {
		return "", false, ErrInFlight
	}
	return v, false, nil
}

// Complete stores the result of a claimed key.
func (s *Store) Complete(ctx context.Context, scope, key, result string) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Set(ctx, redisKey(scope, key), result, s.ttl).Err()
}

// Release drops a claim so the request can be retried.
func (s *Store) Release(ctx context.Context, scope, key string) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Del(ctx, redisKey(scope, key)).Err()
}
