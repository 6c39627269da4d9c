package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const balanceKeyPrefix = "ledger:balances"

// BalanceSource computes balances from the store.
type BalanceSource interface {
	AllAccountAmounts(ctx context.Context, entity uuid.UUID) (Balances, error)
}

// BalanceCache keeps per-entity balances in Redis under a versioned key.
// Bumping the entity version after a post makes older entries unreachable.
type BalanceCache struct {
	source BalanceSource
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

// NewBalanceCache wraps source. A nil client disables caching.
func NewBalanceCache(source BalanceSource, client *redis.Client, ttl time.Duration, logger *slog.Logger) *BalanceCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &BalanceCache{source: source, client: client, ttl: ttl, logger: logger}
}

func versionKey(entity uuid.UUID) string {
	return fmt.Sprintf("%s:%s:version", balanceKeyPrefix, entity)
}

func balanceKey(entity uuid.UUID, version int64) string {
	return fmt.Sprintf("%s:%s:%d", balanceKeyPrefix, entity, version)
}

// Version returns the entity's cache version, initialising it when missing.
func (c *BalanceCache) Version(ctx context.Context, entity uuid.UUID) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, versionKey(entity)).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, versionKey(entity), 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, versionKey(entity)).Int64()
	}
	return ver, err
}

// AllAccountAmounts serves balances from Redis, computing and storing them on
// a miss. Concurrent misses for the same key share one computation. Redis
// failures fall back to the source.
func (c *BalanceCache) AllAccountAmounts(ctx context.Context, entity uuid.UUID) (Balances, error) {
	if c.client == nil {
		return c.source.AllAccountAmounts(ctx, entity)
	}
	ver, err := c.Version(ctx, entity)
	if err != nil {
		c.logger.WarnContext(ctx, "balance cache unavailable", slog.Any("error", err))
		return c.source.AllAccountAmounts(ctx, entity)
	}
	key := balanceKey(entity, ver)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var out Balances
		if err := json.Unmarshal(payload, &out); err == nil {
			return out, nil
		}
		c.logger.WarnContext(ctx, "balance cache entry unreadable", slog.String("key", key))
	} else if !errors.Is(err, redis.Nil) {
		c.logger.WarnContext(ctx, "balance cache read failed", slog.Any("error", err))
		return c.source.AllAccountAmounts(ctx, entity)
	}

	resultChan := c.group.DoChan(key, func() (interface{}, error) {
		return c.fill(ctx, entity, key)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Balances), nil
	}
}

func (c *BalanceCache) fill(ctx context.Context, entity uuid.UUID, key string) (Balances, error) {
	balances, err := c.source.AllAccountAmounts(ctx, entity)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(balances)
	if err != nil {
		return nil, err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "balance cache write failed", slog.Any("error", err))
	}
	return balances, nil
}

// Warm recomputes and stores the entity's balances under the current version.
func (c *BalanceCache) Warm(ctx context.Context, entity uuid.UUID) (Balances, error) {
	if c.client == nil {
		return c.source.AllAccountAmounts(ctx, entity)
	}
	ver, err := c.Version(ctx, entity)
	if err != nil {
		return nil, err
	}
	return c.fill(ctx, entity, balanceKey(entity, ver))
}

// Invalidate bumps the entity's version so the next read recomputes.
func (c *BalanceCache) Invalidate(ctx context.Context, entity uuid.UUID) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, versionKey(entity)).Err()
}
