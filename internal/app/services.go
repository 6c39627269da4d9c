package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/odyssey-ledger/internal/fetch"
	"github.com/odyssey-erp/odyssey-ledger/internal/insert"
	"github.com/odyssey-erp/odyssey-ledger/internal/ledger"
	"github.com/odyssey-erp/odyssey-ledger/internal/observability"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
	"github.com/odyssey-erp/odyssey-ledger/internal/rbac"
)

// Services holds the wired store, engine and authorization layer shared by
// the server, the worker and the CLI.
type Services struct {
	Store    *db.Store
	Fetch    *fetch.Service
	Insert   *insert.Service
	Engine   *ledger.Engine
	RBAC     *rbac.Service
	Redis    *redis.Client
	Balances *ledger.BalanceCache
}

// OpenServices connects to PostgreSQL and Redis and wires the services. A
// Redis outage is logged and leaves the balance cache reading through to the
// store. metrics may be nil.
func OpenServices(ctx context.Context, cfg *Config, logger *slog.Logger, metrics *observability.Metrics) (*Services, error) {
	pool, err := db.Open(ctx, cfg.Database())
	if err != nil {
		return nil, err
	}
	var observer db.StatementObserver
	if metrics != nil {
		observer = metrics
	}
	svc := NewServices(db.NewStore(pool, observer), cfg, logger)

	client, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, balances read through", slog.Any("error", err))
	}
	svc.Redis = client
	svc.Balances = ledger.NewBalanceCache(svc.Engine, client, cfg.BalanceCacheTTL, logger)
	return svc, nil
}

// NewServices wires the services over store without touching Redis.
func NewServices(store *db.Store, cfg *Config, logger *slog.Logger) *Services {
	ex := store.Executor()
	f := fetch.NewService(ex, logger)
	ins := insert.NewService(ex, logger)

	opts := []ledger.Option{ledger.WithLogger(logger)}
	if cfg != nil && cfg.AtomicPosting {
		opts = append(opts, ledger.WithAtomicPosting(store))
	}
	engine := ledger.NewEngine(f, ins, opts...)
	return &Services{
		Store:    store,
		Fetch:    f,
		Insert:   ins,
		Engine:   engine,
		RBAC:     rbac.NewService(f, ins),
		Balances: ledger.NewBalanceCache(engine, nil, 0, logger),
	}
}

// Close releases the pool and the Redis client.
func (s *Services) Close() error {
	var firstErr error
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			firstErr = fmt.Errorf("app: close redis: %w", err)
		}
	}
	if err := s.Store.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("app: close store: %w", err)
	}
	return firstErr
}
