package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/odyssey-ledger/internal/jobs"
	"github.com/odyssey-erp/odyssey-ledger/internal/ledger"
	"github.com/odyssey-erp/odyssey-ledger/internal/models"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// EntityLister lists every entity.
type EntityLister interface {
	Entities(ctx context.Context) ([]models.Entity, error)
}

// EntitySource lists every entity and resolves entities by id.
type EntitySource interface {
	EntityLister
	EntitiesByID(ctx context.Context, ids []uuid.UUID) ([]models.Entity, error)
}

// BalanceWarmer recomputes and stores an entity's balances.
type BalanceWarmer interface {
	Warm(ctx context.Context, entity uuid.UUID) (ledger.Balances, error)
}

// BalancesWarmJob pre-populates the balance cache.
type BalancesWarmJob struct {
	Entities EntitySource
	Cache    BalanceWarmer
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewBalancesWarmJob wires dependencies for the warm-up handler.
func NewBalancesWarmJob(entities EntitySource, cache BalanceWarmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *BalancesWarmJob {
	return &BalancesWarmJob{Entities: entities, Cache: cache, Logger: logger, Metrics: metrics}
}

// Handle processes balance warm-up tasks.
func (j *BalancesWarmJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Cache == nil {
		return errors.New("balances warm: handler not configured")
	}
	var payload BalancesWarmPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskBalancesWarm)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	start := time.Now()

	var (
		targets []models.Entity
		err     error
	)
	if len(payload.EntityIDs) == 0 {
		targets, err = j.Entities.Entities(ctx)
	} else {
		targets, err = j.Entities.EntitiesByID(ctx, payload.EntityIDs)
	}
	if errors.Is(err, ledger.ErrDomain) {
		resultErr = fmt.Errorf("balances warm: %v: %w", err, asynq.SkipRetry)
		logger.Error("resolve entities", slog.Any("error", err))
		return resultErr
	}
	if err != nil {
		resultErr = err
		logger.Error("load entities", slog.Any("error", err))
		return resultErr
	}
	if len(targets) == 0 {
		logger.Info("no entities to warm")
		return resultErr
	}

	for _, entity := range targets {
		balances, err := j.Cache.Warm(ctx, entity.ID)
		if err != nil {
			resultErr = err
			logger.Error("warm entity", slog.String("entity_id", entity.ID.String()), slog.Any("error", err))
			return resultErr
		}
		logger.Debug("warmed entity",
			slog.String("entity_id", entity.ID.String()),
			slog.String("entity", entity.Name),
			slog.Int("accounts", len(balances)),
		)
	}

	logger.Info("completed balance warm-up", slog.Int("entities", len(targets)), slog.Duration("duration", time.Since(start)))
	return resultErr
}

func (j *BalancesWarmJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskBalancesWarm))
	}
	return slog.Default().With(slog.String("job", TaskBalancesWarm))
}

func (j *BalancesWarmJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
