package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/odyssey-ledger/internal/jobs"
)

// OrphanCounter counts an entity's invalid journals older than cutoff.
type OrphanCounter interface {
	EntityLister
	OrphanedJournals(ctx context.Context, entity uuid.UUID, cutoff time.Time) (int64, error)
}

// OrphanScanJob reports journals whose posting never completed. It does not
// repair them.
type OrphanScanJob struct {
	Ledger  OrphanCounter
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewOrphanScanJob initialises the orphan scan handler.
func NewOrphanScanJob(l OrphanCounter, logger *slog.Logger, metrics *jobmetrics.Metrics) *OrphanScanJob {
	return &OrphanScanJob{
		Ledger:  l,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the orphan scan.
func (j *OrphanScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Ledger == nil {
		return errors.New("orphan scan: handler not configured")
	}
	var payload OrphanScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskOrphanScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	cutoff := j.now().Add(-payload.OlderThan())
	logger := j.logger().With(slog.Time("cutoff", cutoff))

	entities, err := j.Ledger.Entities(ctx)
	if err != nil {
		resultErr = err
		logger.Error("load entities", slog.Any("error", err))
		return resultErr
	}

	var total int64
	for _, e := range entities {
		n, err := j.Ledger.OrphanedJournals(ctx, e.ID, cutoff)
		if err != nil {
			resultErr = err
			logger.Error("count orphaned journals", slog.String("entity_id", e.ID.String()), slog.Any("error", err))
			return resultErr
		}
		j.metrics().SetOrphans(e.ID.String(), n)
		if n > 0 {
			logger.Warn("orphaned journals found",
				slog.String("entity_id", e.ID.String()),
				slog.String("entity", e.Name),
				slog.Int64("count", n),
			)
		}
		total += n
	}

	logger.Info("completed orphan scan", slog.Int("entities", len(entities)), slog.Int64("orphans", total))
	return resultErr
}

func (j *OrphanScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskOrphanScan))
	}
	return slog.Default().With(slog.String("job", TaskOrphanScan))
}

func (j *OrphanScanJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *OrphanScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
