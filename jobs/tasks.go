package jobs

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskBalancesWarm recomputes cached balances.
	TaskBalancesWarm = "ledger:balances_warm"
	// TaskOrphanScan counts journals left invalid by interrupted posts.
	TaskOrphanScan = "ledger:orphan_scan"
)

// DefaultOrphanAge is how old an invalid journal must be before the scan
// reports it.
const DefaultOrphanAge = 15 * time.Minute

// BalancesWarmPayload lists the entities to warm. Empty means all entities.
type BalancesWarmPayload struct {
	EntityIDs []uuid.UUID `json:"entity_ids,omitempty"`
}

// OrphanScanPayload configures the orphan scan.
type OrphanScanPayload struct {
	OlderThanSeconds int64 `json:"older_than_seconds,omitempty"`
}

// OlderThan returns the configured age, DefaultOrphanAge when unset.
func (p OrphanScanPayload) OlderThan() time.Duration {
	if p.OlderThanSeconds <= 0 {
		return DefaultOrphanAge
	}
	return time.Duration(p.OlderThanSeconds) * time.Second
}

// NewBalancesWarmTask constructs a balance warm-up task.
func NewBalancesWarmTask(entities ...uuid.UUID) (*asynq.Task, error) {
	data, err := json.Marshal(BalancesWarmPayload{EntityIDs: entities})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBalancesWarm, data), nil
}

// NewOrphanScanTask constructs an orphan scan task.
func NewOrphanScanTask(olderThan time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(OrphanScanPayload{OlderThanSeconds: int64(olderThan / time.Second)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrphanScan, data), nil
}
