package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"hvac_scheduler/internal/models"
)

// Broker is the underlying queue. Job IDs are the composite dedup key, so
// the broker itself rejects a second submission for an outstanding key.
type Broker interface {
	// Enqueue adds a job to the pending set. Returns false if a job with
	// the same ID is already present (pending or active).
	Enqueue(ctx context.Context, job models.Job) (bool, error)
	// Next pops the highest-priority pending job and marks it active.
	// Returns nil when the queue is empty.
	Next(ctx context.Context) (*models.Job, error)
	// Discard drops a job from pending, active, and payload storage.
	Discard(ctx context.Context, jobID string) error
	ListWaiting(ctx context.Context) ([]models.Job, error)
	ListActive(ctx context.Context) ([]models.Job, error)
}

// Redis key suffixes under the configured prefix.
const (
	pendingSuffix = ":pending"
	activeSuffix  = ":active"
	payloadSuffix = ":payload"
)

// RedisBroker keeps the pending queue in a sorted set scored by
// (priority, submit time) and job payloads in a hash.
type RedisBroker struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisBroker(rdb *redis.Client, prefix string) *RedisBroker {
	if prefix == "" {
		prefix = "sched"
	}
	return &RedisBroker{rdb: rdb, prefix: prefix}
}

// score orders by priority first (higher pops first), then submit time
// (older pops first). ZPopMin takes the lowest score.
func score(priority int, submittedAt time.Time) float64 {
	return float64(-priority)*1e13 + float64(submittedAt.UnixMilli())
}

func (b *RedisBroker) Enqueue(ctx context.Context, job models.Job) (bool, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return false, fmt.Errorf("marshal job %s: %w", job.ID, err)
	}
	set, err := b.rdb.HSetNX(ctx, b.prefix+payloadSuffix, job.ID, payload).Result()
	if err != nil {
		return false, fmt.Errorf("store job payload %s: %w", job.ID, err)
	}
	if !set {
		// same key already outstanding: duplicate submission, not an error
		return false, nil
	}
	if err := b.rdb.ZAddNX(ctx, b.prefix+pendingSuffix, redis.Z{
		Score:  score(job.Priority, job.SubmittedAt),
		Member: job.ID,
	}).Err(); err != nil {
		return false, fmt.Errorf("enqueue job %s: %w", job.ID, err)
	}
	return true, nil
}

func (b *RedisBroker) Next(ctx context.Context) (*models.Job, error) {
	popped, err := b.rdb.ZPopMin(ctx, b.prefix+pendingSuffix, 1).Result()
	if err != nil {
		return nil, fmt.Errorf("pop pending job: %w", err)
	}
	if len(popped) == 0 {
		return nil, nil
	}
	jobID, _ := popped[0].Member.(string)
	job, err := b.loadPayload(ctx, jobID)
	if err != nil {
		return nil, err
	}
	job.Status = models.JobActive
	if err := b.storeActive(ctx, *job); err != nil {
		return nil, err
	}
	return job, nil
}

func (b *RedisBroker) Discard(ctx context.Context, jobID string) error {
	pipe := b.rdb.TxPipeline()
	pipe.ZRem(ctx, b.prefix+pendingSuffix, jobID)
	pipe.HDel(ctx, b.prefix+activeSuffix, jobID)
	pipe.HDel(ctx, b.prefix+payloadSuffix, jobID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("discard job %s: %w", jobID, err)
	}
	return nil
}

func (b *RedisBroker) ListWaiting(ctx context.Context) ([]models.Job, error) {
	ids, err := b.rdb.ZRange(ctx, b.prefix+pendingSuffix, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list waiting jobs: %w", err)
	}
	out := make([]models.Job, 0, len(ids))
	for _, id := range ids {
		job, err := b.loadPayload(ctx, id)
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, err
		}
		out = append(out, *job)
	}
	return out, nil
}

func (b *RedisBroker) ListActive(ctx context.Context) ([]models.Job, error) {
	raw, err := b.rdb.HVals(ctx, b.prefix+activeSuffix).Result()
	if err != nil {
		return nil, fmt.Errorf("list active jobs: %w", err)
	}
	out := make([]models.Job, 0, len(raw))
	for _, item := range raw {
		var job models.Job
		if err := json.Unmarshal([]byte(item), &job); err != nil {
			continue // skip rows a newer schema wrote
		}
		out = append(out, job)
	}
	return out, nil
}

func (b *RedisBroker) loadPayload(ctx context.Context, jobID string) (*models.Job, error) {
	raw, err := b.rdb.HGet(ctx, b.prefix+payloadSuffix, jobID).Result()
	if err != nil {
		return nil, fmt.Errorf("load job payload %s: %w", jobID, err)
	}
	var job models.Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return nil, fmt.Errorf("decode job payload %s: %w", jobID, err)
	}
	return &job, nil
}

func (b *RedisBroker) storeActive(ctx context.Context, job models.Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal active job %s: %w", job.ID, err)
	}
	if err := b.rdb.HSet(ctx, b.prefix+activeSuffix, job.ID, payload).Err(); err != nil {
		return fmt.Errorf("mark job active %s: %w", job.ID, err)
	}
	return nil
}
