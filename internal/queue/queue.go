// Package queue is the deduplicated priority job queue. One job may be
// outstanding per (location, equipment, logic-type) at any time; the dedup
// key is held for the full queued->active span and released on any terminal
// outcome or on the cleanup timeout, whichever comes first.
package queue

import (
	"context"
	"sync"
	"time"

	"hvac_scheduler/internal/events"
	"hvac_scheduler/internal/logger"
	"hvac_scheduler/internal/models"
	"hvac_scheduler/internal/repository"
)

// Queue tracks outstanding jobs in front of the broker and guarantees the
// dedup key is eventually released even if a completion signal is lost.
type Queue struct {
	broker     Broker
	eventRepo  repository.EventRepo
	hub        *events.Hub
	log        *logger.Logger
	cleanupTTL func(logicType string) time.Duration

	mu          sync.Mutex
	outstanding map[string]*time.Timer
}

// Config for the queue. CleanupTTL maps a logic type to its dedup-key
// time-to-live; nil falls back to DefaultCleanupTTL for everything.
type Config struct {
	CleanupTTL func(logicType string) time.Duration
}

const DefaultCleanupTTL = 3 * time.Minute

func New(broker Broker, eventRepo repository.EventRepo, hub *events.Hub, log *logger.Logger, cfg Config) *Queue {
	ttl := cfg.CleanupTTL
	if ttl == nil {
		ttl = func(string) time.Duration { return DefaultCleanupTTL }
	}
	return &Queue{
		broker:      broker,
		eventRepo:   eventRepo,
		hub:         hub,
		log:         log,
		cleanupTTL:  ttl,
		outstanding: make(map[string]*time.Timer),
	}
}

// Submit enqueues one control pass. Returns the job ID, or "" when a job
// with the same (location, equipment, logic-type) is already outstanding;
// a silent no-op, not an error.
func (q *Queue) Submit(ctx context.Context, equipmentID, locationID, logicType string, priority int, reason string) (string, error) {
	key := models.JobKey(locationID, equipmentID, logicType)

	q.mu.Lock()
	if _, exists := q.outstanding[key]; exists {
		q.mu.Unlock()
		return "", nil
	}
	// reserve the key before touching the broker so a concurrent submit
	// for the same equipment can't race past the check
	ttl := q.cleanupTTL(logicType)
	q.outstanding[key] = time.AfterFunc(ttl, func() { q.expire(key) })
	q.mu.Unlock()

	job := models.Job{
		ID:          key,
		EquipmentID: equipmentID,
		LocationID:  locationID,
		LogicType:   logicType,
		Priority:    priority,
		Reason:      reason,
		Status:      models.JobQueued,
		SubmittedAt: time.Now().UTC(),
	}

	added, err := q.broker.Enqueue(ctx, job)
	if err != nil {
		q.release(key)
		return "", err
	}
	if !added {
		// broker already holds this key (e.g. after a restart); keep the
		// cleanup timer so it still gets released
		q.log.Infow("job already outstanding in broker", "job_id", key)
		return "", nil
	}

	q.record(ctx, models.EventJobSubmitted, "job submitted: "+reason, job)
	return key, nil
}

// OnCompleted releases the dedup key after a successful run.
func (q *Queue) OnCompleted(ctx context.Context, jobID string) {
	q.resolve(ctx, jobID, models.EventJobCompleted, "job completed")
}

// OnFailed releases the dedup key after a failed run. Failures are logged,
// not retried here; retry belongs to the runner's execution contract.
func (q *Queue) OnFailed(ctx context.Context, jobID string, execErr error) {
	msg := "job failed"
	if execErr != nil {
		msg = "job failed: " + execErr.Error()
		q.log.Warnw("job failed", "job_id", jobID, "err", execErr)
	}
	q.resolve(ctx, jobID, models.EventJobFailed, msg)
}

// ListWaiting returns queued jobs in dispatch order.
func (q *Queue) ListWaiting(ctx context.Context) ([]models.Job, error) {
	return q.broker.ListWaiting(ctx)
}

// ListActive returns jobs currently executing.
func (q *Queue) ListActive(ctx context.Context) ([]models.Job, error) {
	return q.broker.ListActive(ctx)
}

// Outstanding reports whether the dedup key for the tuple is held.
func (q *Queue) Outstanding(locationID, equipmentID, logicType string) bool {
	key := models.JobKey(locationID, equipmentID, logicType)
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.outstanding[key]
	return ok
}

// resolve is the single terminal transition: every completion, failure, and
// timeout funnels through here so the key release and bookkeeping cannot
// diverge between paths.
func (q *Queue) resolve(ctx context.Context, jobID, eventType, message string) {
	if !q.release(jobID) {
		// key already expired or never tracked; still scrub the broker
		_ = q.broker.Discard(ctx, jobID)
		return
	}
	if err := q.broker.Discard(ctx, jobID); err != nil {
		q.log.Warnw("broker discard failed", "job_id", jobID, "err", err)
	}
	q.record(ctx, eventType, message, models.Job{ID: jobID})
}

// expire fires when a job's cleanup TTL lapses without a terminal signal.
// This is a coarse safety valve bounding "equipment stuck un-schedulable".
func (q *Queue) expire(key string) {
	if !q.release(key) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := q.broker.Discard(ctx, key); err != nil {
		q.log.Warnw("broker discard on timeout failed", "job_id", key, "err", err)
	}
	q.log.Warnw("job cleanup timeout; dedup key released", "job_id", key)
	q.record(ctx, models.EventJobTimeout, "job timed out waiting for completion", models.Job{ID: key})
}

// release stops the cleanup timer and frees the key. Returns false if the
// key was not held.
func (q *Queue) release(key string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	timer, ok := q.outstanding[key]
	if !ok {
		return false
	}
	timer.Stop()
	delete(q.outstanding, key)
	return true
}

func (q *Queue) record(ctx context.Context, eventType, message string, job models.Job) {
	if q.eventRepo != nil {
		if err := q.eventRepo.Append(ctx, models.EngineEvent{
			Type:        eventType,
			Description: message,
			Metadata: map[string]any{
				"job_id":       job.ID,
				"equipment_id": job.EquipmentID,
				"priority":     job.Priority,
			},
		}); err != nil {
			q.log.Warnw("event log append failed", "type", eventType, "err", err)
		}
	}
	if q.hub != nil {
		q.hub.Publish(events.Event{Type: eventType, Data: job})
	}
}
