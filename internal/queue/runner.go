package queue

import (
	"context"
	"time"

	"hvac_scheduler/internal/logger"
	"hvac_scheduler/internal/models"
)

// Executor runs one approved control pass. The control algorithms behind
// it are opaque to the scheduler.
type Executor interface {
	Execute(ctx context.Context, job models.Job) error
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, job models.Job) error

func (f ExecutorFunc) Execute(ctx context.Context, job models.Job) error { return f(ctx, job) }

// RetryPolicy bounds execution retries with exponential delay.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration // delay before attempt 2; doubles each retry
}

// DefaultRetryPolicy: three attempts, 2s/4s between them.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, Backoff: 2 * time.Second}

// Runner drains the broker in priority order and drives jobs through the
// executor with bounded retry.
type Runner struct {
	queue    *Queue
	executor Executor
	log      *logger.Logger
	policy   RetryPolicy
	poll     time.Duration
}

func NewRunner(q *Queue, executor Executor, log *logger.Logger, policy RetryPolicy, pollInterval time.Duration) *Runner {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &Runner{queue: q, executor: executor, log: log, policy: policy, poll: pollInterval}
}

// Run loops until ctx is canceled. Jobs execute one at a time per runner;
// start multiple runners for parallel dispatch.
func (r *Runner) Run(ctx context.Context) {
	t := time.NewTicker(r.poll)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.drain(ctx)
		}
	}
}

// drain pops and executes until the pending set is empty.
func (r *Runner) drain(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		job, err := r.queue.broker.Next(ctx)
		if err != nil {
			r.log.Warnw("broker next failed", "err", err)
			return
		}
		if job == nil {
			return
		}
		r.runJob(ctx, *job)
	}
}

func (r *Runner) runJob(ctx context.Context, job models.Job) {
	var lastErr error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		job.Attempts = attempt
		lastErr = r.executor.Execute(ctx, job)
		if lastErr == nil {
			r.queue.OnCompleted(ctx, job.ID)
			return
		}
		r.log.Warnw("job attempt failed",
			"job_id", job.ID, "attempt", attempt, "err", lastErr)

		if attempt == r.policy.MaxAttempts {
			break
		}
		delay := r.policy.Backoff << (attempt - 1)
		select {
		case <-ctx.Done():
			r.queue.OnFailed(ctx, job.ID, ctx.Err())
			return
		case <-time.After(delay):
		}
	}
	r.queue.OnFailed(ctx, job.ID, lastErr)
}
