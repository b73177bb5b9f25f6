package service

import (
	"context"
	"sync"
	"time"

	"hvac_scheduler/internal/logger"
	"hvac_scheduler/internal/models"
	"hvac_scheduler/internal/queue"
)

// Scheduler drives the per-type tick loops. Each equipment type gets its
// own fixed-interval ticker; within one tick, equipment evaluations run
// in their own goroutines and are joined before the next tick of the
// same type may start.
type Scheduler struct {
	registry *Registry
	engine   *DecisionEngine
	health   *HealthMonitor
	states   *StateStore
	jobs     *queue.Queue
	log      *logger.Logger
}

func NewScheduler(
	registry *Registry,
	engine *DecisionEngine,
	health *HealthMonitor,
	states *StateStore,
	jobs *queue.Queue,
	log *logger.Logger,
) *Scheduler {
	return &Scheduler{
		registry: registry,
		engine:   engine,
		health:   health,
		states:   states,
		jobs:     jobs,
		log:      log,
	}
}

// Run starts one ticker per equipment type and blocks until ctx is
// canceled.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for baseType, fleet := range s.registry.ByType() {
		profile := s.registry.ProfileFor(baseType)
		wg.Add(1)
		go func(baseType string, fleet []models.EquipmentConfig, interval time.Duration) {
			defer wg.Done()
			s.runTypeLoop(ctx, baseType, fleet, interval)
		}(baseType, fleet, profile.PollInterval)
	}
	wg.Wait()
}

func (s *Scheduler) runTypeLoop(ctx context.Context, baseType string, fleet []models.EquipmentConfig, interval time.Duration) {
	s.log.Infow("type scheduler started",
		"type", baseType, "equipment", len(fleet), "interval", interval)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.tick(ctx, fleet)
		}
	}
}

// tick evaluates the fleet concurrently and joins before returning, so
// one type's tick work completes before its next tick logically starts.
func (s *Scheduler) tick(ctx context.Context, fleet []models.EquipmentConfig) {
	var wg sync.WaitGroup
	for _, eq := range fleet {
		wg.Add(1)
		go func(eq models.EquipmentConfig) {
			defer wg.Done()
			s.evaluate(ctx, eq)
		}(eq)
	}
	wg.Wait()
}

func (s *Scheduler) evaluate(ctx context.Context, eq models.EquipmentConfig) {
	verdict := s.engine.Decide(ctx, eq)

	if st, ok := s.states.Snapshot(eq.ID); ok && st.LastSnapshot != nil {
		s.health.Check(ctx, eq, *st.LastSnapshot)
	}

	if !verdict.Process {
		s.log.Debugw("pass rejected",
			"equipment_id", eq.ID, "reason", verdict.Reason)
		return
	}

	jobID, err := s.jobs.Submit(ctx, eq.ID, eq.LocationID, eq.Type, verdict.Priority, verdict.Reason)
	if err != nil {
		s.log.Warnw("job submit failed",
			"equipment_id", eq.ID, "err", err)
		return
	}
	if jobID == "" {
		// duplicate while a job is outstanding; expected, not an error
		return
	}
	s.log.Infow("control pass queued",
		"job_id", jobID, "equipment_id", eq.ID,
		"priority", verdict.Priority, "reason", verdict.Reason)
}
