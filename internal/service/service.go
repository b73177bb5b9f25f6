// Package service contains the scheduling and monitoring engine: the
// decision pipeline (gather, validate, safety, deviation, decide), the
// threshold monitor with outdoor-reset adjustment, and the alarm engine.
package service

import (
	"context"
	"time"

	"hvac_scheduler/internal/events"
	"hvac_scheduler/internal/logger"
	"hvac_scheduler/internal/metricstore"
	"hvac_scheduler/internal/notify"
	"hvac_scheduler/internal/queue"
	"hvac_scheduler/internal/repository"
)

// Options are the tunables main wires in from configuration.
type Options struct {
	WeatherURL        string
	MetricsLookback   time.Duration
	ThresholdInterval time.Duration
	EnergyInterval    time.Duration
	RateCeilings      RateCeilings
	Profiles          map[string]TypeProfile
}

// Service aggregates the engine's components behind one constructor.
type Service struct {
	Registry  *Registry
	States    *StateStore
	Validator *Validator
	Gatherer  *Gatherer
	Safety    *SafetyEvaluator
	Outdoor   *OutdoorSource
	Engine    *DecisionEngine
	Health    *HealthMonitor
	Alarms    *AlarmEngine
	Monitor   *ThresholdMonitor
	Energy    *EnergyMonitor
	Scheduler *Scheduler
	Queue     *queue.Queue
	Repo      *repository.Repository
	Hub       *events.Hub
}

func New(
	repo *repository.Repository,
	metrics metricstore.Store,
	broker queue.Broker,
	notifier notify.Notifier,
	hub *events.Hub,
	log *logger.Logger,
	opts Options,
) *Service {
	registry := NewRegistry(opts.Profiles)
	states := NewStateStore()
	validator := NewValidator(states, opts.RateCeilings)
	gatherer := NewGatherer(metrics, log, opts.MetricsLookback)
	safety := NewSafetyEvaluator(log)
	outdoor := NewOutdoorSource(opts.WeatherURL, metrics, log)

	jobs := queue.New(broker, repo.Events, hub, log, queue.Config{
		CleanupTTL: func(logicType string) time.Duration {
			return registry.ProfileFor(logicType).CleanupTTL
		},
	})

	engine := NewDecisionEngine(registry, states, gatherer, safety, outdoor, repo.Commands, log)
	alarms := NewAlarmEngine(repo.Alarms, repo.Technicians, repo.Events, notifier, hub, log)
	health := NewHealthMonitor(alarms)
	monitor := NewThresholdMonitor(registry, repo.Thresholds, gatherer, validator, outdoor, alarms, log, opts.ThresholdInterval)
	energy := NewEnergyMonitor(registry, states, alarms, log, opts.EnergyInterval)
	scheduler := NewScheduler(registry, engine, health, states, jobs, log)

	return &Service{
		Registry:  registry,
		States:    states,
		Validator: validator,
		Gatherer:  gatherer,
		Safety:    safety,
		Outdoor:   outdoor,
		Engine:    engine,
		Health:    health,
		Alarms:    alarms,
		Monitor:   monitor,
		Energy:    energy,
		Scheduler: scheduler,
		Queue:     jobs,
		Repo:      repo,
		Hub:       hub,
	}
}

// Start loads the registry and launches the schedule and monitor loops.
func (s *Service) Start(ctx context.Context) error {
	if err := s.Registry.Load(ctx, s.Repo.Equipment); err != nil {
		return err
	}
	go s.Scheduler.Run(ctx)
	go s.Monitor.Run(ctx)
	go s.Energy.Run(ctx)
	return nil
}
