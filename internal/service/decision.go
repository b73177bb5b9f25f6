package service

import (
	"context"
	"fmt"
	"time"

	"hvac_scheduler/internal/logger"
	"hvac_scheduler/internal/models"
	"hvac_scheduler/internal/repository"
)

// Decision priorities, highest wins.
const (
	PrioritySafety    = 20
	PriorityGeoTight  = 16
	PriorityDOASTight = 15
	PriorityOutdoor   = 12
	PriorityCommand   = 10
	PriorityDeviation = 5
	PriorityStaleness = 1
)

// commandCheckInterval bounds how often the command store is consulted
// per equipment.
const commandCheckInterval = 30 * time.Second

// commandFreshWindow: a command issued inside this window forces a pass.
const commandFreshWindow = 5 * time.Minute

// Verdict is the decision engine's output for one equipment on one tick.
type Verdict struct {
	Process  bool
	Priority int
	Reason   string
}

// DecisionEngine orchestrates safety, deviation, command-override, and
// staleness checks into one prioritized verdict per equipment per tick.
type DecisionEngine struct {
	registry *Registry
	states   *StateStore
	gatherer *Gatherer
	safety   *SafetyEvaluator
	outdoor  *OutdoorSource
	commands repository.CommandRepo
	log      *logger.Logger
	now      func() time.Time
}

func NewDecisionEngine(
	registry *Registry,
	states *StateStore,
	gatherer *Gatherer,
	safety *SafetyEvaluator,
	outdoor *OutdoorSource,
	commands repository.CommandRepo,
	log *logger.Logger,
) *DecisionEngine {
	return &DecisionEngine{
		registry: registry,
		states:   states,
		gatherer: gatherer,
		safety:   safety,
		outdoor:  outdoor,
		commands: commands,
		log:      log,
		now:      time.Now,
	}
}

// Decide evaluates one equipment. Rules are checked in descending
// priority so the highest-priority matching rule wins. Internal failure
// converts to "process now, low priority": doing work is the fail-safe
// direction for a scheduler.
func (d *DecisionEngine) Decide(ctx context.Context, eq models.EquipmentConfig) (v Verdict) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Errorw("decision evaluation panicked; forcing low-priority pass",
				"equipment_id", eq.ID, "panic", r)
			v = Verdict{Process: true, Priority: PriorityStaleness,
				Reason: fmt.Sprintf("evaluation error: %v", r)}
		}
	}()

	profile := d.registry.ProfileFor(eq.Type)
	snap := d.gatherer.Gather(ctx, eq)
	outdoor := d.outdoor.Get(ctx, eq.LocationID)
	st, hasState := d.states.Snapshot(eq.ID)

	v = d.evaluate(ctx, eq, profile, snap, outdoor, st, hasState)

	d.states.Update(eq.ID, func(s *models.EquipmentRuntimeState) {
		s.LastSnapshot = &snap
		s.LastOutdoorTemp = outdoor
		s.HasOutdoor = true
		if v.Process {
			s.LastRun = d.now()
		}
	})
	return v
}

func (d *DecisionEngine) evaluate(ctx context.Context, eq models.EquipmentConfig, profile TypeProfile, snap models.MetricsSnapshot, outdoor float64, st models.EquipmentRuntimeState, hasState bool) Verdict {
	if res := d.safety.Evaluate(eq, snap); res.Violation {
		return Verdict{Process: true, Priority: PrioritySafety, Reason: res.Reason}
	}

	if verdict, ok := d.tightDeviation(eq, profile, snap); ok {
		return verdict
	}

	if hasState {
		if res := DetectOutdoorShift(st, outdoor); res.NeedsAttention {
			return Verdict{Process: true, Priority: PriorityOutdoor, Reason: res.Reason}
		}
	}

	if d.hasRecentCommand(ctx, eq.ID) {
		return Verdict{Process: true, Priority: PriorityCommand, Reason: "recent operator command"}
	}

	if res := DetectTempError(snap, profile, "Temp"); res.NeedsAttention && !hasTightRule(eq) {
		return Verdict{Process: true, Priority: PriorityDeviation, Reason: res.Reason}
	}
	if hasState {
		if res := DetectActuatorDeviation(snap, st.LastSnapshot, profile); res.NeedsAttention {
			return Verdict{Process: true, Priority: PriorityDeviation, Reason: res.Reason}
		}
	}

	sinceRun := d.now().Sub(st.LastRun)
	if !hasState || st.LastRun.IsZero() || sinceRun > profile.MaxStaleness {
		return Verdict{Process: true, Priority: PriorityStaleness,
			Reason: fmt.Sprintf("staleness bound exceeded (%s since last run)", sinceRun.Round(time.Second))}
	}

	return Verdict{Reason: fmt.Sprintf("no attention needed, last run %s ago", sinceRun.Round(time.Second))}
}

// tightDeviation runs the type-specific tight rules for equipment types
// with short scheduling intervals.
func (d *DecisionEngine) tightDeviation(eq models.EquipmentConfig, profile TypeProfile, snap models.MetricsSnapshot) (Verdict, bool) {
	switch eq.BaseType() {
	case models.TypeGeothermal:
		if res := DetectTempError(snap, profile, "Loop temp"); res.NeedsAttention {
			return Verdict{Process: true, Priority: PriorityGeoTight, Reason: res.Reason}, true
		}
		if res := DetectStagingProximity(snap, profile); res.NeedsAttention {
			return Verdict{Process: true, Priority: PriorityGeoTight, Reason: res.Reason}, true
		}
	case models.TypeDOAS:
		if res := DetectTempError(snap, profile, "Supply temp"); res.NeedsAttention {
			return Verdict{Process: true, Priority: PriorityDOASTight, Reason: res.Reason}, true
		}
	}
	return Verdict{}, false
}

// hasTightRule reports whether the type's temperature error is handled by
// the tight rule instead of the generic deviation stage.
func hasTightRule(eq models.EquipmentConfig) bool {
	switch eq.BaseType() {
	case models.TypeGeothermal, models.TypeDOAS:
		return true
	}
	return false
}

// hasRecentCommand consults the command store at most once per check
// interval per equipment; in between it reuses the cached answer.
func (d *DecisionEngine) hasRecentCommand(ctx context.Context, equipmentID string) bool {
	var cached, useCache bool
	d.states.Update(equipmentID, func(s *models.EquipmentRuntimeState) {
		if d.now().Sub(s.LastCommandCheck) < commandCheckInterval {
			cached = s.LastCommandResult
			useCache = true
		}
	})
	if useCache {
		return cached
	}

	found, err := d.commands.HasRecent(ctx, equipmentID, d.now().Add(-commandFreshWindow))
	if err != nil {
		d.log.Warnw("command lookup failed", "equipment_id", equipmentID, "err", err)
		found = false
	}
	d.states.Update(equipmentID, func(s *models.EquipmentRuntimeState) {
		s.LastCommandCheck = d.now()
		s.LastCommandResult = found
	})
	return found
}
