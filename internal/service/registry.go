package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"hvac_scheduler/internal/models"
	"hvac_scheduler/internal/repository"
)

// TypeProfile is the per-equipment-type scheduling configuration. One
// profile per base type replaces the per-site forks of the same logic.
type TypeProfile struct {
	PollInterval time.Duration
	MaxStaleness time.Duration
	// CleanupTTL bounds how long a job's dedup key may be held.
	CleanupTTL time.Duration
	// TempDeadband is the setpoint error that triggers a pass.
	TempDeadband float64
	// TightPriority is used for the type-specific tight deviation rule;
	// zero means the type has no tight rule.
	TightPriority int
	// StageThresholds are temperature-error breakpoints for staged
	// equipment, lowest stage first.
	StageThresholds []float64
	// ActuatorTolerance bounds valve/modulation change before a pass.
	ActuatorTolerance float64
}

var defaultProfiles = map[string]TypeProfile{
	models.TypeBoiler:         {PollInterval: 2 * time.Minute, MaxStaleness: 10 * time.Minute, CleanupTTL: 3 * time.Minute, TempDeadband: 2.0, ActuatorTolerance: 5},
	models.TypeComfortBoiler:  {PollInterval: 2 * time.Minute, MaxStaleness: 10 * time.Minute, CleanupTTL: 3 * time.Minute, TempDeadband: 2.0, ActuatorTolerance: 5},
	models.TypeDomesticBoiler: {PollInterval: 2 * time.Minute, MaxStaleness: 10 * time.Minute, CleanupTTL: 3 * time.Minute, TempDeadband: 2.0, ActuatorTolerance: 5},
	models.TypeChiller:        {PollInterval: 2 * time.Minute, MaxStaleness: 10 * time.Minute, CleanupTTL: 3 * time.Minute, TempDeadband: 2.0, ActuatorTolerance: 5},
	models.TypeAirHandler:     {PollInterval: time.Minute, MaxStaleness: 5 * time.Minute, CleanupTTL: 2 * time.Minute, TempDeadband: 2.0, ActuatorTolerance: 5},
	models.TypeFanCoil:        {PollInterval: 2 * time.Minute, MaxStaleness: 10 * time.Minute, CleanupTTL: 3 * time.Minute, TempDeadband: 2.0, ActuatorTolerance: 5},
	models.TypeHWPump:         {PollInterval: 2 * time.Minute, MaxStaleness: 10 * time.Minute, CleanupTTL: 3 * time.Minute, TempDeadband: 2.0, ActuatorTolerance: 5},
	models.TypeCWPump:         {PollInterval: 2 * time.Minute, MaxStaleness: 10 * time.Minute, CleanupTTL: 3 * time.Minute, TempDeadband: 2.0, ActuatorTolerance: 5},
	// Short intervals where overshoot is costly: outdoor-air and staged
	// geothermal control.
	models.TypeDOAS:       {PollInterval: 30 * time.Second, MaxStaleness: 3 * time.Minute, CleanupTTL: 90 * time.Second, TempDeadband: 1.5, TightPriority: 15, ActuatorTolerance: 5},
	models.TypeGeothermal: {PollInterval: 30 * time.Second, MaxStaleness: 3 * time.Minute, CleanupTTL: 90 * time.Second, TempDeadband: 1.75, TightPriority: 16, StageThresholds: []float64{1, 2, 4, 6}, ActuatorTolerance: 5},

	models.TypeSteamBundle:    {PollInterval: 2 * time.Minute, MaxStaleness: 10 * time.Minute, CleanupTTL: 3 * time.Minute, TempDeadband: 2.0, ActuatorTolerance: 5},
	models.TypeMechanicalRoom: {PollInterval: 5 * time.Minute, MaxStaleness: 15 * time.Minute, CleanupTTL: 5 * time.Minute, TempDeadband: 2.0, ActuatorTolerance: 5},
}

// fallbackProfile covers unknown type tags.
var fallbackProfile = TypeProfile{
	PollInterval: 2 * time.Minute, MaxStaleness: 10 * time.Minute,
	CleanupTTL: 3 * time.Minute, TempDeadband: 2.0, ActuatorTolerance: 5,
}

// Registry is the immutable equipment catalog, loaded from the
// configuration store at startup and shared read-only.
type Registry struct {
	mu       sync.RWMutex
	byID     map[string]models.EquipmentConfig
	profiles map[string]TypeProfile
}

func NewRegistry(profiles map[string]TypeProfile) *Registry {
	if profiles == nil {
		profiles = defaultProfiles
	}
	return &Registry{
		byID:     make(map[string]models.EquipmentConfig),
		profiles: profiles,
	}
}

// Load replaces the catalog with the store's current equipment set.
func (r *Registry) Load(ctx context.Context, repo repository.EquipmentRepo) error {
	list, err := repo.List(ctx)
	if err != nil {
		return fmt.Errorf("load equipment registry: %w", err)
	}
	byID := make(map[string]models.EquipmentConfig, len(list))
	for _, eq := range list {
		byID[eq.ID] = eq
	}
	r.mu.Lock()
	r.byID = byID
	r.mu.Unlock()
	return nil
}

// Get returns the configuration for one equipment id.
func (r *Registry) Get(id string) (models.EquipmentConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	eq, ok := r.byID[id]
	return eq, ok
}

// All returns a copy of the catalog.
func (r *Registry) All() []models.EquipmentConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.EquipmentConfig, 0, len(r.byID))
	for _, eq := range r.byID {
		out = append(out, eq)
	}
	return out
}

// ByType groups equipment by base type, the unit the schedule tickers
// operate on.
func (r *Registry) ByType() map[string][]models.EquipmentConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string][]models.EquipmentConfig)
	for _, eq := range r.byID {
		bt := eq.BaseType()
		out[bt] = append(out[bt], eq)
	}
	return out
}

// ProfileFor resolves the scheduling profile for a type tag.
func (r *Registry) ProfileFor(typeTag string) TypeProfile {
	if p, ok := r.profiles[models.BaseTypeOf(typeTag)]; ok {
		return p
	}
	return fallbackProfile
}
