package service

import (
	"sync"

	"hvac_scheduler/internal/models"
)

// StateStore holds per-equipment runtime state for the process lifetime.
// A restart costs one cold no-baseline cycle per equipment; warm state is
// deliberately not persisted.
//
// Per-equipment ownership normally keeps access single-writer, but the
// goroutine-per-equipment tick plus completion callbacks make same-process
// concurrent access possible, so the map is mutex-guarded.
type StateStore struct {
	mu     sync.Mutex
	states map[string]*models.EquipmentRuntimeState
}

func NewStateStore() *StateStore {
	return &StateStore{states: make(map[string]*models.EquipmentRuntimeState)}
}

// Get returns the state for one equipment, creating it lazily on first use.
func (s *StateStore) Get(equipmentID string) *models.EquipmentRuntimeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[equipmentID]
	if !ok {
		st = &models.EquipmentRuntimeState{
			EquipmentID: equipmentID,
			LastReading: make(map[string]models.MetricReading),
		}
		s.states[equipmentID] = st
	}
	return st
}

// Update runs fn with the equipment's state under the store lock.
func (s *StateStore) Update(equipmentID string, fn func(*models.EquipmentRuntimeState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[equipmentID]
	if !ok {
		st = &models.EquipmentRuntimeState{
			EquipmentID: equipmentID,
			LastReading: make(map[string]models.MetricReading),
		}
		s.states[equipmentID] = st
	}
	fn(st)
}

// Snapshot returns a shallow copy of one equipment's state, or false when
// no tick has touched it yet.
func (s *StateStore) Snapshot(equipmentID string) (models.EquipmentRuntimeState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[equipmentID]
	if !ok {
		return models.EquipmentRuntimeState{}, false
	}
	return *st, true
}
