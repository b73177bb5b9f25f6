package models

import (
	"strings"
	"time"
)

// MetricsSnapshot is a point-in-time flat view of one equipment's live
// metrics. Produced by the gatherer, consumed within a single tick and
// discarded; never persisted.
type MetricsSnapshot struct {
	EquipmentID string             `json:"equipment_id"`
	LocationID  string             `json:"location_id"`
	CapturedAt  time.Time          `json:"captured_at"`
	Values      map[string]float64 `json:"values"`
	// FromDefaults marks a snapshot synthesized from safe defaults after a
	// store failure or empty window.
	FromDefaults bool `json:"from_defaults,omitempty"`
}

// Lookup resolves a metric by name: exact match first, then
// case-insensitive, then substring in either direction. Column sets in the
// time-series store are free-form, so renamed columns still resolve.
func (m MetricsSnapshot) Lookup(name string) (float64, bool) {
	if v, ok := m.Values[name]; ok {
		return v, true
	}
	lower := strings.ToLower(name)
	for k, v := range m.Values {
		if strings.ToLower(k) == lower {
			return v, true
		}
	}
	for k, v := range m.Values {
		lk := strings.ToLower(k)
		if strings.Contains(lk, lower) || strings.Contains(lower, lk) {
			return v, true
		}
	}
	return 0, false
}

// LookupAny tries each candidate name in order.
func (m MetricsSnapshot) LookupAny(names ...string) (float64, bool) {
	for _, name := range names {
		if v, ok := m.Lookup(name); ok {
			return v, true
		}
	}
	return 0, false
}
