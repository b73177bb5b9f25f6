package models

import "time"

// EquipmentRuntimeState is the per-equipment mutable scheduling state.
// Created lazily on the first tick, updated every tick, process lifetime
// only: a restart costs one cold "no baseline" cycle per equipment, which
// is an accepted property of this engine.
type EquipmentRuntimeState struct {
	EquipmentID string

	// LastSnapshot is the last accepted metrics snapshot, used by the
	// deviation detectors for comparison.
	LastSnapshot *MetricsSnapshot

	// LastReading holds the last accepted value and its arrival time per
	// metric, for rate-of-change validation.
	LastReading map[string]MetricReading

	// LastOutdoorTemp is the last outdoor temperature seen for this
	// equipment's location; NaN-free, HasOutdoor guards first use.
	LastOutdoorTemp float64
	HasOutdoor      bool

	LastRun time.Time

	// Operator-command override bookkeeping: the command store is consulted
	// at most once per check interval.
	LastCommandCheck  time.Time
	LastCommandResult bool
}

// MetricReading is one accepted sensor reading with its arrival time.
type MetricReading struct {
	Value float64
	At    time.Time
}
