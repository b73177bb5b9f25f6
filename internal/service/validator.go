package service

import (
	"math"
	"strings"
	"time"

	"hvac_scheduler/internal/models"
)

// Metric classes used for range and rate-of-change validation.
const (
	classTemperature = "temperature"
	classPressure    = "pressure"
	classHumidity    = "humidity"
	classGeneric     = "generic"
)

// outlierBound rejects any reading whose magnitude is beyond plausibility
// for building telemetry, regardless of class.
const outlierBound = 10000.0

// staleCompareWindow: beyond this gap the previous reading is too old for
// a meaningful rate comparison and the new value is accepted as baseline.
const staleCompareWindow = 10 * time.Minute

// RateCeilings maps a metric class to its maximum plausible per-minute
// change. The values are configuration inputs, not physical constants.
type RateCeilings map[string]float64

var defaultRateCeilings = RateCeilings{
	classTemperature: 20,
	classPressure:    30,
	classHumidity:    40,
	classGeneric:     100,
}

// Validator rejects physically implausible sensor values and readings
// changing faster than the metric class allows.
type Validator struct {
	ceilings RateCeilings
	states   *StateStore
}

func NewValidator(states *StateStore, ceilings RateCeilings) *Validator {
	if ceilings == nil {
		ceilings = defaultRateCeilings
	}
	return &Validator{ceilings: ceilings, states: states}
}

// classify infers the metric class from its name.
func classify(metricName string) string {
	name := strings.ToLower(metricName)
	switch {
	case strings.Contains(name, "temp"):
		return classTemperature
	case strings.Contains(name, "press"):
		return classPressure
	case strings.Contains(name, "humid") || strings.Contains(name, "rh"):
		return classHumidity
	default:
		return classGeneric
	}
}

// Validate checks a single value against its class's physical range.
// Returns false for NaN, infinities, outliers, and out-of-range values.
func (v *Validator) Validate(value float64, metricName string) bool {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return false
	}
	if math.Abs(value) > outlierBound {
		return false
	}
	switch classify(metricName) {
	case classTemperature:
		return value >= -50 && value <= 250
	case classPressure:
		return value >= 0 && value <= 200
	case classHumidity:
		return value >= 0 && value <= 100
	}
	return true
}

// ValidateRateOfChange compares against the last accepted reading for the
// (equipment, metric) pair. A reading older than the stale-compare window
// is not comparable, so the new value is accepted unconditionally. On
// acceptance the baseline advances; on rejection it stays put, so one bad
// reading cannot wedge the metric.
func (v *Validator) ValidateRateOfChange(equipmentID, metricName string, value float64, at time.Time) bool {
	if !v.Validate(value, metricName) {
		return false
	}

	accepted := true
	v.states.Update(equipmentID, func(st *models.EquipmentRuntimeState) {
		prev, ok := st.LastReading[metricName]
		if ok {
			elapsed := at.Sub(prev.At)
			if elapsed > 0 && elapsed <= staleCompareWindow {
				perMinute := math.Abs(value-prev.Value) / elapsed.Minutes()
				if perMinute > v.ceilingFor(metricName) {
					accepted = false
					return
				}
			}
		}
		st.LastReading[metricName] = models.MetricReading{Value: value, At: at}
	})
	return accepted
}

func (v *Validator) ceilingFor(metricName string) float64 {
	if c, ok := v.ceilings[classify(metricName)]; ok {
		return c
	}
	return defaultRateCeilings[classGeneric]
}
