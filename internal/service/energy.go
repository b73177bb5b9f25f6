package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"hvac_scheduler/internal/logger"
	"hvac_scheduler/internal/models"
)

// Location-level energy bounds. Crossing either raises a warning alarm
// through the normal dedup path, keyed by location id and metric name.
const (
	highConsumptionKW    = 500.0
	lowEfficiencyPercent = 70.0

	consumptionMetricName = "EnergyConsumption"
	efficiencyMetricName  = "EnergyEfficiency"

	defaultEnergyInterval = 5 * time.Minute
)

// powerBaseline is the expected draw band for one equipment family, in kW.
type powerBaseline struct {
	min, max, optimal float64
}

var powerBaselines = map[string]powerBaseline{
	models.TypeBoiler:     {min: 5, max: 50, optimal: 35},
	models.TypeChiller:    {min: 10, max: 150, optimal: 100},
	models.TypeAirHandler: {min: 2, max: 25, optimal: 18},
	models.TypeHWPump:     {min: 0.5, max: 15, optimal: 8},
	models.TypeCWPump:     {min: 0.5, max: 15, optimal: 8},
	models.TypeFanCoil:    {min: 0.2, max: 3, optimal: 2},
	models.TypeGeothermal: {min: 3, max: 30, optimal: 20},
}

var fallbackBaseline = powerBaseline{min: 1, max: 10, optimal: 5}

func baselineFor(baseType string) powerBaseline {
	if models.IsBoilerType(baseType) || baseType == models.TypeSteamBundle {
		return powerBaselines[models.TypeBoiler]
	}
	if b, ok := powerBaselines[baseType]; ok {
		return b
	}
	return fallbackBaseline
}

// EstimatedPowerKW estimates one equipment's draw from its snapshot.
// With no temperature readings the type's optimal draw is assumed; with
// them, the draw scales with how hard the equipment works against its
// operating point, clamped to the family band.
func EstimatedPowerKW(eq models.EquipmentConfig, snap models.MetricsSnapshot) float64 {
	base := baselineFor(eq.BaseType())

	var sum float64
	var n int
	for name, v := range snap.Values {
		if strings.Contains(strings.ToLower(name), "temp") {
			sum += v
			n++
		}
	}
	if n == 0 {
		return base.optimal
	}
	avg := sum / float64(n)

	var factor float64
	switch bt := eq.BaseType(); {
	case bt == models.TypeChiller:
		factor = math.Min(1.5, math.Max(0.5, (avg-60)/20))
	case models.IsBoilerType(bt) || bt == models.TypeSteamBundle:
		factor = math.Min(1.5, math.Max(0.5, (80-avg)/30))
	default:
		factor = math.Min(1.2, math.Max(0.8, 1+(avg-70)/100))
	}
	return math.Max(base.min, math.Min(base.max, base.optimal*factor))
}

// EnergyEfficiency scores 0..100 how close the estimated draw sits to
// the family optimum. Drawing over costs more than drawing under.
func EnergyEfficiency(eq models.EquipmentConfig, powerKW float64) float64 {
	opt := baselineFor(eq.BaseType()).optimal
	var eff float64
	if powerKW <= opt {
		eff = 100 - (opt-powerKW)/opt*20
	} else {
		eff = 100 - (powerKW-opt)/opt*30
	}
	return math.Max(0, math.Min(100, eff))
}

// EnergyMonitor periodically totals estimated draw and efficiency per
// location and raises warning alarms past the bounds.
type EnergyMonitor struct {
	registry *Registry
	states   *StateStore
	alarms   *AlarmEngine
	log      *logger.Logger
	interval time.Duration
}

func NewEnergyMonitor(registry *Registry, states *StateStore, alarms *AlarmEngine, log *logger.Logger, interval time.Duration) *EnergyMonitor {
	if interval <= 0 {
		interval = defaultEnergyInterval
	}
	return &EnergyMonitor{
		registry: registry,
		states:   states,
		alarms:   alarms,
		log:      log,
		interval: interval,
	}
}

// Run sweeps on a fixed interval until ctx is canceled.
func (m *EnergyMonitor) Run(ctx context.Context) {
	m.log.Infow("energy monitor started", "interval", m.interval)
	t := time.NewTicker(m.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.Sweep(ctx)
		}
	}
}

type locationEnergy struct {
	powerKW  float64
	effSum   float64
	effCount int
}

// Sweep runs one pass over the fleet. Only equipment with a live
// accepted snapshot counts; default snapshots say nothing about actual
// draw.
func (m *EnergyMonitor) Sweep(ctx context.Context) {
	totals := make(map[string]*locationEnergy)
	for _, eq := range m.registry.All() {
		st, ok := m.states.Snapshot(eq.ID)
		if !ok || st.LastSnapshot == nil || st.LastSnapshot.FromDefaults {
			continue
		}
		power := EstimatedPowerKW(eq, *st.LastSnapshot)

		t := totals[eq.LocationID]
		if t == nil {
			t = &locationEnergy{}
			totals[eq.LocationID] = t
		}
		t.powerKW += power
		if eff := EnergyEfficiency(eq, power); eff > 0 {
			t.effSum += eff
			t.effCount++
		}
	}

	for locationID, t := range totals {
		m.evaluateLocation(ctx, locationID, t)
	}
}

func (m *EnergyMonitor) evaluateLocation(ctx context.Context, locationID string, t *locationEnergy) {
	site := models.EquipmentConfig{ID: locationID, LocationID: locationID}
	if t.powerKW > highConsumptionKW {
		m.alarms.Raise(ctx, site, consumptionMetricName, models.SeverityWarning,
			fmt.Sprintf("location %s is drawing %.1f kW, above the %.0f kW bound",
				locationID, t.powerKW, highConsumptionKW),
			t.powerKW, highConsumptionKW)
	}
	if t.effCount > 0 {
		if avg := t.effSum / float64(t.effCount); avg < lowEfficiencyPercent {
			m.alarms.Raise(ctx, site, efficiencyMetricName, models.SeverityWarning,
				fmt.Sprintf("location %s average energy efficiency is %.1f%%, below %.0f%%",
					locationID, avg, lowEfficiencyPercent),
				avg, lowEfficiencyPercent)
		}
	}
}
