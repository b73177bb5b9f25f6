package service

import (
	"context"
	"strings"
	"time"

	"hvac_scheduler/internal/logger"
	"hvac_scheduler/internal/models"
	"hvac_scheduler/internal/repository"
)

// Outdoor reset breakpoints for threshold adjustment, in degrees F.
const (
	boilerWarmCutover = 50.0 // above this a boiler max relaxes to the idle ceiling
	boilerIdleMax     = 160.0
	boilerColdCutover = 20.0 // below this the supply-temp floor starts rising
	boilerColdSlope   = 0.75 // floor gain per degree of outdoor drop
	boilerColdCap     = 30.0 // max floor rise
	steamWarmCutover  = 40.0
	steamRelaxSlope   = 0.5
	steamRelaxCap     = 25.0
)

// AdjustThresholds applies the equipment-type outdoor-reset rules to a
// base min/max pair. Only temperature-like metrics are adjusted; every
// other metric keeps its base thresholds untouched.
//
// Boiler variants relax their maximum in warm weather (an idle boiler
// short-cycling at setpoint is normal, not an alarm) and raise their
// supply-temperature floor as outdoor temperature drops below the cold
// cutover. Steam systems relax their maximum as outdoor temperature
// rises.
func AdjustThresholds(baseMin, baseMax *float64, equipmentType string, outdoorTemp float64, metricName string) (*float64, *float64) {
	if !isTemperatureMetric(metricName) {
		return baseMin, baseMax
	}

	switch baseType := models.BaseTypeOf(equipmentType); {
	case models.IsBoilerType(baseType):
		min, max := baseMin, baseMax
		if outdoorTemp >= boilerWarmCutover && baseMax != nil {
			relaxed := *baseMax
			if relaxed < boilerIdleMax {
				relaxed = boilerIdleMax
			}
			max = &relaxed
		}
		if outdoorTemp < boilerColdCutover && baseMin != nil {
			rise := (boilerColdCutover - outdoorTemp) * boilerColdSlope
			if rise > boilerColdCap {
				rise = boilerColdCap
			}
			raised := *baseMin + rise
			min = &raised
		}
		return min, max
	case baseType == models.TypeSteamBundle:
		if outdoorTemp > steamWarmCutover && baseMax != nil {
			relax := (outdoorTemp - steamWarmCutover) * steamRelaxSlope
			if relax > steamRelaxCap {
				relax = steamRelaxCap
			}
			relaxed := *baseMax + relax
			return baseMin, &relaxed
		}
	}
	return baseMin, baseMax
}

func isTemperatureMetric(metricName string) bool {
	return strings.Contains(strings.ToLower(metricName), "temp")
}

// ThresholdMonitor periodically re-derives effective thresholds per
// enabled setting and compares the validated live value against them.
type ThresholdMonitor struct {
	registry   *Registry
	thresholds repository.ThresholdRepo
	gatherer   *Gatherer
	validator  *Validator
	outdoor    *OutdoorSource
	alarms     *AlarmEngine
	log        *logger.Logger
	interval   time.Duration
}

func NewThresholdMonitor(
	registry *Registry,
	thresholds repository.ThresholdRepo,
	gatherer *Gatherer,
	validator *Validator,
	outdoor *OutdoorSource,
	alarms *AlarmEngine,
	log *logger.Logger,
	interval time.Duration,
) *ThresholdMonitor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &ThresholdMonitor{
		registry:   registry,
		thresholds: thresholds,
		gatherer:   gatherer,
		validator:  validator,
		outdoor:    outdoor,
		alarms:     alarms,
		log:        log,
		interval:   interval,
	}
}

// Run ticks until ctx is canceled.
func (m *ThresholdMonitor) Run(ctx context.Context) {
	t := time.NewTicker(m.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.Tick(ctx)
		}
	}
}

// Tick runs one full monitoring pass over every enabled setting.
func (m *ThresholdMonitor) Tick(ctx context.Context) {
	settings, err := m.thresholds.ListEnabled(ctx)
	if err != nil {
		m.log.Warnw("threshold settings fetch failed; skipping cycle", "err", err)
		return
	}
	for _, setting := range settings {
		m.check(ctx, setting)
	}
}

func (m *ThresholdMonitor) check(ctx context.Context, setting models.ThresholdSetting) {
	eq, ok := m.registry.Get(setting.EquipmentID)
	if !ok {
		// setting may hint at its own location; fall back to a bare config
		eq = models.EquipmentConfig{
			ID:         setting.EquipmentID,
			LocationID: setting.LocationID,
			System:     setting.System,
		}
	}

	outdoorTemp := m.outdoor.Get(ctx, eq.LocationID)
	min, max := AdjustThresholds(setting.Min, setting.Max, eq.Type, outdoorTemp, setting.MetricName)

	snap := m.gatherer.Gather(ctx, eq)
	if snap.FromDefaults {
		// no live data; defaults are by construction in-band, skip
		return
	}
	value, ok := snap.LookupAny(setting.MetricName, setting.MetricPath)
	if !ok {
		return
	}
	if !m.validator.ValidateRateOfChange(eq.ID, setting.MetricName, value, snap.CapturedAt) {
		m.log.Infow("reading rejected by validation",
			"equipment_id", eq.ID, "metric", setting.MetricName, "value", value)
		return
	}

	if max != nil && value > *max {
		m.alarms.RaiseMaxViolation(ctx, eq, setting, value, *max)
		return
	}
	if min != nil && value < *min {
		m.alarms.RaiseMinViolation(ctx, eq, setting, value, *min)
	}
}
