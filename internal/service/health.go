package service

import (
	"context"
	"fmt"
	"math"

	"hvac_scheduler/internal/models"
)

// Health score bounds. Scores run 0..100; crossing a bound raises an
// alarm through the normal dedup path under the HealthScore metric name.
const (
	healthCriticalBound = 20.0
	healthWarningBound  = 40.0
	healthMetricName    = "HealthScore"
)

// HealthScore estimates equipment condition from the snapshot: thermal
// stress against the type's safe band, electrical load against design
// amps, and efficiency where reported. 100 is healthy.
func HealthScore(eq models.EquipmentConfig, snap models.MetricsSnapshot) float64 {
	score := 100.0

	if temp, ok := snap.LookupAny("Supply_Temp", "SupplyTemp", "Water_Temp", "LoopTemp", "Motor_Temp"); ok {
		score -= thermalStressPenalty(eq.BaseType(), temp)
	}
	if eq.DesignAmps > 0 {
		if amps, ok := snap.LookupAny("Amps", "Current", "Motor_Amps"); ok {
			if ratio := amps / eq.DesignAmps; ratio > 1 {
				score -= math.Min((ratio-1)*100, 40)
			}
		}
	}
	if cop, ok := snap.LookupAny("COP", "Efficiency"); ok && cop > 0 && cop < 2 {
		score -= (2 - cop) * 15
	}
	if fault, ok := snap.LookupAny("Fault", "Alarm_Flag", "Fault_Code"); ok && fault > 0 {
		score -= 30
	}

	return math.Max(0, math.Min(100, score))
}

// thermalStressPenalty grows linearly once the temperature leaves the
// type's comfortable band.
func thermalStressPenalty(baseType string, temp float64) float64 {
	var low, high float64
	switch {
	case models.IsBoilerType(baseType) || baseType == models.TypeSteamBundle:
		low, high = 80, 185
	case baseType == models.TypeChiller:
		low, high = 38, 52
	case baseType == models.TypeHWPump, baseType == models.TypeCWPump:
		low, high = 40, 120
	default:
		low, high = 40, 100
	}
	switch {
	case temp > high:
		return math.Min((temp-high)*2, 50)
	case temp < low:
		return math.Min((low-temp)*1.5, 50)
	}
	return 0
}

// HealthMonitor turns low health scores into alarms.
type HealthMonitor struct {
	alarms *AlarmEngine
}

func NewHealthMonitor(alarms *AlarmEngine) *HealthMonitor {
	return &HealthMonitor{alarms: alarms}
}

// Check scores one snapshot and raises an alarm when the score falls
// below the warning or critical bound. Live data only; default snapshots
// say nothing about equipment condition.
func (h *HealthMonitor) Check(ctx context.Context, eq models.EquipmentConfig, snap models.MetricsSnapshot) float64 {
	score := HealthScore(eq, snap)
	if snap.FromDefaults {
		return score
	}
	switch {
	case score < healthCriticalBound:
		h.alarms.Raise(ctx, eq, healthMetricName, models.SeverityCritical,
			fmt.Sprintf("health score %.0f is critically low", score), score, healthCriticalBound)
	case score < healthWarningBound:
		h.alarms.Raise(ctx, eq, healthMetricName, models.SeverityWarning,
			fmt.Sprintf("health score %.0f is degraded", score), score, healthWarningBound)
	}
	return score
}
