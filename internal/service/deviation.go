package service

import (
	"fmt"
	"math"

	"hvac_scheduler/internal/models"
)

// DeviationResult is one detector's verdict.
type DeviationResult struct {
	NeedsAttention bool
	Reason         string
}

func attention(format string, args ...any) DeviationResult {
	return DeviationResult{NeedsAttention: true, Reason: fmt.Sprintf(format, args...)}
}

// Detector tuning shared across types. Bands are deliberately tighter than
// the control-loop tick so short scheduling intervals stay responsive for
// systems where overshoot is costly.
const (
	extremeTempLow     = 35.0
	extremeTempHigh    = 190.0
	stageProximityBand = 1.0
	outdoorShiftDelta  = 2.0
	lockoutProximity   = 3.0
	heatingLockoutTemp = 65.0
	coolingLockoutTemp = 50.0
)

// DetectTempError flags supply-vs-setpoint error above the type's
// deadband, and extreme absolute values regardless of setpoint.
func DetectTempError(snap models.MetricsSnapshot, profile TypeProfile, tempLabel string) DeviationResult {
	current, ok := snap.LookupAny("Supply_Temp", "SupplyTemp", "Water_Temp", "LoopTemp", "Loop_Temp", "DischargeTemp")
	if !ok {
		return DeviationResult{}
	}
	if current < extremeTempLow || current > extremeTempHigh {
		return attention("%s %.1f outside expected operating range", tempLabel, current)
	}
	setpoint, ok := snap.LookupAny("Setpoint", "Supply_Setpoint", "SetPoint", "SP")
	if !ok {
		return DeviationResult{}
	}
	if err := math.Abs(current - setpoint); err > profile.TempDeadband {
		return attention("%s error %.1f exceeds %.2f deadband", tempLabel, err, profile.TempDeadband)
	}
	return DeviationResult{}
}

// DetectStagingProximity flags temperature error within one unit of any
// stage-transition breakpoint, anticipating staging rather than reacting
// after the fact.
func DetectStagingProximity(snap models.MetricsSnapshot, profile TypeProfile) DeviationResult {
	if len(profile.StageThresholds) == 0 {
		return DeviationResult{}
	}
	current, okC := snap.LookupAny("LoopTemp", "Loop_Temp", "Supply_Temp", "SupplyTemp")
	setpoint, okS := snap.LookupAny("Setpoint", "Supply_Setpoint", "SetPoint", "SP")
	if !okC || !okS {
		return DeviationResult{}
	}
	err := math.Abs(current - setpoint)
	for _, stage := range profile.StageThresholds {
		if math.Abs(err-stage) <= stageProximityBand {
			return attention("temp error %.1f near stage threshold %.1f", err, stage)
		}
	}
	return DeviationResult{}
}

// DetectOutdoorShift tracks the last outdoor temperature seen per
// equipment and flags meaningful change or proximity to lockout points.
// The caller updates state after the full decision, so this is pure.
func DetectOutdoorShift(st models.EquipmentRuntimeState, outdoor float64) DeviationResult {
	if !st.HasOutdoor {
		return DeviationResult{}
	}
	if delta := math.Abs(outdoor - st.LastOutdoorTemp); delta > outdoorShiftDelta {
		return attention("outdoor temp moved %.1f since last pass", delta)
	}
	if math.Abs(outdoor-heatingLockoutTemp) <= lockoutProximity {
		return attention("outdoor temp %.1f near heating lockout %.0f", outdoor, heatingLockoutTemp)
	}
	if math.Abs(outdoor-coolingLockoutTemp) <= lockoutProximity {
		return attention("outdoor temp %.1f near cooling lockout %.0f", outdoor, coolingLockoutTemp)
	}
	return DeviationResult{}
}

// DetectActuatorDeviation compares the primary actuator output against the
// last accepted snapshot.
func DetectActuatorDeviation(snap models.MetricsSnapshot, last *models.MetricsSnapshot, profile TypeProfile) DeviationResult {
	if last == nil {
		return DeviationResult{}
	}
	for _, name := range []string{"Valve_Position", "ValvePosition", "Modulation", "Output", "Stage"} {
		cur, okC := snap.Lookup(name)
		prev, okP := last.Lookup(name)
		if !okC || !okP {
			continue
		}
		if delta := math.Abs(cur - prev); delta > profile.ActuatorTolerance {
			return attention("%s moved %.1f since last pass", name, delta)
		}
	}
	return DeviationResult{}
}
