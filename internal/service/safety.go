package service

import (
	"fmt"

	"hvac_scheduler/internal/logger"
	"hvac_scheduler/internal/models"
)

// SafetyResult is the evaluator's verdict for one snapshot.
type SafetyResult struct {
	Violation bool
	Reason    string
}

// Hard absolute limits per equipment family. Exceeding any forces an
// immediate control pass at the highest priority tier.
const (
	boilerSupplyMaxF   = 200.0
	boilerPressureMax  = 150.0
	chillerSupplyMaxF  = 55.0
	ahuSupplyMaxF      = 90.0
	pumpTempMaxF       = 130.0
	fanCoilSupplyMaxF  = 95.0
	ampsOverloadFactor = 1.5
	copViabilityFloor  = 1.0
)

// SafetyEvaluator checks type-specific hard limits. On internal error it
// fails open toward safety: a violation is reported rather than silently
// passing, since an unattended safety condition is worse than one extra
// control pass.
type SafetyEvaluator struct {
	log *logger.Logger
}

func NewSafetyEvaluator(log *logger.Logger) *SafetyEvaluator {
	return &SafetyEvaluator{log: log}
}

func (e *SafetyEvaluator) Evaluate(eq models.EquipmentConfig, snap models.MetricsSnapshot) (res SafetyResult) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Errorw("safety evaluation panicked; failing open toward safety",
				"equipment_id", eq.ID, "panic", r)
			res = SafetyResult{Violation: true, Reason: fmt.Sprintf("safety evaluation error: %v", r)}
		}
	}()

	if res = e.checkOverload(eq, snap); res.Violation {
		return res
	}

	switch eq.BaseType() {
	case models.TypeBoiler, models.TypeComfortBoiler, models.TypeDomesticBoiler, models.TypeSteamBundle:
		if v, ok := snap.LookupAny("Supply_Temp", "SupplyTemp", "Water_Temp", "WaterTemp"); ok && v > boilerSupplyMaxF {
			return violation("supply temp %.1f above %.0f limit", v, boilerSupplyMaxF)
		}
		if v, ok := snap.LookupAny("Pressure", "Gas_Pressure", "LoopPressure"); ok && v > boilerPressureMax {
			return violation("pressure %.1f above %.0f limit", v, boilerPressureMax)
		}
	case models.TypeChiller:
		if v, ok := snap.LookupAny("Supply_Temp", "SupplyTemp", "CHW_Supply"); ok && v > chillerSupplyMaxF {
			return violation("chilled water supply %.1f above %.0f limit", v, chillerSupplyMaxF)
		}
		if cop, ok := snap.LookupAny("COP", "Efficiency"); ok && cop > 0 && cop < copViabilityFloor {
			return violation("COP %.2f below %.1f viability floor", cop, copViabilityFloor)
		}
	case models.TypeAirHandler, models.TypeDOAS:
		if v, ok := snap.LookupAny("Supply_Temp", "SupplyTemp", "SAT", "DischargeTemp"); ok && v > ahuSupplyMaxF {
			return violation("supply air temp %.1f above %.0f limit", v, ahuSupplyMaxF)
		}
	case models.TypeFanCoil:
		if v, ok := snap.LookupAny("Supply_Temp", "SupplyTemp", "DischargeTemp"); ok && v > fanCoilSupplyMaxF {
			return violation("supply temp %.1f above %.0f limit", v, fanCoilSupplyMaxF)
		}
	case models.TypeHWPump, models.TypeCWPump:
		if v, ok := snap.LookupAny("Motor_Temp", "MotorTemp", "Bearing_Temp"); ok && v > pumpTempMaxF {
			return violation("motor temp %.1f above %.0f limit", v, pumpTempMaxF)
		}
	case models.TypeGeothermal:
		if v, ok := snap.LookupAny("LoopTemp", "Loop_Temp"); ok && (v > 110 || v < 20) {
			return violation("loop temp %.1f outside 20..110 safe band", v)
		}
	}
	return SafetyResult{}
}

// checkOverload flags current draw above the design-amps overload factor,
// for any type that declares design amps.
func (e *SafetyEvaluator) checkOverload(eq models.EquipmentConfig, snap models.MetricsSnapshot) SafetyResult {
	if eq.DesignAmps <= 0 {
		return SafetyResult{}
	}
	if amps, ok := snap.LookupAny("Amps", "Current", "Motor_Amps"); ok && amps > eq.DesignAmps*ampsOverloadFactor {
		return violation("current %.1fA above %.0f%% of rated %.1fA",
			amps, ampsOverloadFactor*100, eq.DesignAmps)
	}
	return SafetyResult{}
}

func violation(format string, args ...any) SafetyResult {
	return SafetyResult{Violation: true, Reason: fmt.Sprintf(format, args...)}
}
