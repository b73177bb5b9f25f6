package service

import (
	"testing"
)

func f(v float64) *float64 { return &v }

func TestAdjustThresholds_BoilerWarmWeatherRelaxesMax(t *testing.T) {
	t.Parallel()

	// warm outdoor: an idle boiler near setpoint is normal, the max relaxes
	min, max := AdjustThresholds(f(60), f(85), "boiler", 72, "SupplyTemp")
	if min == nil || *min != 60 {
		t.Errorf("min: want 60, got %v", min)
	}
	if max == nil || *max != 160 {
		t.Errorf("max: want 160, got %v", max)
	}

	// a reading of 88 must not violate the adjusted max
	if 88 > *max {
		t.Errorf("88 should be inside the adjusted max %v", *max)
	}
}

func TestAdjustThresholds_BoilerMaxNeverShrinks(t *testing.T) {
	t.Parallel()

	_, max := AdjustThresholds(f(60), f(180), "comfortboiler-1", 55, "Supply_Temp")
	if max == nil || *max != 180 {
		t.Errorf("base max above the idle ceiling must be kept; got %v", max)
	}
}

func TestAdjustThresholds_BoilerColdFloorMonotonic(t *testing.T) {
	t.Parallel()

	prev := -1000.0
	// floor must be non-decreasing as outdoor temperature drops below 20
	for outdoor := 19.0; outdoor >= -30; outdoor-- {
		min, _ := AdjustThresholds(f(100), f(180), "boiler-2", outdoor, "SupplyTemp")
		if min == nil {
			t.Fatalf("outdoor %.0f: min is nil", outdoor)
		}
		if *min < 100 {
			t.Fatalf("outdoor %.0f: floor %v fell below base", outdoor, *min)
		}
		if prev != -1000.0 && *min < prev {
			t.Fatalf("outdoor %.0f: floor %v decreased from %v as outdoor dropped", outdoor, *min, prev)
		}
		prev = *min
	}
	// and the rise is capped
	min, _ := AdjustThresholds(f(100), f(180), "boiler", -100, "SupplyTemp")
	if *min > 130 {
		t.Fatalf("floor rise should cap at +30, got %v", *min)
	}
}

func TestAdjustThresholds_NonTemperatureMetricUntouched(t *testing.T) {
	t.Parallel()

	baseMin, baseMax := f(5), f(15)
	min, max := AdjustThresholds(baseMin, baseMax, "boiler", -10, "Gas_Pressure")
	if min != baseMin || max != baseMax {
		t.Fatalf("pressure thresholds must pass through unchanged: got (%v, %v)", min, max)
	}
}

func TestAdjustThresholds_SteamRelaxesMaxInWarmWeather(t *testing.T) {
	t.Parallel()

	_, coldMax := AdjustThresholds(f(120), f(180), "steambundle-1", 35, "SupplyTemp")
	if coldMax == nil || *coldMax != 180 {
		t.Errorf("below cutover the max stays base: got %v", coldMax)
	}

	_, warmMax := AdjustThresholds(f(120), f(180), "steambundle-1", 60, "SupplyTemp")
	if warmMax == nil || *warmMax <= 180 {
		t.Errorf("above cutover the max must relax: got %v", warmMax)
	}

	_, hotMax := AdjustThresholds(f(120), f(180), "steambundle-1", 200, "SupplyTemp")
	if hotMax == nil || *hotMax != 205 {
		t.Errorf("relaxation caps at +25: got %v", hotMax)
	}
}

func TestAdjustThresholds_UnknownTypeUntouched(t *testing.T) {
	t.Parallel()

	min, max := AdjustThresholds(f(40), f(90), "ahu-1", -10, "SupplyTemp")
	if *min != 40 || *max != 90 {
		t.Fatalf("non-reset types keep base thresholds: got (%v, %v)", *min, *max)
	}
}

func TestAdjustThresholds_NilBoundsSurvive(t *testing.T) {
	t.Parallel()

	min, max := AdjustThresholds(nil, nil, "boiler", 72, "SupplyTemp")
	if min != nil || max != nil {
		t.Fatalf("nil bounds must stay nil: got (%v, %v)", min, max)
	}
}
