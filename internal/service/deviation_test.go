package service

import (
	"strings"
	"testing"

	"hvac_scheduler/internal/models"
)

func TestDetectTempError(t *testing.T) {
	t.Parallel()

	profile := TypeProfile{TempDeadband: 1.75}

	cases := []struct {
		name   string
		values map[string]float64
		want   bool
	}{
		{"inside deadband", map[string]float64{"LoopTemp": 45.5, "Setpoint": 45}, false},
		{"outside deadband", map[string]float64{"LoopTemp": 53, "Setpoint": 45}, true},
		{"extreme absolute without setpoint", map[string]float64{"LoopTemp": 25}, true},
		{"no temperature column", map[string]float64{"Flow_GPM": 100}, false},
		{"no setpoint, normal temp", map[string]float64{"LoopTemp": 48}, false},
	}
	for _, tc := range cases {
		got := DetectTempError(snapOf(tc.values), profile, "Loop temp")
		if got.NeedsAttention != tc.want {
			t.Errorf("%s: NeedsAttention = %v, want %v (%q)", tc.name, got.NeedsAttention, tc.want, got.Reason)
		}
	}
}

func TestDetectTempError_ReasonNamesTheMetric(t *testing.T) {
	t.Parallel()

	profile := TypeProfile{TempDeadband: 1.75}
	res := DetectTempError(snapOf(map[string]float64{"LoopTemp": 53, "Setpoint": 45}), profile, "Loop temp")
	if !res.NeedsAttention {
		t.Fatalf("error 8 must need attention")
	}
	if !strings.Contains(res.Reason, "Loop temp error") {
		t.Errorf("reason should contain the labeled error: %q", res.Reason)
	}
}

func TestDetectStagingProximity(t *testing.T) {
	t.Parallel()

	profile := TypeProfile{StageThresholds: []float64{1, 2, 4, 6}}

	// error 3.8 is within one unit of the stage-4 breakpoint
	res := DetectStagingProximity(snapOf(map[string]float64{"LoopTemp": 48.8, "Setpoint": 45}), profile)
	if !res.NeedsAttention {
		t.Fatalf("error near a stage threshold must need attention")
	}

	// mid-band error 7.5 is more than a unit from every breakpoint
	res = DetectStagingProximity(snapOf(map[string]float64{"LoopTemp": 52.5, "Setpoint": 45}), profile)
	if res.NeedsAttention {
		t.Fatalf("error away from all breakpoints should pass: %q", res.Reason)
	}

	// a type with no stages never signals
	res = DetectStagingProximity(snapOf(map[string]float64{"LoopTemp": 46, "Setpoint": 45}), TypeProfile{})
	if res.NeedsAttention {
		t.Fatalf("stageless profile should never signal")
	}
}

func TestDetectOutdoorShift(t *testing.T) {
	t.Parallel()

	st := models.EquipmentRuntimeState{LastOutdoorTemp: 40, HasOutdoor: true}

	if res := DetectOutdoorShift(st, 41); res.NeedsAttention {
		t.Fatalf("1 degree shift is inside the delta: %q", res.Reason)
	}
	if res := DetectOutdoorShift(st, 45); !res.NeedsAttention {
		t.Fatalf("5 degree shift must need attention")
	}
	// near the heating lockout point
	st.LastOutdoorTemp = 64
	if res := DetectOutdoorShift(st, 64); !res.NeedsAttention {
		t.Fatalf("proximity to the heating lockout must need attention")
	}
	// no baseline yet: nothing to compare
	if res := DetectOutdoorShift(models.EquipmentRuntimeState{}, 70); res.NeedsAttention {
		t.Fatalf("no outdoor baseline should not signal")
	}
}

func TestDetectActuatorDeviation(t *testing.T) {
	t.Parallel()

	profile := TypeProfile{ActuatorTolerance: 5}
	last := snapOf(map[string]float64{"Valve_Position": 40})

	res := DetectActuatorDeviation(snapOf(map[string]float64{"Valve_Position": 43}), &last, profile)
	if res.NeedsAttention {
		t.Fatalf("3%% valve move is inside tolerance: %q", res.Reason)
	}
	res = DetectActuatorDeviation(snapOf(map[string]float64{"Valve_Position": 50}), &last, profile)
	if !res.NeedsAttention {
		t.Fatalf("10%% valve move must need attention")
	}
	if res := DetectActuatorDeviation(snapOf(map[string]float64{"Valve_Position": 90}), nil, profile); res.NeedsAttention {
		t.Fatalf("no previous snapshot means nothing to compare")
	}
}
