package service

import (
	"context"
	"testing"

	"hvac_scheduler/internal/models"
)

func TestHealthScore_HealthyEquipment(t *testing.T) {
	t.Parallel()

	eq := models.EquipmentConfig{ID: "b1", Type: "boiler-1", DesignAmps: 10}
	snap := snapOf(map[string]float64{"Supply_Temp": 140, "Amps": 8})

	if got := HealthScore(eq, snap); got != 100 {
		t.Fatalf("nominal boiler: want 100, got %v", got)
	}
}

func TestHealthScore_DegradesUnderStress(t *testing.T) {
	t.Parallel()

	eq := models.EquipmentConfig{ID: "b1", Type: "boiler-1", DesignAmps: 10}

	hot := HealthScore(eq, snapOf(map[string]float64{"Supply_Temp": 195}))
	if hot >= 100 {
		t.Errorf("over-temperature must cost points: %v", hot)
	}
	overloaded := HealthScore(eq, snapOf(map[string]float64{"Supply_Temp": 140, "Amps": 14}))
	if overloaded >= 100 {
		t.Errorf("overload must cost points: %v", overloaded)
	}
	faulted := HealthScore(eq, snapOf(map[string]float64{"Supply_Temp": 140, "Fault": 1}))
	if faulted != 70 {
		t.Errorf("fault flag costs 30 points: %v", faulted)
	}

	// score is clamped to 0..100
	wrecked := HealthScore(eq, snapOf(map[string]float64{"Supply_Temp": 240, "Amps": 30, "Fault": 1}))
	if wrecked < 0 || wrecked > 100 {
		t.Errorf("score out of bounds: %v", wrecked)
	}
}

func TestHealthMonitor_RaisesDedupedAlarms(t *testing.T) {
	t.Parallel()

	engine, alarms, _ := newAlarmFixture()
	monitor := NewHealthMonitor(engine)
	eq := models.EquipmentConfig{ID: "b1", LocationID: "loc-1", Type: "boiler-1", DesignAmps: 10}

	// deeply unhealthy snapshot
	bad := snapOf(map[string]float64{"Supply_Temp": 240, "Amps": 30, "Fault": 1})
	score := monitor.Check(context.Background(), eq, bad)
	if score >= healthCriticalBound {
		t.Fatalf("snapshot should score below the critical bound, got %v", score)
	}
	if alarms.count() != 1 {
		t.Fatalf("critical score must raise an alarm, got %d", alarms.count())
	}
	if got := alarms.created[0].Severity; got != models.SeverityCritical {
		t.Errorf("severity: want critical, got %q", got)
	}
	if got := alarms.created[0].Name; got != healthMetricName {
		t.Errorf("alarm name: want %q, got %q", healthMetricName, got)
	}

	// repeated low scores while the alarm stays active do not duplicate
	monitor.Check(context.Background(), eq, bad)
	if alarms.count() != 1 {
		t.Fatalf("health alarms share the dedup key space, got %d", alarms.count())
	}
}

func TestHealthMonitor_WarningBand(t *testing.T) {
	t.Parallel()

	engine, alarms, _ := newAlarmFixture()
	monitor := NewHealthMonitor(engine)
	eq := models.EquipmentConfig{ID: "b2", LocationID: "loc-1", Type: "boiler-1"}

	// stressed but not critical: 215 over the 185 band costs 50 of the cap,
	// plus a mild efficiency penalty lands between the bounds
	warm := snapOf(map[string]float64{"Supply_Temp": 215, "COP": 0.5})
	score := monitor.Check(context.Background(), eq, warm)
	if score >= healthWarningBound || score < healthCriticalBound {
		t.Fatalf("score %v should sit between the bounds", score)
	}
	if alarms.count() != 1 || alarms.created[0].Severity != models.SeverityWarning {
		t.Fatalf("expected one warning alarm: %+v", alarms.created)
	}
}

func TestHealthMonitor_DefaultSnapshotsAreIgnored(t *testing.T) {
	t.Parallel()

	engine, alarms, _ := newAlarmFixture()
	monitor := NewHealthMonitor(engine)
	eq := models.EquipmentConfig{ID: "b3", LocationID: "loc-1", Type: "boiler-1"}

	snap := snapOf(map[string]float64{"Supply_Temp": 500})
	snap.FromDefaults = true
	monitor.Check(context.Background(), eq, snap)

	if alarms.count() != 0 {
		t.Fatalf("default snapshots must not raise health alarms")
	}
}
