package service

import (
	"context"
	"testing"
	"time"

	"hvac_scheduler/internal/metricstore"
	"hvac_scheduler/internal/models"
)

// stubCommandRepo satisfies repository.CommandRepo.
type stubCommandRepo struct {
	recent bool
	err    error
	panics bool
	calls  int
}

func (s *stubCommandRepo) Append(ctx context.Context, c models.OperatorCommand) error { return nil }

func (s *stubCommandRepo) HasRecent(ctx context.Context, equipmentID string, since time.Time) (bool, error) {
	s.calls++
	if s.panics {
		panic("command store exploded")
	}
	return s.recent, s.err
}

type engineFixture struct {
	engine   *DecisionEngine
	states   *StateStore
	commands *stubCommandRepo
	now      time.Time
}

func newEngineFixture(t *testing.T, store *stubMetricStore, commands *stubCommandRepo) *engineFixture {
	t.Helper()
	log := testLog()
	states := NewStateStore()
	registry := NewRegistry(nil)
	gatherer := NewGatherer(store, log, 0)
	safety := NewSafetyEvaluator(log)
	outdoor := NewOutdoorSource("", store, log)

	engine := NewDecisionEngine(registry, states, gatherer, safety, outdoor, commands, log)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return now }
	return &engineFixture{engine: engine, states: states, commands: commands, now: now}
}

func rowsOf(values map[string]float64) []metricstore.Row {
	return []metricstore.Row{{At: time.Date(2026, 3, 1, 11, 59, 0, 0, time.UTC), Values: values}}
}

func outdoorRows(v float64) []metricstore.Row {
	return []metricstore.Row{{Values: map[string]float64{"Outdoor_Air": v}}}
}

func TestDecide_SafetyWinsOverEverything(t *testing.T) {
	t.Parallel()

	commands := &stubCommandRepo{recent: true}
	store := &stubMetricStore{
		// over the boiler limit AND far off setpoint AND a recent command:
		// safety must still win
		rows:    rowsOf(map[string]float64{"Supply_Temp": 210, "Setpoint": 140}),
		locRows: outdoorRows(40),
	}
	fx := newEngineFixture(t, store, commands)

	v := fx.engine.Decide(context.Background(), models.EquipmentConfig{ID: "b1", LocationID: "loc-1", Type: "boiler-1"})
	if !v.Process {
		t.Fatalf("safety violation must process")
	}
	if v.Priority != PrioritySafety {
		t.Fatalf("priority: want %d, got %d (%q)", PrioritySafety, v.Priority, v.Reason)
	}
}

func TestDecide_GeoTightDeviation(t *testing.T) {
	t.Parallel()

	store := &stubMetricStore{
		rows:    rowsOf(map[string]float64{"LoopTemp": 53, "Setpoint": 45}),
		locRows: outdoorRows(40),
	}
	fx := newEngineFixture(t, store, &stubCommandRepo{})

	v := fx.engine.Decide(context.Background(), models.EquipmentConfig{ID: "g1", LocationID: "loc-1", Type: "geo-1"})
	if !v.Process {
		t.Fatalf("temp error 8 must process")
	}
	if v.Priority != PriorityGeoTight {
		t.Fatalf("priority: want %d, got %d (%q)", PriorityGeoTight, v.Priority, v.Reason)
	}
}

func TestDecide_DOASTightDeviation(t *testing.T) {
	t.Parallel()

	store := &stubMetricStore{
		rows:    rowsOf(map[string]float64{"Supply_Temp": 70, "Setpoint": 65}),
		locRows: outdoorRows(40),
	}
	fx := newEngineFixture(t, store, &stubCommandRepo{})

	v := fx.engine.Decide(context.Background(), models.EquipmentConfig{ID: "d1", LocationID: "loc-1", Type: "doas-1"})
	if !v.Process || v.Priority != PriorityDOASTight {
		t.Fatalf("want process at %d, got %+v", PriorityDOASTight, v)
	}
}

func TestDecide_OutdoorShift(t *testing.T) {
	t.Parallel()

	store := &stubMetricStore{
		rows:    rowsOf(map[string]float64{"Speed": 50}),
		locRows: outdoorRows(45),
	}
	fx := newEngineFixture(t, store, &stubCommandRepo{})

	// prime a baseline five degrees away from the live outdoor reading
	fx.states.Update("p1", func(st *models.EquipmentRuntimeState) {
		st.HasOutdoor = true
		st.LastOutdoorTemp = 40
		st.LastRun = fx.now.Add(-time.Minute)
		st.LastCommandCheck = fx.now
	})

	v := fx.engine.Decide(context.Background(), models.EquipmentConfig{ID: "p1", LocationID: "loc-1", Type: "hwpump-1"})
	if !v.Process || v.Priority != PriorityOutdoor {
		t.Fatalf("want process at %d, got %+v", PriorityOutdoor, v)
	}
}

func TestDecide_RecentCommand(t *testing.T) {
	t.Parallel()

	store := &stubMetricStore{
		rows:    rowsOf(map[string]float64{"Speed": 50}),
		locRows: outdoorRows(40),
	}
	commands := &stubCommandRepo{recent: true}
	fx := newEngineFixture(t, store, commands)

	fx.states.Update("p1", func(st *models.EquipmentRuntimeState) {
		st.HasOutdoor = true
		st.LastOutdoorTemp = 40
		st.LastRun = fx.now.Add(-time.Minute)
	})

	v := fx.engine.Decide(context.Background(), models.EquipmentConfig{ID: "p1", LocationID: "loc-1", Type: "hwpump-1"})
	if !v.Process || v.Priority != PriorityCommand {
		t.Fatalf("want process at %d, got %+v", PriorityCommand, v)
	}
}

func TestDecide_CommandCheckIsRateLimited(t *testing.T) {
	t.Parallel()

	store := &stubMetricStore{
		rows:    rowsOf(map[string]float64{"Speed": 50}),
		locRows: outdoorRows(40),
	}
	commands := &stubCommandRepo{recent: false}
	fx := newEngineFixture(t, store, commands)

	fx.states.Update("p1", func(st *models.EquipmentRuntimeState) {
		st.HasOutdoor = true
		st.LastOutdoorTemp = 40
		st.LastRun = fx.now.Add(-time.Minute)
	})

	eq := models.EquipmentConfig{ID: "p1", LocationID: "loc-1", Type: "hwpump-1"}
	fx.engine.Decide(context.Background(), eq)
	fx.engine.Decide(context.Background(), eq)

	if commands.calls != 1 {
		t.Fatalf("command store consulted %d times inside one check interval, want 1", commands.calls)
	}
}

func TestDecide_GenericDeviation(t *testing.T) {
	t.Parallel()

	store := &stubMetricStore{
		rows:    rowsOf(map[string]float64{"Valve_Position": 60}),
		locRows: outdoorRows(40),
	}
	fx := newEngineFixture(t, store, &stubCommandRepo{})

	last := models.MetricsSnapshot{Values: map[string]float64{"Valve_Position": 40}}
	fx.states.Update("f1", func(st *models.EquipmentRuntimeState) {
		st.HasOutdoor = true
		st.LastOutdoorTemp = 40
		st.LastRun = fx.now.Add(-time.Minute)
		st.LastCommandCheck = fx.now
		st.LastSnapshot = &last
	})

	v := fx.engine.Decide(context.Background(), models.EquipmentConfig{ID: "f1", LocationID: "loc-1", Type: "fancoil-1"})
	if !v.Process || v.Priority != PriorityDeviation {
		t.Fatalf("want process at %d, got %+v", PriorityDeviation, v)
	}
}

func TestDecide_StalenessBound(t *testing.T) {
	t.Parallel()

	store := &stubMetricStore{
		rows:    rowsOf(map[string]float64{"Speed": 50}),
		locRows: outdoorRows(40),
	}
	fx := newEngineFixture(t, store, &stubCommandRepo{})

	// quiet equipment, but last run beyond the type's staleness bound
	fx.states.Update("p1", func(st *models.EquipmentRuntimeState) {
		st.HasOutdoor = true
		st.LastOutdoorTemp = 40
		st.LastRun = fx.now.Add(-11 * time.Minute)
		st.LastCommandCheck = fx.now
	})

	v := fx.engine.Decide(context.Background(), models.EquipmentConfig{ID: "p1", LocationID: "loc-1", Type: "hwpump-1"})
	if !v.Process || v.Priority != PriorityStaleness {
		t.Fatalf("want process at %d, got %+v", PriorityStaleness, v)
	}
}

func TestDecide_QuietEquipmentRejects(t *testing.T) {
	t.Parallel()

	store := &stubMetricStore{
		rows:    rowsOf(map[string]float64{"Speed": 50}),
		locRows: outdoorRows(40),
	}
	fx := newEngineFixture(t, store, &stubCommandRepo{})

	fx.states.Update("p1", func(st *models.EquipmentRuntimeState) {
		st.HasOutdoor = true
		st.LastOutdoorTemp = 40
		st.LastRun = fx.now.Add(-time.Minute)
		st.LastCommandCheck = fx.now
	})

	v := fx.engine.Decide(context.Background(), models.EquipmentConfig{ID: "p1", LocationID: "loc-1", Type: "hwpump-1"})
	if v.Process {
		t.Fatalf("quiet equipment inside the staleness bound must reject: %+v", v)
	}
	if v.Reason == "" {
		t.Errorf("rejection must report time since last run")
	}
}

func TestDecide_FirstTickForcesPass(t *testing.T) {
	t.Parallel()

	store := &stubMetricStore{
		rows:    rowsOf(map[string]float64{"Speed": 50}),
		locRows: outdoorRows(40),
	}
	fx := newEngineFixture(t, store, &stubCommandRepo{})

	v := fx.engine.Decide(context.Background(), models.EquipmentConfig{ID: "cold", LocationID: "loc-1", Type: "hwpump-1"})
	if !v.Process || v.Priority != PriorityStaleness {
		t.Fatalf("cold equipment with no state must process at %d, got %+v", PriorityStaleness, v)
	}
}

func TestDecide_InternalPanicFailsSafe(t *testing.T) {
	t.Parallel()

	store := &stubMetricStore{
		rows:    rowsOf(map[string]float64{"Speed": 50}),
		locRows: outdoorRows(40),
	}
	commands := &stubCommandRepo{panics: true}
	fx := newEngineFixture(t, store, commands)

	fx.states.Update("p1", func(st *models.EquipmentRuntimeState) {
		st.HasOutdoor = true
		st.LastOutdoorTemp = 40
		st.LastRun = fx.now.Add(-time.Minute)
	})

	v := fx.engine.Decide(context.Background(), models.EquipmentConfig{ID: "p1", LocationID: "loc-1", Type: "hwpump-1"})
	if !v.Process {
		t.Fatalf("internal failure must fail safe by doing work")
	}
	if v.Priority != PriorityStaleness {
		t.Fatalf("fail-safe pass runs at the lowest priority, got %d", v.Priority)
	}
}
