package service

import (
	"context"
	"time"

	"hvac_scheduler/internal/logger"
	"hvac_scheduler/internal/metricstore"
	"hvac_scheduler/internal/models"
)

// defaultLookback is the gatherer's sample window when the profile does
// not override it.
const defaultLookback = 15 * time.Minute

// safeDefaults is the per-type fallback snapshot used when the store is
// unreachable or returns nothing. Values are mid-band and never trip
// safety limits; downstream logic always has something to reason about.
var safeDefaults = map[string]map[string]float64{
	models.TypeBoiler:         {"Supply_Temp": 140, "Return_Temp": 120, "Setpoint": 140, "Pressure": 12},
	models.TypeComfortBoiler:  {"Supply_Temp": 140, "Return_Temp": 120, "Setpoint": 140, "Pressure": 12},
	models.TypeDomesticBoiler: {"Water_Temp": 125, "Setpoint": 125},
	models.TypeChiller:        {"Supply_Temp": 44, "Return_Temp": 54, "Setpoint": 44},
	models.TypeAirHandler:     {"Supply_Temp": 62, "Setpoint": 62, "Fan_Speed": 50},
	models.TypeFanCoil:        {"Supply_Temp": 68, "Setpoint": 70},
	models.TypeHWPump:         {"Amps": 0, "Speed": 50},
	models.TypeCWPump:         {"Amps": 0, "Speed": 50},
	models.TypeDOAS:           {"Supply_Temp": 65, "Setpoint": 65, "Outdoor_Air": 55},
	models.TypeGeothermal:     {"LoopTemp": 50, "Setpoint": 48},
	models.TypeSteamBundle:    {"Supply_Temp": 150, "Setpoint": 150, "Pressure": 10},
	models.TypeMechanicalRoom: {"Space_Temp": 75},
}

// Gatherer fetches the latest sample window for one equipment and merges
// it into a single flat snapshot.
type Gatherer struct {
	store    metricstore.Store
	log      *logger.Logger
	lookback time.Duration
}

func NewGatherer(store metricstore.Store, log *logger.Logger, lookback time.Duration) *Gatherer {
	if lookback <= 0 {
		lookback = defaultLookback
	}
	return &Gatherer{store: store, log: log, lookback: lookback}
}

// Gather returns the merged snapshot for one equipment. Fetch failures
// and empty windows fall open to safe defaults rather than failing fast:
// a missed control pass is worse than a wrong-but-bounded one.
func (g *Gatherer) Gather(ctx context.Context, eq models.EquipmentConfig) models.MetricsSnapshot {
	rows, err := g.store.FetchWindow(ctx, eq.ID, eq.LocationID, g.lookback, 30)
	if err != nil {
		g.log.Warnw("metrics fetch failed; using safe defaults",
			"equipment_id", eq.ID, "err", err)
		return g.defaultSnapshot(eq)
	}
	if len(rows) == 0 {
		return g.defaultSnapshot(eq)
	}

	// rows arrive newest first; first non-null value per column wins
	merged := make(map[string]float64)
	for _, row := range rows {
		for name, value := range row.Values {
			if _, seen := merged[name]; !seen {
				merged[name] = value
			}
		}
	}
	return models.MetricsSnapshot{
		EquipmentID: eq.ID,
		LocationID:  eq.LocationID,
		CapturedAt:  rows[0].At,
		Values:      merged,
	}
}

func (g *Gatherer) defaultSnapshot(eq models.EquipmentConfig) models.MetricsSnapshot {
	defaults, ok := safeDefaults[eq.BaseType()]
	if !ok {
		defaults = map[string]float64{}
	}
	values := make(map[string]float64, len(defaults))
	for k, v := range defaults {
		values[k] = v
	}
	return models.MetricsSnapshot{
		EquipmentID:  eq.ID,
		LocationID:   eq.LocationID,
		CapturedAt:   time.Now().UTC(),
		Values:       values,
		FromDefaults: true,
	}
}
