package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"hvac_scheduler/internal/logger"
	"hvac_scheduler/internal/metricstore"
)

// outdoorCacheTTL: one outdoor reading per location per half hour is
// plenty for threshold adjustment.
const outdoorCacheTTL = 30 * time.Minute

// seasonalDefaults is the last-resort outdoor temperature by month,
// northern-hemisphere heating-climate shape.
var seasonalDefaults = [13]float64{
	0,  // unused, months are 1-based
	25, // Jan
	28, // Feb
	38, // Mar
	50, // Apr
	62, // May
	72, // Jun
	78, // Jul
	76, // Aug
	68, // Sep
	55, // Oct
	42, // Nov
	30, // Dec
}

type cachedOutdoor struct {
	value     float64
	fetchedAt time.Time
}

// OutdoorSource resolves outdoor air temperature per location with a
// three-tier fallback: live weather API, then the time-series outdoor
// metric, then a seasonal default by month. Results are cached per
// location.
type OutdoorSource struct {
	weatherURL string
	client     *http.Client
	metrics    metricstore.Store
	log        *logger.Logger
	now        func() time.Time

	mu    sync.Mutex
	cache map[string]cachedOutdoor
}

func NewOutdoorSource(weatherURL string, metrics metricstore.Store, log *logger.Logger) *OutdoorSource {
	return &OutdoorSource{
		weatherURL: weatherURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		metrics:    metrics,
		log:        log,
		now:        time.Now,
		cache:      make(map[string]cachedOutdoor),
	}
}

// Get returns the outdoor temperature for a location, in degrees F.
func (o *OutdoorSource) Get(ctx context.Context, locationID string) float64 {
	o.mu.Lock()
	if c, ok := o.cache[locationID]; ok && o.now().Sub(c.fetchedAt) < outdoorCacheTTL {
		o.mu.Unlock()
		return c.value
	}
	o.mu.Unlock()

	value := o.resolve(ctx, locationID)

	o.mu.Lock()
	o.cache[locationID] = cachedOutdoor{value: value, fetchedAt: o.now()}
	o.mu.Unlock()
	return value
}

func (o *OutdoorSource) resolve(ctx context.Context, locationID string) float64 {
	if o.weatherURL != "" {
		if v, err := o.fetchWeather(ctx, locationID); err == nil {
			return v
		} else {
			o.log.Warnw("weather API fetch failed; falling back to time-series",
				"location_id", locationID, "err", err)
		}
	}
	if v, ok := o.fetchFromMetrics(ctx, locationID); ok {
		return v
	}
	v := seasonalDefaults[int(o.now().Month())]
	o.log.Warnw("using seasonal default outdoor temp",
		"location_id", locationID, "value", v)
	return v
}

func (o *OutdoorSource) fetchWeather(ctx context.Context, locationID string) (float64, error) {
	url := fmt.Sprintf("%s?location=%s", o.weatherURL, locationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build weather request: %w", err)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch weather: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("weather API returned %d", resp.StatusCode)
	}
	var body struct {
		Temperature float64 `json:"temperature"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode weather response: %w", err)
	}
	return body.Temperature, nil
}

func (o *OutdoorSource) fetchFromMetrics(ctx context.Context, locationID string) (float64, bool) {
	if o.metrics == nil {
		return 0, false
	}
	rows, err := o.metrics.FetchLocationWindow(ctx, locationID, time.Hour, 20)
	if err != nil {
		o.log.Warnw("time-series outdoor lookup failed",
			"location_id", locationID, "err", err)
		return 0, false
	}
	names := []string{"Outdoor_Air", "OutdoorAir", "OutdoorTemp", "Outdoor_Temp", "OAT"}
	for _, row := range rows {
		for _, name := range names {
			if v, ok := row.Values[name]; ok {
				return v, true
			}
		}
	}
	return 0, false
}
