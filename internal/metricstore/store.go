// Package metricstore reads live telemetry from the time-series store.
// Column sets are free-form: sites rename and add sensor columns at will,
// so rows come back as name->value maps and normalization happens above.
package metricstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Row is one time-series row flattened to numeric columns. Non-numeric and
// NULL columns are dropped during scanning.
type Row struct {
	At     time.Time
	Values map[string]float64
}

// Store is the time-series query contract the gatherer and the outdoor
// temperature source run against.
type Store interface {
	// FetchWindow returns the most recent rows for one equipment inside the
	// lookback window, newest first.
	FetchWindow(ctx context.Context, equipmentID, locationID string, window time.Duration, limit int) ([]Row, error)
	// FetchLocationWindow returns recent rows for any equipment at a
	// location, newest first. Used as the outdoor-air fallback tier.
	FetchLocationWindow(ctx context.Context, locationID string, window time.Duration, limit int) ([]Row, error)
}

// PGStore queries a wide metrics hypertable over pgx.
type PGStore struct {
	pool  *pgxpool.Pool
	table string
}

// NewPGStore connects to the metrics database. The table is expected to
// carry at least (time, equipment_id, location_id) plus free-form sensor
// columns.
func NewPGStore(ctx context.Context, dsn, table string) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect metrics store: %w", err)
	}
	if table == "" {
		table = "metrics"
	}
	return &PGStore{pool: pool, table: table}, nil
}

// Close releases the connection pool.
func (s *PGStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *PGStore) FetchWindow(ctx context.Context, equipmentID, locationID string, window time.Duration, limit int) ([]Row, error) {
	query := fmt.Sprintf(`
		SELECT * FROM %s
		WHERE equipment_id = $1 AND location_id = $2 AND time >= $3
		ORDER BY time DESC
		LIMIT $4
	`, s.table)
	rows, err := s.pool.Query(ctx, query, equipmentID, locationID, time.Now().Add(-window), limit)
	if err != nil {
		return nil, fmt.Errorf("query metrics for %s: %w", equipmentID, err)
	}
	defer rows.Close()
	return scanRows(rows)
}

func (s *PGStore) FetchLocationWindow(ctx context.Context, locationID string, window time.Duration, limit int) ([]Row, error) {
	query := fmt.Sprintf(`
		SELECT * FROM %s
		WHERE location_id = $1 AND time >= $2
		ORDER BY time DESC
		LIMIT $3
	`, s.table)
	rows, err := s.pool.Query(ctx, query, locationID, time.Now().Add(-window), limit)
	if err != nil {
		return nil, fmt.Errorf("query metrics for location %s: %w", locationID, err)
	}
	defer rows.Close()
	return scanRows(rows)
}

func scanRows(rows pgx.Rows) ([]Row, error) {
	fields := rows.FieldDescriptions()
	out := make([]Row, 0, 16)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read metrics row: %w", err)
		}
		row := Row{Values: make(map[string]float64, len(values))}
		for i, v := range values {
			if i >= len(fields) {
				break
			}
			name := string(fields[i].Name)
			switch name {
			case "time", "ts", "timestamp":
				if t, ok := v.(time.Time); ok {
					row.At = t
				}
				continue
			case "equipment_id", "equipmentId", "location_id", "system", "source":
				continue
			}
			if f, ok := asFloat(v); ok {
				row.Values[name] = f
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metrics rows: %w", err)
	}
	return out, nil
}

// asFloat widens the numeric types pgx hands back; everything else (text
// columns, NULLs, booleans other than on/off flags) is dropped.
func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case int16:
		return float64(x), true
	case int:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}
