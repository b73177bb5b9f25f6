package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hvac_scheduler/internal/models"
)

type ThresholdSQLite struct {
	db *sql.DB
}

func NewThresholdSQLite(db *sql.DB) *ThresholdSQLite { return &ThresholdSQLite{db: db} }

const selectThresholdSQL = `
	SELECT id, equipment_id, metric_path, metric_name, min, max, enabled,
	       location_id, system, updated_at
	FROM threshold_settings
`

func (r *ThresholdSQLite) ListEnabled(ctx context.Context) ([]models.ThresholdSetting, error) {
	return r.list(ctx, selectThresholdSQL+" WHERE enabled = 1 ORDER BY equipment_id, metric_name")
}

func (r *ThresholdSQLite) List(ctx context.Context) ([]models.ThresholdSetting, error) {
	return r.list(ctx, selectThresholdSQL+" ORDER BY equipment_id, metric_name")
}

func (r *ThresholdSQLite) list(ctx context.Context, query string, args ...any) ([]models.ThresholdSetting, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list threshold settings: %w", err)
	}
	defer rows.Close()

	out := make([]models.ThresholdSetting, 0, 32)
	for rows.Next() {
		var (
			s          models.ThresholdSetting
			minVal     sql.NullFloat64
			maxVal     sql.NullFloat64
			locationID sql.NullString
			system     sql.NullString
		)
		if err := rows.Scan(
			&s.ID,
			&s.EquipmentID,
			&s.MetricPath,
			&s.MetricName,
			&minVal,
			&maxVal,
			&s.Enabled,
			&locationID,
			&system,
			&s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan threshold setting: %w", err)
		}
		if minVal.Valid {
			v := minVal.Float64
			s.Min = &v
		}
		if maxVal.Valid {
			v := maxVal.Float64
			s.Max = &v
		}
		s.LocationID = locationID.String
		s.System = system.String
		s.UpdatedAt = s.UpdatedAt.UTC()
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Upsert inserts or replaces a threshold setting. A missing ID is assigned.
func (r *ThresholdSQLite) Upsert(ctx context.Context, s models.ThresholdSetting) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO threshold_settings
			(id, equipment_id, metric_path, metric_name, min, max, enabled, location_id, system, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			equipment_id=excluded.equipment_id,
			metric_path=excluded.metric_path,
			metric_name=excluded.metric_name,
			min=excluded.min,
			max=excluded.max,
			enabled=excluded.enabled,
			location_id=excluded.location_id,
			system=excluded.system,
			updated_at=excluded.updated_at
	`,
		s.ID,
		s.EquipmentID,
		s.MetricPath,
		s.MetricName,
		nullableFloat(s.Min),
		nullableFloat(s.Max),
		s.Enabled,
		s.LocationID,
		s.System,
		s.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert threshold setting %q: %w", s.ID, err)
	}
	return nil
}

func (r *ThresholdSQLite) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM threshold_settings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete threshold setting %q: %w", id, err)
	}
	return nil
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
