package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"hvac_scheduler/internal/models"
)

type EquipmentSQLite struct {
	db *sql.DB
}

func NewEquipmentSQLite(db *sql.DB) *EquipmentSQLite { return &EquipmentSQLite{db: db} }

const selectEquipmentSQL = `
	SELECT e.id, e.location_id, e.name, e.type, e.system, e.pump_group,
	       e.design_amps, e.design_gpm, e.thresholds, COALESCE(l.name, '')
	FROM equipment e
	LEFT JOIN locations l ON l.id = e.location_id
`

// List returns every configured equipment document with its location name
// resolved.
func (r *EquipmentSQLite) List(ctx context.Context) ([]models.EquipmentConfig, error) {
	rows, err := r.db.QueryContext(ctx, selectEquipmentSQL+" ORDER BY e.location_id, e.id")
	if err != nil {
		return nil, fmt.Errorf("list equipment: %w", err)
	}
	defer rows.Close()

	out := make([]models.EquipmentConfig, 0, 64)
	for rows.Next() {
		eq, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, eq)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID returns one equipment document, or nil if absent.
func (r *EquipmentSQLite) GetByID(ctx context.Context, id string) (*models.EquipmentConfig, error) {
	rows, err := r.db.QueryContext(ctx, selectEquipmentSQL+" WHERE e.id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("get equipment %q: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, nil
	}
	eq, err := scanEquipment(rows)
	if err != nil {
		return nil, err
	}
	return &eq, nil
}

func scanEquipment(rows *sql.Rows) (models.EquipmentConfig, error) {
	var (
		eq            models.EquipmentConfig
		system        sql.NullString
		pumpGroup     sql.NullString
		designAmps    sql.NullFloat64
		designGPM     sql.NullFloat64
		thresholdsStr sql.NullString
	)
	if err := rows.Scan(
		&eq.ID,
		&eq.LocationID,
		&eq.Name,
		&eq.Type,
		&system,
		&pumpGroup,
		&designAmps,
		&designGPM,
		&thresholdsStr,
		&eq.LocationName,
	); err != nil {
		return models.EquipmentConfig{}, fmt.Errorf("scan equipment: %w", err)
	}
	eq.System = system.String
	eq.PumpGroup = pumpGroup.String
	eq.DesignAmps = designAmps.Float64
	eq.DesignGPM = designGPM.Float64

	if thresholdsStr.Valid && thresholdsStr.String != "" {
		node := &models.ThresholdNode{}
		if err := json.Unmarshal([]byte(thresholdsStr.String), node); err == nil {
			eq.Thresholds = node
		}
		// malformed threshold trees are dropped, not fatal: the equipment
		// still schedules, it just has no configured bounds
	}
	return eq, nil
}
