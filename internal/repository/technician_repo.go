package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"hvac_scheduler/internal/models"
)

type TechnicianSQLite struct {
	db *sql.DB
}

func NewTechnicianSQLite(db *sql.DB) *TechnicianSQLite { return &TechnicianSQLite{db: db} }

// ListTechnicians returns every technician document. Assignment filtering
// happens in the caller; the table stays small.
func (r *TechnicianSQLite) ListTechnicians(ctx context.Context) ([]models.Technician, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, email, location_id, assigned_locations FROM technicians
	`)
	if err != nil {
		return nil, fmt.Errorf("list technicians: %w", err)
	}
	defer rows.Close()

	out := make([]models.Technician, 0, 16)
	for rows.Next() {
		var (
			t        models.Technician
			locID    sql.NullString
			assigned sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.Name, &t.Email, &locID, &assigned); err != nil {
			return nil, fmt.Errorf("scan technician: %w", err)
		}
		t.LocationID = locID.String
		if assigned.Valid && assigned.String != "" {
			// keep raw-string failures silent: a malformed list means the
			// single location_id column still applies
			_ = json.Unmarshal([]byte(assigned.String), &t.AssignedLocations)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetLocation returns a location by exact id, or nil if absent.
func (r *TechnicianSQLite) GetLocation(ctx context.Context, id string) (*models.Location, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name FROM locations WHERE id = ?`, id)
	var loc models.Location
	if err := row.Scan(&loc.ID, &loc.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get location %q: %w", id, err)
	}
	return &loc, nil
}

// SearchLocationByID is the fallback lookup when the exact id misses:
// matches on a contained id fragment, first hit wins.
func (r *TechnicianSQLite) SearchLocationByID(ctx context.Context, idFragment string) (*models.Location, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name FROM locations WHERE id LIKE '%' || ? || '%' LIMIT 1`,
		idFragment,
	)
	var loc models.Location
	if err := row.Scan(&loc.ID, &loc.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("search location %q: %w", idFragment, err)
	}
	return &loc, nil
}
