package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"hvac_scheduler/internal/models"
)

// ErrAlarmNotFound is returned for transitions on unknown alarm ids.
var ErrAlarmNotFound = errors.New("alarm not found")

type AlarmSQLite struct {
	db *sql.DB
}

func NewAlarmSQLite(db *sql.DB) *AlarmSQLite { return &AlarmSQLite{db: db} }

const selectAlarmSQL = `
	SELECT id, name, equipment_id, equipment_name, location_id, location_name,
	       severity, message, value, threshold, active, acknowledged, resolved,
	       created_at, acknowledged_at, acknowledged_by, resolved_at, resolved_by
	FROM alarms
`

// Create inserts a new alarm document. A missing ID is assigned.
func (r *AlarmSQLite) Create(ctx context.Context, a models.Alarm) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO alarms
			(id, name, equipment_id, equipment_name, location_id, location_name,
			 severity, message, value, threshold, active, acknowledged, resolved, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		a.ID,
		a.Name,
		a.EquipmentID,
		a.EquipmentName,
		a.LocationID,
		a.LocationName,
		a.Severity,
		a.Message,
		a.Value,
		a.Threshold,
		a.Active,
		a.Acknowledged,
		a.Resolved,
		a.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("create alarm %q: %w", a.ID, err)
	}
	return nil
}

// GetByID returns one alarm, or nil if absent.
func (r *AlarmSQLite) GetByID(ctx context.Context, id string) (*models.Alarm, error) {
	row := r.db.QueryRowContext(ctx, selectAlarmSQL+" WHERE id = ?", id)
	a, err := scanAlarmRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

// FindActive returns the active alarm for (equipment, metric name), or nil.
// This lookup is the de-duplication gate: the engine never creates a second
// alarm while one row matches.
func (r *AlarmSQLite) FindActive(ctx context.Context, equipmentID, name string) (*models.Alarm, error) {
	row := r.db.QueryRowContext(ctx,
		selectAlarmSQL+" WHERE equipment_id = ? AND name = ? AND active = 1 LIMIT 1",
		equipmentID, name,
	)
	a, err := scanAlarmRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

// List returns alarms matching the filter, newest first.
func (r *AlarmSQLite) List(ctx context.Context, f AlarmFilter) ([]models.Alarm, error) {
	var (
		conds []string
		args  []any
	)
	if f.EquipmentID != "" {
		conds = append(conds, "equipment_id = ?")
		args = append(args, f.EquipmentID)
	}
	if f.LocationID != "" {
		conds = append(conds, "location_id = ?")
		args = append(args, f.LocationID)
	}
	if f.ActiveOnly {
		conds = append(conds, "active = 1")
	}
	if !f.From.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, f.From.UTC())
	}
	if !f.To.IsZero() {
		conds = append(conds, "created_at <= ?")
		args = append(args, f.To.UTC())
	}

	q := selectAlarmSQL
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list alarms: %w", err)
	}
	defer rows.Close()

	out := make([]models.Alarm, 0, 32)
	for rows.Next() {
		a, err := scanAlarmRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkAcknowledged flags an active alarm as acknowledged.
func (r *AlarmSQLite) MarkAcknowledged(ctx context.Context, id, by string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE alarms SET acknowledged = 1, acknowledged_at = ?, acknowledged_by = ?
		WHERE id = ?
	`, at.UTC(), by, id)
	if err != nil {
		return fmt.Errorf("acknowledge alarm %q: %w", id, err)
	}
	return requireRow(res, id)
}

// MarkResolved clears the active flag and records the resolver. Resolved is
// terminal; the (equipment, name) key frees up for future alarms.
func (r *AlarmSQLite) MarkResolved(ctx context.Context, id, by string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE alarms SET active = 0, resolved = 1, resolved_at = ?, resolved_by = ?
		WHERE id = ?
	`, at.UTC(), by, id)
	if err != nil {
		return fmt.Errorf("resolve alarm %q: %w", id, err)
	}
	return requireRow(res, id)
}

// Delete removes an alarm document entirely (explicit operator action).
func (r *AlarmSQLite) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM alarms WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete alarm %q: %w", id, err)
	}
	return requireRow(res, id)
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrAlarmNotFound, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlarmRow(row rowScanner) (*models.Alarm, error) {
	var (
		a       models.Alarm
		ackAt   sql.NullTime
		ackBy   sql.NullString
		resAt   sql.NullTime
		resBy   sql.NullString
		eqName  sql.NullString
		locID   sql.NullString
		locName sql.NullString
	)
	if err := row.Scan(
		&a.ID,
		&a.Name,
		&a.EquipmentID,
		&eqName,
		&locID,
		&locName,
		&a.Severity,
		&a.Message,
		&a.Value,
		&a.Threshold,
		&a.Active,
		&a.Acknowledged,
		&a.Resolved,
		&a.CreatedAt,
		&ackAt,
		&ackBy,
		&resAt,
		&resBy,
	); err != nil {
		return nil, err
	}
	a.EquipmentName = eqName.String
	a.LocationID = locID.String
	a.LocationName = locName.String
	a.CreatedAt = a.CreatedAt.UTC()
	if ackAt.Valid {
		a.AcknowledgedAt = ackAt.Time.UTC()
	}
	a.AcknowledgedBy = ackBy.String
	if resAt.Valid {
		a.ResolvedAt = resAt.Time.UTC()
	}
	a.ResolvedBy = resBy.String
	return &a, nil
}

func scanAlarmRows(rows *sql.Rows) (*models.Alarm, error) {
	a, err := scanAlarmRow(rows)
	if err != nil {
		return nil, fmt.Errorf("scan alarm: %w", err)
	}
	return a, nil
}
