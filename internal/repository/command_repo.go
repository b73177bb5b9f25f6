package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hvac_scheduler/internal/models"
)

type CommandSQLite struct {
	db *sql.DB
}

func NewCommandSQLite(db *sql.DB) *CommandSQLite { return &CommandSQLite{db: db} }

// Append records an operator command. If ID or IssuedAt are empty, they're set.
func (r *CommandSQLite) Append(ctx context.Context, c models.OperatorCommand) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.IssuedAt.IsZero() {
		c.IssuedAt = time.Now().UTC()
	} else {
		c.IssuedAt = c.IssuedAt.UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO operator_commands (id, equipment_id, command, value, issued_by, issued_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		c.ID,
		c.EquipmentID,
		c.Command,
		c.Value,
		c.IssuedBy,
		c.IssuedAt,
	)
	if err != nil {
		return fmt.Errorf("append operator command: %w", err)
	}
	return nil
}

// HasRecent reports whether any command was issued for the equipment at or
// after the given time.
func (r *CommandSQLite) HasRecent(ctx context.Context, equipmentID string, since time.Time) (bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM operator_commands
		WHERE equipment_id = ? AND issued_at >= ?
	`, equipmentID, since.UTC())
	var n int
	if err := row.Scan(&n); err != nil {
		return false, fmt.Errorf("check recent commands for %q: %w", equipmentID, err)
	}
	return n > 0, nil
}
