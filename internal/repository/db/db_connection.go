package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens/creates the SQLite configuration store and ensures tables exist.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// Conservative pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is not great with many writers
	db.SetMaxIdleConns(1)

	// Pragmas to improve reliability
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA journal_mode=WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA foreign_keys=ON: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA busy_timeout=5000: %w", err)
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Fail fast if the DB cannot be reached
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

const sqliteDriverName = "sqlite"

const schemaEquipment = `
CREATE TABLE IF NOT EXISTS equipment (
    id TEXT PRIMARY KEY,
    location_id TEXT NOT NULL,
    name TEXT NOT NULL,
    type TEXT NOT NULL,
    system TEXT,
    pump_group TEXT,
    design_amps REAL,
    design_gpm REAL,
    thresholds TEXT
);
`

const schemaLocations = `
CREATE TABLE IF NOT EXISTS locations (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL
);
`

const schemaTechnicians = `
CREATE TABLE IF NOT EXISTS technicians (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL,
    location_id TEXT,
    assigned_locations TEXT
);
`

const schemaThresholdSettings = `
CREATE TABLE IF NOT EXISTS threshold_settings (
    id TEXT PRIMARY KEY,
    equipment_id TEXT NOT NULL,
    metric_path TEXT NOT NULL,
    metric_name TEXT NOT NULL,
    min REAL,
    max REAL,
    enabled BOOLEAN NOT NULL DEFAULT 1,
    location_id TEXT,
    system TEXT,
    updated_at TIMESTAMP NOT NULL
);
`

const schemaAlarms = `
CREATE TABLE IF NOT EXISTS alarms (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    equipment_id TEXT NOT NULL,
    equipment_name TEXT,
    location_id TEXT,
    location_name TEXT,
    severity TEXT NOT NULL,
    message TEXT NOT NULL,
    value REAL,
    threshold REAL,
    active BOOLEAN NOT NULL,
    acknowledged BOOLEAN NOT NULL DEFAULT 0,
    resolved BOOLEAN NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    acknowledged_at TIMESTAMP,
    acknowledged_by TEXT,
    resolved_at TIMESTAMP,
    resolved_by TEXT
);
`

const schemaAlarmActiveIndex = `
CREATE INDEX IF NOT EXISTS idx_alarms_active
    ON alarms (equipment_id, name, active);
`

const schemaOperatorCommands = `
CREATE TABLE IF NOT EXISTS operator_commands (
    id TEXT PRIMARY KEY,
    equipment_id TEXT NOT NULL,
    command TEXT NOT NULL,
    value TEXT,
    issued_by TEXT,
    issued_at TIMESTAMP NOT NULL
);
`

const schemaEngineEvents = `
CREATE TABLE IF NOT EXISTS engine_events (
    id TEXT PRIMARY KEY,
    occurred_at TIMESTAMP NOT NULL,
    type TEXT NOT NULL,
    message TEXT NOT NULL,
    meta TEXT
);
`

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		// In case of panic, rollback to avoid leaving an open transaction
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaEquipment,
		schemaLocations,
		schemaTechnicians,
		schemaThresholdSettings,
		schemaAlarms,
		schemaAlarmActiveIndex,
		schemaOperatorCommands,
		schemaEngineEvents,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
