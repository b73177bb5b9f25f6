package repository

import (
	"context"
	"database/sql"
	"time"

	"hvac_scheduler/internal/models"
)

// EquipmentRepo reads equipment configuration documents.
type EquipmentRepo interface {
	List(ctx context.Context) ([]models.EquipmentConfig, error)
	GetByID(ctx context.Context, id string) (*models.EquipmentConfig, error)
}

// ThresholdRepo manages threshold settings.
type ThresholdRepo interface {
	ListEnabled(ctx context.Context) ([]models.ThresholdSetting, error)
	List(ctx context.Context) ([]models.ThresholdSetting, error)
	Upsert(ctx context.Context, s models.ThresholdSetting) error
	Delete(ctx context.Context, id string) error
}

// AlarmRepo persists alarm documents.
type AlarmRepo interface {
	Create(ctx context.Context, a models.Alarm) error
	GetByID(ctx context.Context, id string) (*models.Alarm, error)
	FindActive(ctx context.Context, equipmentID, name string) (*models.Alarm, error)
	List(ctx context.Context, f AlarmFilter) ([]models.Alarm, error)
	MarkAcknowledged(ctx context.Context, id, by string, at time.Time) error
	MarkResolved(ctx context.Context, id, by string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// AlarmFilter narrows alarm listing.
type AlarmFilter struct {
	EquipmentID string
	LocationID  string
	ActiveOnly  bool
	From        time.Time
	To          time.Time
}

// TechnicianRepo reads notification recipients and locations.
type TechnicianRepo interface {
	ListTechnicians(ctx context.Context) ([]models.Technician, error)
	GetLocation(ctx context.Context, id string) (*models.Location, error)
	SearchLocationByID(ctx context.Context, idFragment string) (*models.Location, error)
}

// CommandRepo records operator-issued commands.
type CommandRepo interface {
	Append(ctx context.Context, c models.OperatorCommand) error
	HasRecent(ctx context.Context, equipmentID string, since time.Time) (bool, error)
}

// EventRepo is the append-only engine event log.
type EventRepo interface {
	Append(ctx context.Context, e models.EngineEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.EngineEvent, error)
}

type Repository struct {
	Equipment   EquipmentRepo
	Thresholds  ThresholdRepo
	Alarms      AlarmRepo
	Technicians TechnicianRepo
	Commands    CommandRepo
	Events      EventRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Equipment:   NewEquipmentSQLite(db),
		Thresholds:  NewThresholdSQLite(db),
		Alarms:      NewAlarmSQLite(db),
		Technicians: NewTechnicianSQLite(db),
		Commands:    NewCommandSQLite(db),
		Events:      NewEventSQLite(db),
	}
}
