package models

import "time"

// EngineEvent is a single append-only log entry for scheduler and alarm
// lifecycle transitions.
type EngineEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // JOB_SUBMITTED | JOB_COMPLETED | JOB_FAILED | JOB_TIMEOUT | ALARM_RAISED | ALARM_ACKED | ALARM_RESOLVED
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}

// Engine event types.
const (
	EventJobSubmitted  = "JOB_SUBMITTED"
	EventJobCompleted  = "JOB_COMPLETED"
	EventJobFailed     = "JOB_FAILED"
	EventJobTimeout    = "JOB_TIMEOUT"
	EventAlarmRaised   = "ALARM_RAISED"
	EventAlarmAcked    = "ALARM_ACKED"
	EventAlarmResolved = "ALARM_RESOLVED"
)

// OperatorCommand is a command issued through the operator surface for a
// specific equipment. Recent commands force a control pass on the next
// tick.
type OperatorCommand struct {
	ID          string    `json:"id"`
	EquipmentID string    `json:"equipment_id"`
	Command     string    `json:"command"`
	Value       string    `json:"value,omitempty"`
	IssuedBy    string    `json:"issued_by,omitempty"`
	IssuedAt    time.Time `json:"issued_at"`
}
