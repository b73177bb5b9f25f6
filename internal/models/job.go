package models

import (
	"fmt"
	"time"
)

// Job statuses. A job holds its dedup key for the full queued->active span;
// the key is released on any terminal status or on the cleanup timeout.
const (
	JobQueued    = "QUEUED"
	JobActive    = "ACTIVE"
	JobCompleted = "COMPLETED"
	JobFailed    = "FAILED"
)

// Job is one unit of scheduled control work. The ID doubles as the dedup
// key, so the broker itself deduplicates submissions.
type Job struct {
	ID          string    `json:"id"` // composite key, see JobKey
	EquipmentID string    `json:"equipment_id"`
	LocationID  string    `json:"location_id"`
	LogicType   string    `json:"logic_type"` // equipment type tag, e.g. "doas-1"
	Priority    int       `json:"priority"`
	Reason      string    `json:"reason"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
	Attempts    int       `json:"attempts,omitempty"`
}

// JobKey builds the composite dedup key. At most one outstanding job may
// exist per key at any time.
func JobKey(locationID, equipmentID, logicType string) string {
	return fmt.Sprintf("%s:%s:%s", locationID, equipmentID, logicType)
}
