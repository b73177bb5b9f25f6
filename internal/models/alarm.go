package models

import "time"

// Alarm severities.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Alarm is one raised condition. Lifecycle: created(active) ->
// acknowledged (optional) -> resolved, or deleted by explicit operator
// action. At most one active alarm exists per (equipment id, name).
type Alarm struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"` // metric name, e.g. "SupplyTemp"
	EquipmentID    string    `json:"equipment_id"`
	EquipmentName  string    `json:"equipment_name"`
	LocationID     string    `json:"location_id"`
	LocationName   string    `json:"location_name"`
	Severity       string    `json:"severity"` // info | warning | critical
	Message        string    `json:"message"`
	Value          float64   `json:"value"`
	Threshold      float64   `json:"threshold"`
	Active         bool      `json:"active"`
	Acknowledged   bool      `json:"acknowledged"`
	Resolved       bool      `json:"resolved"`
	CreatedAt      time.Time `json:"created_at"`
	AcknowledgedAt time.Time `json:"acknowledged_at,omitempty"`
	AcknowledgedBy string    `json:"acknowledged_by,omitempty"`
	ResolvedAt     time.Time `json:"resolved_at,omitempty"`
	ResolvedBy     string    `json:"resolved_by,omitempty"`
}

// Technician is a notification recipient for one or more locations.
type Technician struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Email             string   `json:"email"`
	AssignedLocations []string `json:"assigned_locations,omitempty"`
	LocationID        string   `json:"location_id,omitempty"`
}

// AssignedTo reports whether the technician covers the given location,
// either through the assignment list or the single-location field.
func (t Technician) AssignedTo(locationID string) bool {
	if t.LocationID == locationID {
		return true
	}
	for _, id := range t.AssignedLocations {
		if id == locationID {
			return true
		}
	}
	return false
}

// Location is a physical site.
type Location struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
