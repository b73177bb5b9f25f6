package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hvac_scheduler/internal/events"
	"hvac_scheduler/internal/logger"
	"hvac_scheduler/internal/models"
	"hvac_scheduler/internal/notify"
	"hvac_scheduler/internal/repository"
)

// AlarmEngine owns alarm creation and dispatch. At most one active alarm
// exists per (equipment id, metric name); a violation against an already
// active key is a no-op.
type AlarmEngine struct {
	alarms      repository.AlarmRepo
	technicians repository.TechnicianRepo
	eventRepo   repository.EventRepo
	notifier    notify.Notifier
	hub         *events.Hub
	log         *logger.Logger
	now         func() time.Time
}

func NewAlarmEngine(
	alarms repository.AlarmRepo,
	technicians repository.TechnicianRepo,
	eventRepo repository.EventRepo,
	notifier notify.Notifier,
	hub *events.Hub,
	log *logger.Logger,
) *AlarmEngine {
	return &AlarmEngine{
		alarms:      alarms,
		technicians: technicians,
		eventRepo:   eventRepo,
		notifier:    notifier,
		hub:         hub,
		log:         log,
		now:         time.Now,
	}
}

// RaiseMaxViolation raises a critical alarm for a value above its
// adjusted maximum.
func (e *AlarmEngine) RaiseMaxViolation(ctx context.Context, eq models.EquipmentConfig, setting models.ThresholdSetting, value, limit float64) {
	msg := fmt.Sprintf("%s is %.1f, above the %.1f maximum", setting.MetricName, value, limit)
	e.raise(ctx, eq, setting, models.SeverityCritical, msg, value, limit)
}

// RaiseMinViolation raises a warning alarm for a value below its adjusted
// minimum.
func (e *AlarmEngine) RaiseMinViolation(ctx context.Context, eq models.EquipmentConfig, setting models.ThresholdSetting, value, limit float64) {
	msg := fmt.Sprintf("%s is %.1f, below the %.1f minimum", setting.MetricName, value, limit)
	e.raise(ctx, eq, setting, models.SeverityWarning, msg, value, limit)
}

// Raise creates an alarm for an arbitrary condition (used by health
// scoring as well as threshold violations).
func (e *AlarmEngine) Raise(ctx context.Context, eq models.EquipmentConfig, name, severity, message string, value, limit float64) {
	e.raise(ctx, eq, models.ThresholdSetting{MetricName: name}, severity, message, value, limit)
}

func (e *AlarmEngine) raise(ctx context.Context, eq models.EquipmentConfig, setting models.ThresholdSetting, severity, message string, value, limit float64) {
	existing, err := e.alarms.FindActive(ctx, eq.ID, setting.MetricName)
	if err != nil && !errors.Is(err, repository.ErrAlarmNotFound) {
		e.log.Warnw("active alarm lookup failed; skipping raise to avoid duplicates",
			"equipment_id", eq.ID, "metric", setting.MetricName, "err", err)
		return
	}
	if existing != nil {
		return
	}

	locationID, locationName := e.resolveLocation(ctx, eq, setting)
	alarm := models.Alarm{
		ID:            uuid.NewString(),
		Name:          setting.MetricName,
		EquipmentID:   eq.ID,
		EquipmentName: e.equipmentName(eq),
		LocationID:    locationID,
		LocationName:  locationName,
		Severity:      severity,
		Message:       message,
		Value:         value,
		Threshold:     limit,
		Active:        true,
		CreatedAt:     e.now().UTC(),
	}
	if err := e.alarms.Create(ctx, alarm); err != nil {
		e.log.Errorw("alarm persist failed",
			"equipment_id", eq.ID, "metric", setting.MetricName, "err", err)
		return
	}

	e.log.Infow("alarm raised",
		"alarm_id", alarm.ID, "equipment_id", eq.ID,
		"metric", setting.MetricName, "severity", severity, "value", value)
	e.record(ctx, models.EventAlarmRaised, message, alarm)
	e.dispatch(alarm)
}

// Acknowledge marks an alarm acknowledged by an operator.
func (e *AlarmEngine) Acknowledge(ctx context.Context, alarmID, by string) error {
	if err := e.alarms.MarkAcknowledged(ctx, alarmID, by, e.now().UTC()); err != nil {
		return err
	}
	e.record(ctx, models.EventAlarmAcked, "alarm acknowledged by "+by, models.Alarm{ID: alarmID})
	return nil
}

// Resolve marks an alarm resolved, freeing its dedup key.
func (e *AlarmEngine) Resolve(ctx context.Context, alarmID, by string) error {
	if err := e.alarms.MarkResolved(ctx, alarmID, by, e.now().UTC()); err != nil {
		return err
	}
	e.record(ctx, models.EventAlarmResolved, "alarm resolved by "+by, models.Alarm{ID: alarmID})
	return nil
}

// Delete removes an alarm document entirely.
func (e *AlarmEngine) Delete(ctx context.Context, alarmID string) error {
	return e.alarms.Delete(ctx, alarmID)
}

// resolveLocation fills in location id and display name. Fallback chain:
// explicit fields on the equipment document, direct location lookup,
// fuzzy search by id fragment, and finally the raw location key from the
// time-series side.
func (e *AlarmEngine) resolveLocation(ctx context.Context, eq models.EquipmentConfig, setting models.ThresholdSetting) (string, string) {
	locationID := eq.LocationID
	if locationID == "" {
		locationID = setting.LocationID
	}
	if eq.LocationName != "" {
		return locationID, eq.LocationName
	}
	if loc, err := e.technicians.GetLocation(ctx, locationID); err == nil && loc != nil {
		return locationID, loc.Name
	}
	if loc, err := e.technicians.SearchLocationByID(ctx, locationID); err == nil && loc != nil {
		return loc.ID, loc.Name
	}
	return locationID, locationID
}

func (e *AlarmEngine) equipmentName(eq models.EquipmentConfig) string {
	if eq.Name != "" {
		return eq.Name
	}
	return eq.ID
}

// dispatch sends the notification without blocking alarm creation.
// Delivery failure is logged, never propagated.
func (e *AlarmEngine) dispatch(alarm models.Alarm) {
	if e.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		recipients, techNames := e.recipientsFor(ctx, alarm.LocationID)
		payload := notify.BuildPayload(alarm, recipients, techNames)
		if err := e.notifier.Notify(ctx, payload); err != nil {
			e.log.Warnw("alarm notification failed",
				"alarm_id", alarm.ID, "err", err)
		}
	}()
}

func (e *AlarmEngine) recipientsFor(ctx context.Context, locationID string) ([]string, []string) {
	techs, err := e.technicians.ListTechnicians(ctx)
	if err != nil {
		e.log.Warnw("technician lookup failed", "location_id", locationID, "err", err)
		return nil, nil
	}
	var emails, names []string
	for _, t := range techs {
		if t.AssignedTo(locationID) {
			if t.Email != "" {
				emails = append(emails, t.Email)
			}
			names = append(names, t.Name)
		}
	}
	return emails, names
}

func (e *AlarmEngine) record(ctx context.Context, eventType, message string, alarm models.Alarm) {
	if e.eventRepo != nil {
		if err := e.eventRepo.Append(ctx, models.EngineEvent{
			Type:        eventType,
			Description: message,
			Metadata: map[string]any{
				"alarm_id":     alarm.ID,
				"equipment_id": alarm.EquipmentID,
				"severity":     alarm.Severity,
			},
		}); err != nil {
			e.log.Warnw("event log append failed", "type", eventType, "err", err)
		}
	}
	if e.hub != nil {
		e.hub.Publish(events.Event{Type: eventType, Data: alarm})
	}
}
