package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"hvac_scheduler/internal/events"
	"hvac_scheduler/internal/logger"
	"hvac_scheduler/internal/metricstore"
	"hvac_scheduler/internal/models"
	"hvac_scheduler/internal/repository"
	"hvac_scheduler/internal/service"
)

// ---- Repository Mocks ----

type mockEquipmentRepo struct {
	list []models.EquipmentConfig
	err  error
}

func (m *mockEquipmentRepo) List(ctx context.Context) ([]models.EquipmentConfig, error) {
	return m.list, m.err
}

func (m *mockEquipmentRepo) GetByID(ctx context.Context, id string) (*models.EquipmentConfig, error) {
	for _, eq := range m.list {
		if eq.ID == id {
			return &eq, nil
		}
	}
	return nil, nil
}

type mockThresholdRepo struct {
	settings []models.ThresholdSetting
	upserted []models.ThresholdSetting
	deleted  []string
	err      error
}

func (m *mockThresholdRepo) ListEnabled(ctx context.Context) ([]models.ThresholdSetting, error) {
	return m.settings, m.err
}

func (m *mockThresholdRepo) List(ctx context.Context) ([]models.ThresholdSetting, error) {
	return m.settings, m.err
}

func (m *mockThresholdRepo) Upsert(ctx context.Context, s models.ThresholdSetting) error {
	m.upserted = append(m.upserted, s)
	return m.err
}

func (m *mockThresholdRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return m.err
}

type mockAlarmRepo struct {
	alarms     []models.Alarm
	lastFilter repository.AlarmFilter
	acked      []string
	resolved   []string
	ackErr     error
	resolveErr error
	deleteErr  error
}

func (m *mockAlarmRepo) Create(ctx context.Context, a models.Alarm) error { return nil }

func (m *mockAlarmRepo) GetByID(ctx context.Context, id string) (*models.Alarm, error) {
	return nil, nil
}

func (m *mockAlarmRepo) FindActive(ctx context.Context, equipmentID, name string) (*models.Alarm, error) {
	return nil, nil
}

func (m *mockAlarmRepo) List(ctx context.Context, f repository.AlarmFilter) ([]models.Alarm, error) {
	m.lastFilter = f
	return m.alarms, nil
}

func (m *mockAlarmRepo) MarkAcknowledged(ctx context.Context, id, by string, at time.Time) error {
	if m.ackErr != nil {
		return m.ackErr
	}
	m.acked = append(m.acked, id)
	return nil
}

func (m *mockAlarmRepo) MarkResolved(ctx context.Context, id, by string, at time.Time) error {
	if m.resolveErr != nil {
		return m.resolveErr
	}
	m.resolved = append(m.resolved, id)
	return nil
}

func (m *mockAlarmRepo) Delete(ctx context.Context, id string) error { return m.deleteErr }

type mockTechRepo struct{}

func (m *mockTechRepo) ListTechnicians(ctx context.Context) ([]models.Technician, error) {
	return nil, nil
}

func (m *mockTechRepo) GetLocation(ctx context.Context, id string) (*models.Location, error) {
	return nil, nil
}

func (m *mockTechRepo) SearchLocationByID(ctx context.Context, idFragment string) (*models.Location, error) {
	return nil, nil
}

type mockCommandRepo struct {
	appended []models.OperatorCommand
	err      error
}

func (m *mockCommandRepo) Append(ctx context.Context, c models.OperatorCommand) error {
	m.appended = append(m.appended, c)
	return m.err
}

func (m *mockCommandRepo) HasRecent(ctx context.Context, equipmentID string, since time.Time) (bool, error) {
	return false, nil
}

type mockEventRepo struct {
	events   []models.EngineEvent
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventRepo) Append(ctx context.Context, e models.EngineEvent) error { return nil }

func (m *mockEventRepo) List(ctx context.Context, from, to time.Time, typ string) ([]models.EngineEvent, error) {
	m.lastFrom = from
	m.lastTo = to
	m.lastType = typ
	return m.events, nil
}

// ---- Infrastructure Mocks ----

type mockMetricStore struct{}

func (m *mockMetricStore) FetchWindow(ctx context.Context, equipmentID, locationID string, window time.Duration, limit int) ([]metricstore.Row, error) {
	return nil, nil
}

func (m *mockMetricStore) FetchLocationWindow(ctx context.Context, locationID string, window time.Duration, limit int) ([]metricstore.Row, error) {
	return nil, nil
}

type mockBroker struct {
	waiting []models.Job
	active  []models.Job
}

func (m *mockBroker) Enqueue(ctx context.Context, job models.Job) (bool, error) { return true, nil }
func (m *mockBroker) Next(ctx context.Context) (*models.Job, error)             { return nil, nil }
func (m *mockBroker) Discard(ctx context.Context, jobID string) error           { return nil }

func (m *mockBroker) ListWaiting(ctx context.Context) ([]models.Job, error) {
	return m.waiting, nil
}

func (m *mockBroker) ListActive(ctx context.Context) ([]models.Job, error) {
	return m.active, nil
}

// ---- Shared Test Helpers ----

type handlerFixture struct {
	router     *gin.Engine
	svc        *service.Service
	equipment  *mockEquipmentRepo
	thresholds *mockThresholdRepo
	alarms     *mockAlarmRepo
	commands   *mockCommandRepo
	eventLog   *mockEventRepo
	broker     *mockBroker
}

func newHandlerFixture() *handlerFixture {
	f := &handlerFixture{
		equipment:  &mockEquipmentRepo{},
		thresholds: &mockThresholdRepo{},
		alarms:     &mockAlarmRepo{},
		commands:   &mockCommandRepo{},
		eventLog:   &mockEventRepo{},
		broker:     &mockBroker{},
	}
	repo := &repository.Repository{
		Equipment:   f.equipment,
		Thresholds:  f.thresholds,
		Alarms:      f.alarms,
		Technicians: &mockTechRepo{},
		Commands:    f.commands,
		Events:      f.eventLog,
	}
	f.svc = service.New(repo, &mockMetricStore{}, f.broker, nil,
		events.NewHub(), logger.Get(logger.ErrorLevel), service.Options{})
	f.router = newTestRouter(f.svc)
	return f
}

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}
