package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"hvac_scheduler/internal/models"
)

func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return c
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

var alarmColumns = []string{
	"id", "name", "equipment_id", "equipment_name", "location_id", "location_name",
	"severity", "message", "value", "threshold", "active", "acknowledged", "resolved",
	"created_at", "acknowledged_at", "acknowledged_by", "resolved_at", "resolved_by",
}

func TestAlarmCreate_GeneratesID(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	repo := NewAlarmSQLite(db)

	mock.ExpectExec("INSERT INTO alarms").
		WithArgs(
			sqlmock.AnyArg(), "SupplyTemp", "eq-1", "Boiler 1", "loc-1", "North Plant",
			models.SeverityCritical, "too hot", 172.0, 160.0, true, false, false,
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(testCtx(t), models.Alarm{
		Name:          "SupplyTemp",
		EquipmentID:   "eq-1",
		EquipmentName: "Boiler 1",
		LocationID:    "loc-1",
		LocationName:  "North Plant",
		Severity:      models.SeverityCritical,
		Message:       "too hot",
		Value:         172,
		Threshold:     160,
		Active:        true,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestAlarmFindActive_Hit(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	repo := NewAlarmSQLite(db)

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE equipment_id = ? AND name = ? AND active = 1 LIMIT 1")).
		WithArgs("eq-1", "SupplyTemp").
		WillReturnRows(sqlmock.NewRows(alarmColumns).AddRow(
			"a-1", "SupplyTemp", "eq-1", "Boiler 1", "loc-1", "North Plant",
			models.SeverityCritical, "too hot", 172.0, 160.0, true, false, false,
			created, nil, nil, nil, nil,
		))

	a, err := repo.FindActive(testCtx(t), "eq-1", "SupplyTemp")
	if err != nil {
		t.Fatalf("FindActive: %v", err)
	}
	if a == nil || a.ID != "a-1" || !a.Active {
		t.Fatalf("FindActive returned %+v", a)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestAlarmFindActive_MissReturnsNilNil(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	repo := NewAlarmSQLite(db)

	mock.ExpectQuery("FROM alarms").
		WithArgs("eq-1", "SupplyTemp").
		WillReturnRows(sqlmock.NewRows(alarmColumns))

	a, err := repo.FindActive(testCtx(t), "eq-1", "SupplyTemp")
	if err != nil {
		t.Fatalf("FindActive miss must not error: %v", err)
	}
	if a != nil {
		t.Fatalf("FindActive miss must return nil, got %+v", a)
	}
}

func TestAlarmMarkResolved_ClearsActive(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	repo := NewAlarmSQLite(db)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE alarms SET active = 0, resolved = 1, resolved_at = ?, resolved_by = ?")).
		WithArgs(at, "dana", "a-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkResolved(testCtx(t), "a-1", "dana", at); err != nil {
		t.Fatalf("MarkResolved: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestAlarmMarkResolved_UnknownID(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	repo := NewAlarmSQLite(db)

	mock.ExpectExec("UPDATE alarms").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkResolved(testCtx(t), "missing", "dana", time.Now())
	if !errors.Is(err, ErrAlarmNotFound) {
		t.Fatalf("want ErrAlarmNotFound, got %v", err)
	}
}

func TestAlarmList_BuildsFilter(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	repo := NewAlarmSQLite(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE equipment_id = ? AND active = 1 ORDER BY created_at DESC")).
		WithArgs("eq-1").
		WillReturnRows(sqlmock.NewRows(alarmColumns))

	_, err := repo.List(testCtx(t), AlarmFilter{EquipmentID: "eq-1", ActiveOnly: true})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("mock expectations: %v", err)
	}
}

func TestAlarmDelete_UnknownID(t *testing.T) {
	t.Parallel()

	db, mock := newMock(t)
	repo := NewAlarmSQLite(db)

	mock.ExpectExec("DELETE FROM alarms").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(testCtx(t), "missing"); !errors.Is(err, ErrAlarmNotFound) {
		t.Fatalf("want ErrAlarmNotFound, got %v", err)
	}
}
