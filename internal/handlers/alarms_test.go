package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hvac_scheduler/internal/models"
	"hvac_scheduler/internal/repository"
)

func TestAlarmHandlers_ListBuildsFilter(t *testing.T) {
	f := newHandlerFixture()
	f.alarms.alarms = []models.Alarm{{ID: "a-1"}, {ID: "a-2"}}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/alarms/?equipment_id=eq-1&active=true&from=2026-03-01&to=2026-03-02", nil)
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("list status=%d, body=%s", w.Code, w.Body.String())
	}
	var m map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &m)
	if int(m["count"].(float64)) != 2 {
		t.Fatalf("expected count=2, got %v", m["count"])
	}

	got := f.alarms.lastFilter
	if got.EquipmentID != "eq-1" || !got.ActiveOnly {
		t.Errorf("filter: %+v", got)
	}
	if got.From != time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) {
		t.Errorf("from: %v", got.From)
	}
	// a date-only 'to' covers the whole day
	if !got.To.After(time.Date(2026, 3, 2, 23, 59, 59, 0, time.UTC)) {
		t.Errorf("date-only 'to' must extend to end of day: %v", got.To)
	}
}

func TestAlarmHandlers_ListRejectsBadTime(t *testing.T) {
	f := newHandlerFixture()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/alarms/?from=yesterday", nil)
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a bad 'from', got %d", w.Code)
	}
}

func TestAlarmHandlers_AckAndResolve(t *testing.T) {
	f := newHandlerFixture()

	body := bytes.NewBufferString(`{"by":"dana"}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/alarms/a-1/ack", body)
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("ack status=%d, body=%s", w.Code, w.Body.String())
	}
	if len(f.alarms.acked) != 1 || f.alarms.acked[0] != "a-1" {
		t.Fatalf("acked: %v", f.alarms.acked)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/alarms/a-1/resolve", bytes.NewBufferString(`{"by":"dana"}`))
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("resolve status=%d, body=%s", w.Code, w.Body.String())
	}
	if len(f.alarms.resolved) != 1 {
		t.Fatalf("resolved: %v", f.alarms.resolved)
	}
}

func TestAlarmHandlers_UnknownAlarmIs404(t *testing.T) {
	f := newHandlerFixture()
	f.alarms.ackErr = repository.ErrAlarmNotFound

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/alarms/missing/ack", nil)
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown alarm, got %d", w.Code)
	}
}
