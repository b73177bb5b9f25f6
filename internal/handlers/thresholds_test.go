package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestThresholdHandlers_UpsertGeneratesID(t *testing.T) {
	f := newHandlerFixture()

	body := bytes.NewBufferString(`{
		"equipment_id": "eq-1",
		"metric_name":  "SupplyTemp",
		"min": 60, "max": 85,
		"enabled": true
	}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/thresholds/", body)
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("upsert status=%d, body=%s", w.Code, w.Body.String())
	}
	var m map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &m)
	if id, _ := m["id"].(string); id == "" {
		t.Fatalf("upsert must return a generated id: %v", m)
	}

	if len(f.thresholds.upserted) != 1 {
		t.Fatalf("upserted: %d", len(f.thresholds.upserted))
	}
	s := f.thresholds.upserted[0]
	if s.EquipmentID != "eq-1" || s.MetricName != "SupplyTemp" || !s.Enabled {
		t.Errorf("stored setting: %+v", s)
	}
	if s.Min == nil || *s.Min != 60 || s.Max == nil || *s.Max != 85 {
		t.Errorf("bounds: %+v", s)
	}
	if s.UpdatedAt.IsZero() {
		t.Errorf("upsert must stamp updated_at")
	}
}

func TestThresholdHandlers_UpsertRejectsMissingFields(t *testing.T) {
	f := newHandlerFixture()

	// metric_name is required
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/thresholds/",
		bytes.NewBufferString(`{"equipment_id":"eq-1"}`))
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing metric_name, got %d", w.Code)
	}
	if len(f.thresholds.upserted) != 0 {
		t.Fatalf("invalid body must not reach the store")
	}
}

func TestThresholdHandlers_Delete(t *testing.T) {
	f := newHandlerFixture()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/thresholds/t-1", nil)
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("delete status=%d, body=%s", w.Code, w.Body.String())
	}
	if len(f.thresholds.deleted) != 1 || f.thresholds.deleted[0] != "t-1" {
		t.Fatalf("deleted: %v", f.thresholds.deleted)
	}
}
