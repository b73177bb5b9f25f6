package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"hvac_scheduler/internal/models"
)

func TestEquipmentHandlers_ListAndState(t *testing.T) {
	f := newHandlerFixture()
	f.equipment.list = []models.EquipmentConfig{
		{ID: "b1", LocationID: "loc-1", Type: "boiler-1"},
		{ID: "d1", LocationID: "loc-1", Type: "doas-1"},
	}
	if err := f.svc.Registry.Load(context.Background(), f.equipment); err != nil {
		t.Fatalf("registry load: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/equipment/", nil)
	f.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list status=%d, body=%s", w.Code, w.Body.String())
	}
	var m map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &m)
	if int(m["count"].(float64)) != 2 {
		t.Fatalf("expected count=2, got %v", m["count"])
	}

	// state for a known id, before any tick: equipment only, no state block
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/equipment/b1/state", nil)
	f.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("state status=%d, body=%s", w.Code, w.Body.String())
	}

	// unknown id is 404
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/equipment/missing/state", nil)
	f.router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown equipment, got %d", w.Code)
	}
}

func TestQueueHandlers_ListWaiting(t *testing.T) {
	f := newHandlerFixture()
	f.broker.waiting = []models.Job{
		{ID: "loc-1:b1:boiler-1", Priority: 20},
		{ID: "loc-1:b2:boiler-2", Priority: 5},
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/queue/waiting", nil)
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("waiting status=%d, body=%s", w.Code, w.Body.String())
	}
	var m map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &m)
	if int(m["count"].(float64)) != 2 {
		t.Fatalf("expected count=2, got %v", m["count"])
	}
}
