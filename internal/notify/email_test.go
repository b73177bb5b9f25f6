package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"hvac_scheduler/internal/models"
)

func TestBridgeNotifier_PostsPayload(t *testing.T) {
	t.Parallel()

	var got Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method: want POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type: %q", ct)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	n := NewBridgeNotifier(srv.URL, time.Second)
	err := n.Notify(context.Background(), Payload{
		AlarmType:  "SupplyTemp",
		AlarmID:    "a-1",
		Severity:   "critical",
		Recipients: []string{"dana@example.com"},
	})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if got.AlarmID != "a-1" || got.Severity != "critical" {
		t.Fatalf("bridge received %+v", got)
	}
}

func TestBridgeNotifier_RetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
	}))
	defer srv.Close()

	n := NewBridgeNotifier(srv.URL, time.Second)
	n.backoff = time.Millisecond

	if err := n.Notify(context.Background(), Payload{AlarmID: "a-1"}); err != nil {
		t.Fatalf("Notify should succeed on the third attempt: %v", err)
	}
	if hits.Load() != 3 {
		t.Fatalf("want 3 attempts, got %d", hits.Load())
	}
}

func TestBridgeNotifier_GivesUpAfterBoundedAttempts(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewBridgeNotifier(srv.URL, time.Second)
	n.backoff = time.Millisecond

	if err := n.Notify(context.Background(), Payload{AlarmID: "a-1"}); err == nil {
		t.Fatalf("persistent failure must surface an error")
	}
	if hits.Load() != 3 {
		t.Fatalf("attempts must stop at the bound, got %d", hits.Load())
	}
}

func TestBuildPayload(t *testing.T) {
	t.Parallel()

	a := models.Alarm{
		ID:            "a-1",
		Name:          "SupplyTemp",
		Message:       "too hot",
		LocationID:    "loc-1",
		LocationName:  "North Plant",
		EquipmentName: "Boiler 1",
		Severity:      models.SeverityCritical,
	}
	p := BuildPayload(a, []string{"dana@example.com"}, []string{"Dana"})

	if p.AlarmType != "SupplyTemp" || p.Details != "too hot" || p.AlarmID != "a-1" {
		t.Errorf("identity fields: %+v", p)
	}
	if p.LocationName != "North Plant" || p.EquipmentName != "Boiler 1" {
		t.Errorf("resolved names: %+v", p)
	}
	if len(p.Recipients) != 1 || len(p.AssignedTechs) != 1 {
		t.Errorf("recipient lists: %+v", p)
	}
}
