package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCommandHandlers_IssueRecordsCommand(t *testing.T) {
	f := newHandlerFixture()

	body := bytes.NewBufferString(`{"equipment_id":"eq-1","command":"force_run","issued_by":"dana"}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/commands/", body)
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("issue status=%d, body=%s", w.Code, w.Body.String())
	}
	if len(f.commands.appended) != 1 {
		t.Fatalf("appended: %d", len(f.commands.appended))
	}
	c := f.commands.appended[0]
	if c.EquipmentID != "eq-1" || c.Command != "force_run" || c.IssuedBy != "dana" {
		t.Errorf("stored command: %+v", c)
	}
	if c.ID == "" || c.IssuedAt.IsZero() {
		t.Errorf("command must get an id and timestamp: %+v", c)
	}
}

func TestCommandHandlers_MissingCommandIs400(t *testing.T) {
	f := newHandlerFixture()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/commands/",
		bytes.NewBufferString(`{"equipment_id":"eq-1"}`))
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing command, got %d", w.Code)
	}
	if len(f.commands.appended) != 0 {
		t.Fatalf("invalid body must not reach the store")
	}
}
