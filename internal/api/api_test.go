package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/BrayneSnax/pdaok/internal/insight"
	"github.com/BrayneSnax/pdaok/internal/models"
	"github.com/BrayneSnax/pdaok/internal/state"
	"github.com/BrayneSnax/pdaok/internal/testutil"
	"github.com/BrayneSnax/pdaok/internal/transmit"
)

type stubGen struct {
	text string
	err  error
}

func (g stubGen) Generate(_ context.Context, _ string) (string, error) {
	return g.text, g.err
}

func testRouter(t *testing.T, gen stubGen) (chi.Router, *state.Controller) {
	t.Helper()
	ctrl, db := testutil.TestController(t)
	cfg := transmit.Config{
		PollInterval: 30 * time.Minute,
		MinGap:       20 * time.Hour,
		RecentWindow: 48 * time.Hour,
		MinSignal:    3,
	}
	sched := transmit.New(db, gen, testutil.Logger(), cfg, nil)
	reader := transmit.NewReader(db, sched, ctrl.BuildTransmissionContext, time.Minute, testutil.Logger())
	cache := insight.New(db, gen, testutil.Logger(), 5)
	return NewRouter(ctrl, reader, cache, false, "", nil), ctrl
}

func doJSON(t *testing.T, r chi.Router, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetStateSeeded(t *testing.T) {
	r, _ := testRouter(t, stubGen{})
	w := doJSON(t, r, http.MethodGet, "/state", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var doc models.Document
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.Allies) == 0 || len(doc.Items) == 0 {
		t.Errorf("expected seeded state, got %d allies, %d items", len(doc.Allies), len(doc.Items))
	}
	if doc.ActiveContainer == "" {
		t.Error("activeContainer missing")
	}
}

func TestRefreshContainer(t *testing.T) {
	r, _ := testRouter(t, stubGen{})
	w := doJSON(t, r, http.MethodPost, "/state/container", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp ContainerResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ActiveContainer == "" {
		t.Error("empty activeContainer")
	}
}

func TestAppendJournal(t *testing.T) {
	r, ctrl := testRouter(t, stubGen{})
	w := doJSON(t, r, http.MethodPost, "/journal", `{"text":"slow start","tone":"heavy","allyId":"ally-caffeine"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var m models.Moment
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatal(err)
	}
	if m.ID == "" || m.Timestamp == 0 || m.Date == "" {
		t.Errorf("defaults not filled: %+v", m)
	}
	if m.AllyName != "Caffeine" {
		t.Errorf("allyName = %q, want Caffeine", m.AllyName)
	}

	snap := ctrl.Snapshot()
	if len(snap.JournalEntries) != 1 {
		t.Errorf("journal entries = %d, want 1", len(snap.JournalEntries))
	}
}

func TestAppendJournalRejectsEmptyMoment(t *testing.T) {
	r, _ := testRouter(t, stubGen{})
	w := doJSON(t, r, http.MethodPost, "/journal", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestAppendJournalRejectsBadJSON(t *testing.T) {
	r, _ := testRouter(t, stubGen{})
	w := doJSON(t, r, http.MethodPost, "/journal", `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestUpsertItemValidation(t *testing.T) {
	r, _ := testRouter(t, stubGen{})

	w := doJSON(t, r, http.MethodPost, "/items", `{"container":"noon","category":"body","title":"X"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad container status = %d, want 400", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/items", `{"container":"morning","category":"body","title":"Cold Shower"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var it models.ContainerItem
	if err := json.Unmarshal(w.Body.Bytes(), &it); err != nil {
		t.Fatal(err)
	}
	if it.ID != "morning-cold-shower" {
		t.Errorf("id = %q", it.ID)
	}
}

func TestAddCompletionValidation(t *testing.T) {
	r, _ := testRouter(t, stubGen{})
	w := doJSON(t, r, http.MethodPost, "/completions", `{"itemId":"morning-water-first","date":"30/08/2026"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad date status = %d, want 400", w.Code)
	}
	w = doJSON(t, r, http.MethodPost, "/completions", `{"itemId":"morning-water-first","date":"2026-08-30"}`)
	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
}

func TestAddConversationValidation(t *testing.T) {
	r, _ := testRouter(t, stubGen{})
	w := doJSON(t, r, http.MethodPost, "/conversations", `{"entity":"The Witness","role":"narrator","text":"hi"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad role status = %d, want 400", w.Code)
	}
	w = doJSON(t, r, http.MethodPost, "/conversations", `{"entity":"The Witness","role":"user","text":"hi"}`)
	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", w.Code)
	}
}

func TestTransmissionEndpoints(t *testing.T) {
	r, _ := testRouter(t, stubGen{err: errors.New("not configured")})

	w := doJSON(t, r, http.MethodGet, "/transmissions", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var view transmit.View
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if view.Transmissions == nil {
		t.Error("transmissions should serialize as [], not null")
	}

	// Unknown id mark-read is a no-op, not an error.
	w = doJSON(t, r, http.MethodPost, "/transmissions/no-such-id/read", "")
	if w.Code != http.StatusNoContent {
		t.Errorf("mark read status = %d, want 204", w.Code)
	}

	// Quiet store: check creates nothing but still succeeds.
	w = doJSON(t, r, http.MethodPost, "/transmissions/check", "")
	if w.Code != http.StatusOK {
		t.Fatalf("check status = %d", w.Code)
	}
	var resp struct {
		Created []models.Transmission `json:"created"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Created == nil || len(resp.Created) != 0 {
		t.Errorf("created = %+v, want empty list", resp.Created)
	}

	w = doJSON(t, r, http.MethodDelete, "/transmissions", "")
	if w.Code != http.StatusNoContent {
		t.Errorf("clear status = %d, want 204", w.Code)
	}
}

func TestGetSynthesisDefaultsBelowThreshold(t *testing.T) {
	r, _ := testRouter(t, stubGen{text: "should not run"})
	w := doJSON(t, r, http.MethodGet, "/synthesis", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp SynthesisResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Text != insight.DefaultMessage {
		t.Errorf("text = %q, want default message", resp.Text)
	}
	if resp.Date == "" {
		t.Error("date missing")
	}
}

func TestAuthMiddleware(t *testing.T) {
	ctrl, db := testutil.TestController(t)
	sched := transmit.New(db, stubGen{}, testutil.Logger(), transmit.Config{
		PollInterval: time.Minute, MinGap: time.Hour, RecentWindow: time.Hour, MinSignal: 3,
	}, nil)
	reader := transmit.NewReader(db, sched, ctrl.BuildTransmissionContext, time.Minute, testutil.Logger())
	cache := insight.New(db, stubGen{}, testutil.Logger(), 5)
	r := NewRouter(ctrl, reader, cache, true, "s3cret", nil)

	w := doJSON(t, r, http.MethodGet, "/state", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/state", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong token status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/state", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("valid token status = %d, want 200", rec.Code)
	}
}
