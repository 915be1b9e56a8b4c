package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/sutradhaar/internal/auth"
	"github.com/dukerupert/sutradhaar/internal/calc"
	"github.com/dukerupert/sutradhaar/internal/database"
	"github.com/dukerupert/sutradhaar/internal/editor"
	"github.com/dukerupert/sutradhaar/internal/notes"
	"github.com/dukerupert/sutradhaar/internal/settings"
	"github.com/dukerupert/sutradhaar/internal/store"
)

var (
	alice = auth.User("alice@example.com")
	guest = auth.Guest("5b0f2a9e-3c1d-4e8f-9a7b-6c5d4e3f2a1b")
)

type testEnv struct {
	mux      *http.ServeMux
	settings *store.SettingsStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gs := store.NewGuestStore(t.TempDir())
	us := store.NewSettingsStore(db)
	ns := notes.NewService(store.NewNoteStore(db), gs, nil, logger)
	ss := settings.NewService(us, gs.Settings(), nil, logger)
	mgr := editor.NewManager(ns, ss, logger, editor.Options{MaxAttachmentBytes: 1024})
	t.Cleanup(func() { mgr.Shutdown() })

	noteH := NewNoteHandler(ns, ss, logger)
	sessionH := NewSessionHandler(mgr, ns, ss, 1024, logger)
	settingsH := NewSettingsHandler(ss, logger)
	calcH := NewCalculatorHandler(calc.NewRegistry(), ss, logger)
	convH := NewConverterHandler(ss, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/notes", noteH.List)
	mux.HandleFunc("GET /api/notes/trash", noteH.Trash)
	mux.HandleFunc("GET /api/notes/stats", noteH.Stats)
	mux.HandleFunc("GET /api/notes/{id}", noteH.Get)
	mux.HandleFunc("POST /api/notes/{id}/restore", noteH.Restore)
	mux.HandleFunc("POST /api/sessions", sessionH.Open)
	mux.HandleFunc("GET /api/sessions/{sid}", sessionH.Get)
	mux.HandleFunc("PATCH /api/sessions/{sid}/draft", sessionH.UpdateDraft)
	mux.HandleFunc("POST /api/sessions/{sid}/save", sessionH.Save)
	mux.HandleFunc("POST /api/sessions/{sid}/delete", sessionH.Delete)
	mux.HandleFunc("POST /api/sessions/{sid}/lock", sessionH.ToggleLock)
	mux.HandleFunc("POST /api/sessions/{sid}/password", sessionH.CreatePassword)
	mux.HandleFunc("DELETE /api/sessions/{sid}/password", sessionH.CancelPassword)
	mux.HandleFunc("PUT /api/sessions/{sid}/attachment", sessionH.Attach)
	mux.HandleFunc("DELETE /api/sessions/{sid}/attachment", sessionH.RemoveAttachment)
	mux.HandleFunc("GET /api/sessions/{sid}/export", sessionH.Export)
	mux.HandleFunc("POST /api/sessions/{sid}/leave", sessionH.Leave)
	mux.HandleFunc("GET /api/settings", settingsH.Get)
	mux.HandleFunc("PATCH /api/settings", settingsH.Update)
	mux.HandleFunc("POST /api/settings/note-password/verify", settingsH.VerifyPassword)
	mux.HandleFunc("PUT /api/settings/note-password", settingsH.ChangePassword)
	mux.HandleFunc("GET /api/calculator", calcH.Get)
	mux.HandleFunc("POST /api/calculator/input", calcH.Input)
	mux.HandleFunc("POST /api/calculator/calculate", calcH.Calculate)
	mux.HandleFunc("DELETE /api/calculator/history/{index}", calcH.RemoveHistory)
	mux.HandleFunc("POST /api/calculator/evaluate", calcH.Evaluate)
	mux.HandleFunc("GET /api/converter/categories", convH.Categories)
	mux.HandleFunc("POST /api/converter/convert", convH.Convert)

	return &testEnv{mux: mux, settings: us}
}

func (e *testEnv) request(t *testing.T, id auth.Identity, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	req = req.WithContext(auth.WithIdentity(req.Context(), id))
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) do(t *testing.T, id auth.Identity, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	return e.request(t, id, httptest.NewRequest(method, path, r))
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body %s", rec.Code, want, rec.Body.String())
	}
}

// openNew starts a session on a blank note and returns its id.
func (e *testEnv) openNew(t *testing.T, id auth.Identity) string {
	t.Helper()
	rec := e.do(t, id, "POST", "/api/sessions", map[string]string{"note_id": "new"})
	expectStatus(t, rec, http.StatusCreated)
	return decode[editor.View](t, rec).SessionID
}

// createNote saves a note through a session and returns its id.
func (e *testEnv) createNote(t *testing.T, id auth.Identity, title, content string) string {
	t.Helper()
	sid := e.openNew(t, id)
	rec := e.do(t, id, "PATCH", "/api/sessions/"+sid+"/draft", map[string]string{"title": title, "content": content})
	expectStatus(t, rec, http.StatusOK)
	rec = e.do(t, id, "POST", "/api/sessions/"+sid+"/save", nil)
	expectStatus(t, rec, http.StatusOK)
	return decode[editor.View](t, rec).NoteID
}
