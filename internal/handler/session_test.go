package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukerupert/sutradhaar/internal/editor"
	"github.com/dukerupert/sutradhaar/internal/model"
)

func TestSessionSaveLifecycle(t *testing.T) {
	env := newTestEnv(t)
	sid := env.openNew(t, alice)

	rec := env.do(t, alice, "PATCH", "/api/sessions/"+sid+"/draft", map[string]any{
		"title":            "Groceries",
		"content":          "<p>milk, eggs</p>",
		"is_favorite":      true,
		"background_style": "lines",
	})
	expectStatus(t, rec, http.StatusOK)
	v := decode[editor.View](t, rec)
	if !v.Dirty || !v.GuardExit || v.Draft.BackgroundStyle != model.BackgroundLines {
		t.Fatalf("after edit view = %+v", v)
	}

	rec = env.do(t, alice, "POST", "/api/sessions/"+sid+"/save", nil)
	expectStatus(t, rec, http.StatusOK)
	v = decode[editor.View](t, rec)
	if v.State != editor.StateSaved || v.NoteID == "" {
		t.Fatalf("after save view = %+v", v)
	}
	if len(v.Notices) != 1 || v.Notices[0].Message != "Note saved" {
		t.Errorf("notices = %+v", v.Notices)
	}

	rec = env.do(t, alice, "GET", "/api/sessions/"+sid, nil)
	expectStatus(t, rec, http.StatusNotFound)

	rec = env.do(t, alice, "GET", "/api/notes", nil)
	expectStatus(t, rec, http.StatusOK)
	list := decode[[]model.Note](t, rec)
	if len(list) != 1 || list[0].Title != "Groceries" || !list[0].IsFavorite {
		t.Errorf("notes = %+v", list)
	}
}

func TestSessionRejectsEmptySave(t *testing.T) {
	env := newTestEnv(t)
	sid := env.openNew(t, alice)

	rec := env.do(t, alice, "POST", "/api/sessions/"+sid+"/save", nil)
	expectStatus(t, rec, http.StatusBadRequest)
	body := decode[map[string]string](t, rec)
	if body["error"] != "Please add a title or some content before saving" {
		t.Errorf("error = %q", body["error"])
	}

	// The session stays open after a rejected save.
	rec = env.do(t, alice, "GET", "/api/sessions/"+sid, nil)
	expectStatus(t, rec, http.StatusOK)
}

func TestSessionInvalidBackground(t *testing.T) {
	env := newTestEnv(t)
	sid := env.openNew(t, alice)

	rec := env.do(t, alice, "PATCH", "/api/sessions/"+sid+"/draft", map[string]string{"background_style": "plaid"})
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestSessionLeave(t *testing.T) {
	env := newTestEnv(t)
	sid := env.openNew(t, alice)
	env.do(t, alice, "PATCH", "/api/sessions/"+sid+"/draft", map[string]string{"title": "draft"})

	rec := env.do(t, alice, "POST", "/api/sessions/"+sid+"/leave", nil)
	expectStatus(t, rec, http.StatusConflict)

	rec = env.do(t, alice, "POST", "/api/sessions/"+sid+"/leave", map[string]bool{"discard": true})
	expectStatus(t, rec, http.StatusOK)
	if v := decode[editor.View](t, rec); v.State != editor.StateDiscarded {
		t.Errorf("state = %v", v.State)
	}

	rec = env.do(t, alice, "GET", "/api/notes", nil)
	if list := decode[[]model.Note](t, rec); len(list) != 0 {
		t.Errorf("discarded draft was stored: %+v", list)
	}
}

func TestSessionBelongsToOwner(t *testing.T) {
	env := newTestEnv(t)
	sid := env.openNew(t, alice)

	rec := env.do(t, guest, "GET", "/api/sessions/"+sid, nil)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestOpenMissingNote(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, alice, "POST", "/api/sessions", map[string]string{"note_id": "nope"})
	expectStatus(t, rec, http.StatusNotFound)

	rec = env.do(t, guest, "POST", "/api/sessions", map[string]string{"note_id": "nope"})
	expectStatus(t, rec, http.StatusOK)
	if v := decode[editor.View](t, rec); v.State != editor.StateDiscarded {
		t.Errorf("guest state = %v, want discarded", v.State)
	}
}

func TestDeleteAndRestore(t *testing.T) {
	env := newTestEnv(t)
	id := env.createNote(t, alice, "Old", "")

	rec := env.do(t, alice, "POST", "/api/sessions", map[string]string{"note_id": id})
	expectStatus(t, rec, http.StatusCreated)
	sid := decode[editor.View](t, rec).SessionID

	rec = env.do(t, alice, "POST", "/api/sessions/"+sid+"/delete", nil)
	expectStatus(t, rec, http.StatusOK)
	if v := decode[editor.View](t, rec); v.State != editor.StateDeleted {
		t.Fatalf("state = %v", v.State)
	}

	rec = env.do(t, alice, "GET", "/api/notes/trash", nil)
	if trash := decode[[]model.Note](t, rec); len(trash) != 1 || trash[0].ID != id {
		t.Fatalf("trash = %+v", trash)
	}
	rec = env.do(t, alice, "GET", "/api/notes", nil)
	if list := decode[[]model.Note](t, rec); len(list) != 0 {
		t.Fatalf("active = %+v", list)
	}

	rec = env.do(t, alice, "POST", "/api/notes/"+id+"/restore", nil)
	expectStatus(t, rec, http.StatusOK)
	rec = env.do(t, alice, "GET", "/api/notes", nil)
	if list := decode[[]model.Note](t, rec); len(list) != 1 {
		t.Errorf("restored note missing: %+v", list)
	}
}

func TestLockFlow(t *testing.T) {
	env := newTestEnv(t)
	sid := env.openNew(t, alice)
	env.do(t, alice, "PATCH", "/api/sessions/"+sid+"/draft", map[string]string{"title": "Diary", "content": "secret"})

	rec := env.do(t, alice, "POST", "/api/sessions/"+sid+"/lock", nil)
	expectStatus(t, rec, http.StatusOK)
	lr := decode[lockResponse](t, rec)
	if !lr.NeedsPassword || !lr.PasswordFlow || lr.Draft.IsLocked {
		t.Fatalf("lock without password = %+v", lr)
	}

	rec = env.do(t, alice, "POST", "/api/sessions/"+sid+"/password", map[string]string{"password": "abcd", "confirm": "abce"})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = env.do(t, alice, "POST", "/api/sessions/"+sid+"/password", map[string]string{"password": "abcd", "confirm": "abcd"})
	expectStatus(t, rec, http.StatusOK)
	if v := decode[editor.View](t, rec); !v.Draft.IsLocked || v.PasswordFlow {
		t.Fatalf("after password view = %+v", v)
	}

	rec = env.do(t, alice, "POST", "/api/sessions/"+sid+"/save", nil)
	expectStatus(t, rec, http.StatusOK)
	id := decode[editor.View](t, rec).NoteID

	rec = env.do(t, alice, "GET", "/api/notes", nil)
	list := decode[[]model.Note](t, rec)
	if len(list) != 1 || !list[0].IsLocked || list[0].Content != "" {
		t.Errorf("locked note not redacted: %+v", list)
	}

	rec = env.do(t, alice, "GET", "/api/notes/"+id, nil)
	expectStatus(t, rec, http.StatusForbidden)

	req := httptest.NewRequest("GET", "/api/notes/"+id, nil)
	req.Header.Set(notePasswordHeader, "abcd")
	rec = env.request(t, alice, req)
	expectStatus(t, rec, http.StatusOK)
	if n := decode[model.Note](t, rec); n.Content != "secret" {
		t.Errorf("content = %q", n.Content)
	}

	rec = env.do(t, alice, "POST", "/api/sessions", map[string]string{"note_id": id})
	expectStatus(t, rec, http.StatusForbidden)
	rec = env.do(t, alice, "POST", "/api/sessions", map[string]string{"note_id": id, "password": "abcd"})
	expectStatus(t, rec, http.StatusCreated)
}

func multipartFile(t *testing.T, name string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write(data)
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestAttachment(t *testing.T) {
	env := newTestEnv(t)
	sid := env.openNew(t, alice)

	body, ct := multipartFile(t, "list.txt", []byte("milk\neggs\n"))
	req := httptest.NewRequest("PUT", "/api/sessions/"+sid+"/attachment", body)
	req.Header.Set("Content-Type", ct)
	rec := env.request(t, alice, req)
	expectStatus(t, rec, http.StatusOK)
	v := decode[editor.View](t, rec)
	if v.Draft.Attachment == nil || v.Draft.Attachment.Name != "list.txt" {
		t.Fatalf("attachment = %+v", v.Draft.Attachment)
	}
	if !strings.HasPrefix(v.Draft.Attachment.DataURL, "data:text/plain;base64,") {
		t.Errorf("data url = %q", v.Draft.Attachment.DataURL)
	}

	body, ct = multipartFile(t, "big.bin", bytes.Repeat([]byte{1}, 2048))
	req = httptest.NewRequest("PUT", "/api/sessions/"+sid+"/attachment", body)
	req.Header.Set("Content-Type", ct)
	rec = env.request(t, alice, req)
	expectStatus(t, rec, http.StatusBadRequest)

	req = httptest.NewRequest("PUT", "/api/sessions/"+sid+"/attachment", strings.NewReader("nope"))
	rec = env.request(t, alice, req)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = env.do(t, alice, "DELETE", "/api/sessions/"+sid+"/attachment", nil)
	expectStatus(t, rec, http.StatusOK)
	if v := decode[editor.View](t, rec); v.Draft.Attachment != nil {
		t.Errorf("attachment not removed: %+v", v.Draft.Attachment)
	}
}

func TestExport(t *testing.T) {
	env := newTestEnv(t)
	edit := map[string]string{"title": "Groceries", "category": "home", "content": "<p>milk</p>"}

	sid := env.openNew(t, alice)
	env.do(t, alice, "PATCH", "/api/sessions/"+sid+"/draft", edit)
	rec := env.do(t, alice, "GET", "/api/sessions/"+sid+"/export?format=txt", nil)
	expectStatus(t, rec, http.StatusPaymentRequired)

	if err := env.settings.SetPremium(alice.Owner(), true); err != nil {
		t.Fatalf("set premium: %v", err)
	}
	sid = env.openNew(t, alice)
	env.do(t, alice, "PATCH", "/api/sessions/"+sid+"/draft", edit)

	rec = env.do(t, alice, "GET", "/api/sessions/"+sid+"/export?format=doc", nil)
	expectStatus(t, rec, http.StatusBadRequest)

	rec = env.do(t, alice, "GET", "/api/sessions/"+sid+"/export?format=txt", nil)
	expectStatus(t, rec, http.StatusOK)
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename=Groceries.txt` {
		t.Errorf("content disposition = %q", cd)
	}
	if got := rec.Body.String(); got != "Title: Groceries\nCategory: home\n\nmilk" {
		t.Errorf("body = %q", got)
	}

	rec = env.do(t, alice, "GET", "/api/sessions/"+sid+"/export?format=pdf", nil)
	expectStatus(t, rec, http.StatusOK)
	if rec.Header().Get("Content-Type") != "application/pdf" || !strings.HasPrefix(rec.Body.String(), "%PDF-") {
		t.Errorf("pdf export: %q", rec.Header().Get("Content-Type"))
	}
}

func TestDraftSizeLimits(t *testing.T) {
	env := newTestEnv(t)
	sid := env.openNew(t, alice)
	path := "/api/sessions/" + sid + "/draft"

	rec := env.do(t, alice, "PATCH", path, map[string]string{"content": strings.Repeat("x", editor.MaxContentBytes+1)})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = env.do(t, alice, "PATCH", path, map[string]string{"content": strings.Repeat("x", 2<<20)})
	expectStatus(t, rec, http.StatusBadRequest)

	rec = env.do(t, alice, "GET", "/api/sessions/"+sid, nil)
	if v := decode[editor.View](t, rec); v.Dirty || v.Draft.Content != "" {
		t.Errorf("oversized content reached the draft: dirty=%v len=%d", v.Dirty, len(v.Draft.Content))
	}
}
