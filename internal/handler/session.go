package handler

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/dukerupert/sutradhaar/internal/apperr"
	"github.com/dukerupert/sutradhaar/internal/editor"
	"github.com/dukerupert/sutradhaar/internal/export"
	"github.com/dukerupert/sutradhaar/internal/model"
	"github.com/dukerupert/sutradhaar/internal/notes"
	"github.com/dukerupert/sutradhaar/internal/settings"
)

// multipartOverhead is the slack allowed on top of the attachment limit for
// form boundaries and headers.
const multipartOverhead = 64 << 10

type SessionHandler struct {
	manager  *editor.Manager
	notes    *notes.Service
	settings *settings.Service
	logger   *slog.Logger
	maxBytes int64
}

func NewSessionHandler(m *editor.Manager, ns *notes.Service, ss *settings.Service, maxBytes int64, logger *slog.Logger) *SessionHandler {
	if maxBytes <= 0 {
		maxBytes = editor.DefaultMaxAttachmentBytes
	}
	return &SessionHandler{manager: m, notes: ns, settings: ss, logger: logger, maxBytes: maxBytes}
}

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*editor.Session, bool) {
	s, err := h.manager.Get(r.PathValue("sid"), identity(r))
	if err != nil {
		writeError(w, h.logger, err)
		return nil, false
	}
	return s, true
}

type openRequest struct {
	NoteID   string `json:"note_id"`
	Password string `json:"password"`
}

// Open starts an editing session. A locked note needs the note password.
func (h *SessionHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if !decodeJSON(w, r, &req) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	id := identity(r)

	if !editor.IsNewNoteID(req.NoteID) {
		n, err := h.notes.Get(id, req.NoteID)
		switch {
		case apperr.KindOf(err) == apperr.KindNotFound:
			// The manager decides what a missing note means for this identity.
		case err != nil:
			writeError(w, h.logger, err)
			return
		case n.IsLocked:
			pw := req.Password
			if pw == "" {
				pw = r.Header.Get(notePasswordHeader)
			}
			ok, err := h.settings.VerifyNotePassword(id, pw)
			if err != nil {
				writeError(w, h.logger, err)
				return
			}
			if !ok {
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "note is locked"})
				return
			}
		}
	}

	s, err := h.manager.Open(id, req.NoteID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	v := s.View()
	if v.State.Terminal() {
		writeJSON(w, http.StatusOK, v)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

type draftPatch struct {
	Title           *string `json:"title"`
	Content         *string `json:"content"`
	Category        *string `json:"category"`
	IsFavorite      *bool   `json:"is_favorite"`
	BackgroundStyle *string `json:"background_style"`
}

func (p draftPatch) actions() ([]editor.Action, error) {
	var actions []editor.Action
	if p.Title != nil {
		actions = append(actions, editor.SetTitle{Title: *p.Title})
	}
	if p.Content != nil {
		actions = append(actions, editor.SetContent{Content: *p.Content})
	}
	if p.Category != nil {
		actions = append(actions, editor.SetCategory{Category: *p.Category})
	}
	if p.IsFavorite != nil {
		actions = append(actions, editor.SetFavorite{Favorite: *p.IsFavorite})
	}
	if p.BackgroundStyle != nil {
		style, err := model.ParseBackgroundStyle(*p.BackgroundStyle)
		if err != nil {
			return nil, apperr.Validation("update draft", err.Error())
		}
		actions = append(actions, editor.SetBackground{Style: style})
	}
	return actions, nil
}

func (h *SessionHandler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var p draftPatch
	if !decodeJSON(w, r, &p) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	actions, err := p.actions()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := s.Dispatch(actions...); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

// finish runs a terminal operation and forgets the session once it succeeds.
func (h *SessionHandler) finish(w http.ResponseWriter, r *http.Request, op func(*editor.Session) error) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := op(s); err != nil {
		writeError(w, h.logger, err)
		return
	}
	v := s.View()
	h.manager.Close(s.ID())
	writeJSON(w, http.StatusOK, v)
}

func (h *SessionHandler) Save(w http.ResponseWriter, r *http.Request) {
	h.finish(w, r, (*editor.Session).Save)
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.finish(w, r, (*editor.Session).SoftDelete)
}

type leaveRequest struct {
	Discard bool `json:"discard"`
}

// Leave ends the session. Without discard, unsaved edits answer 409.
func (h *SessionHandler) Leave(w http.ResponseWriter, r *http.Request) {
	var req leaveRequest
	if !decodeJSON(w, r, &req) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Discard {
		h.finish(w, r, (*editor.Session).Discard)
		return
	}
	h.finish(w, r, (*editor.Session).Leave)
}

type lockResponse struct {
	NeedsPassword bool `json:"needs_password"`
	editor.View
}

func (h *SessionHandler) ToggleLock(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	res, err := s.ToggleLock()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, lockResponse{NeedsPassword: res == editor.LockNeedsPassword, View: s.View()})
}

type passwordRequest struct {
	Password string `json:"password"`
	Confirm  string `json:"confirm"`
}

func (h *SessionHandler) CreatePassword(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req passwordRequest
	if !decodeJSON(w, r, &req) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := s.CreatePasswordAndLock(req.Password, req.Confirm); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

func (h *SessionHandler) CancelPassword(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.CancelPasswordFlow(); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

// Attach reads the multipart field "file" into the draft.
func (h *SessionHandler) Attach(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "file is too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing file"})
		return
	}
	defer file.Close()

	if err := s.Attach(header.Filename, file); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

func (h *SessionHandler) RemoveAttachment(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Dispatch(editor.RemoveAttachment{}); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

// Export streams the rendered draft as a download.
func (h *SessionHandler) Export(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	f, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	file, err := s.Export(f)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(file.Data)
}
