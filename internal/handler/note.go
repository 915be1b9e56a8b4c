package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/sutradhaar/internal/model"
	"github.com/dukerupert/sutradhaar/internal/notes"
	"github.com/dukerupert/sutradhaar/internal/settings"
)

const notePasswordHeader = "X-Note-Password"

type NoteHandler struct {
	notes    *notes.Service
	settings *settings.Service
	logger   *slog.Logger
}

func NewNoteHandler(ns *notes.Service, ss *settings.Service, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{notes: ns, settings: ss, logger: logger}
}

// redact hides the body of locked notes in listings.
func redact(list []model.Note) []model.Note {
	out := make([]model.Note, len(list))
	for i, n := range list {
		if n.IsLocked {
			n.Content = ""
			n.Attachment = nil
		}
		out[i] = n
	}
	return out
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	favorites, _ := strconv.ParseBool(q.Get("favorites"))
	list, err := h.notes.Active(identity(r), notes.Filter{
		Query:         q.Get("q"),
		Category:      q.Get("category"),
		FavoritesOnly: favorites,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, redact(list))
}

func (h *NoteHandler) Trash(w http.ResponseWriter, r *http.Request) {
	list, err := h.notes.Trash(identity(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, redact(list))
}

// unlocked reports whether the request carries the note password.
func (h *NoteHandler) unlocked(r *http.Request) (bool, error) {
	pw := r.Header.Get(notePasswordHeader)
	if pw == "" {
		return false, nil
	}
	return h.settings.VerifyNotePassword(identity(r), pw)
}

// Get returns one note, trashed or not. Locked notes need X-Note-Password.
func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	n, err := h.notes.Get(identity(r), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if n.IsLocked {
		ok, err := h.unlocked(r)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		if !ok {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "note is locked"})
			return
		}
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *NoteHandler) Restore(w http.ResponseWriter, r *http.Request) {
	n, err := h.notes.Restore(identity(r), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, redact([]model.Note{*n})[0])
}

type noteStats struct {
	Active     int            `json:"active"`
	Trashed    int            `json:"trashed"`
	Favorites  int            `json:"favorites"`
	Locked     int            `json:"locked"`
	Categories map[string]int `json:"categories"`
}

// Stats summarizes the collection for the dashboard.
func (h *NoteHandler) Stats(w http.ResponseWriter, r *http.Request) {
	all, err := h.notes.Load(identity(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	st := noteStats{Categories: map[string]int{}}
	for _, n := range all {
		if !n.Active() {
			st.Trashed++
			continue
		}
		st.Active++
		if n.IsFavorite {
			st.Favorites++
		}
		if n.IsLocked {
			st.Locked++
		}
		if n.Category != "" {
			st.Categories[n.Category]++
		}
	}
	writeJSON(w, http.StatusOK, st)
}
