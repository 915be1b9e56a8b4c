package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/sutradhaar/internal/model"
	"github.com/dukerupert/sutradhaar/internal/settings"
)

type SettingsHandler struct {
	settings *settings.Service
	logger   *slog.Logger
}

func NewSettingsHandler(ss *settings.Service, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{settings: ss, logger: logger}
}

type settingsResponse struct {
	model.UserSettings
	HasNotePassword bool `json:"has_note_password"`
}

func settingsJSON(us model.UserSettings) settingsResponse {
	return settingsResponse{UserSettings: us, HasNotePassword: us.HasNotePassword()}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	us, err := h.settings.Get(identity(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, settingsJSON(us))
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var p model.SettingsPatch
	if !decodeJSON(w, r, &p) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	us, err := h.settings.Patch(identity(r), p)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, settingsJSON(us))
}

func (h *SettingsHandler) VerifyPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	ok, err := h.settings.VerifyNotePassword(identity(r), req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"valid": ok})
}

func (h *SettingsHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Current  string `json:"current"`
		Password string `json:"password"`
		Confirm  string `json:"confirm"`
	}
	if !decodeJSON(w, r, &req) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := h.settings.ChangeNotePassword(identity(r), req.Current, req.Password, req.Confirm); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
