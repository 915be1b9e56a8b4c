package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/sutradhaar/internal/calc"
	"github.com/dukerupert/sutradhaar/internal/convert"
	"github.com/dukerupert/sutradhaar/internal/settings"
)

type ConverterHandler struct {
	settings *settings.Service
	logger   *slog.Logger
}

func NewConverterHandler(ss *settings.Service, logger *slog.Logger) *ConverterHandler {
	return &ConverterHandler{settings: ss, logger: logger}
}

func (h *ConverterHandler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, convert.Categories())
}

type convertRequest struct {
	Category string   `json:"category"`
	From     string   `json:"from"`
	To       string   `json:"to"`
	Value    *float64 `json:"value"`
}

func (h *ConverterHandler) Convert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if !decodeJSON(w, r, &req) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Value == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "value is required"})
		return
	}
	v, err := convert.Convert(req.Category, req.From, req.To, *req.Value)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	lang := userLanguage(h.settings, identity(r), h.logger)
	writeJSON(w, http.StatusOK, evaluation{Value: v, Formatted: calc.FormatIn(lang, v)})
}
