package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/text/language"

	"github.com/dukerupert/sutradhaar/internal/auth"
	"github.com/dukerupert/sutradhaar/internal/calc"
	"github.com/dukerupert/sutradhaar/internal/settings"
)

// CalculatorHandler serves each owner's in-memory calculator.
type CalculatorHandler struct {
	calcs    *calc.Registry
	settings *settings.Service
	logger   *slog.Logger
}

// NewCalculatorHandler creates a CalculatorHandler backed by calcs.
func NewCalculatorHandler(calcs *calc.Registry, ss *settings.Service, logger *slog.Logger) *CalculatorHandler {
	return &CalculatorHandler{calcs: calcs, settings: ss, logger: logger}
}

// userLanguage is the identity's display language, English when unknown.
func userLanguage(ss *settings.Service, id auth.Identity, logger *slog.Logger) language.Tag {
	us, err := ss.Get(id)
	if err != nil {
		logger.Warn("load language", "owner", id.Owner(), "error", err)
		return language.English
	}
	tag, err := language.Parse(us.Language)
	if err != nil {
		return language.English
	}
	return tag
}

func (h *CalculatorHandler) calculator(r *http.Request) *calc.Calculator {
	id := identity(r)
	return h.calcs.Get(id.Owner(), func() language.Tag {
		return userLanguage(h.settings, id, h.logger)
	})
}

func (h *CalculatorHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.calculator(r).Display())
}

func (h *CalculatorHandler) Input(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if !decodeJSON(w, r, &req) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	d, err := h.calculator(r).Input(req.Token)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *CalculatorHandler) Backspace(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.calculator(r).Backspace())
}

func (h *CalculatorHandler) Clear(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.calculator(r).Clear())
}

func (h *CalculatorHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.calculator(r).Calculate())
}

func (h *CalculatorHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	c := h.calculator(r)
	c.ClearHistory()
	writeJSON(w, http.StatusOK, c.Display())
}

func (h *CalculatorHandler) RemoveHistory(w http.ResponseWriter, r *http.Request) {
	i, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid history index"})
		return
	}
	c := h.calculator(r)
	if err := c.RemoveHistory(i); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, c.Display())
}

type evaluation struct {
	Value     float64 `json:"value"`
	Formatted string  `json:"formatted"`
}

// Evaluate computes an expression without touching the calculator state.
func (h *CalculatorHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Expression string `json:"expression"`
	}
	if !decodeJSON(w, r, &req) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	v, err := calc.Evaluate(req.Expression)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	lang := userLanguage(h.settings, identity(r), h.logger)
	writeJSON(w, http.StatusOK, evaluation{Value: v, Formatted: calc.FormatIn(lang, v)})
}
