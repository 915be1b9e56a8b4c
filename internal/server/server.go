package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/sutradhaar/internal/app"
	"github.com/dukerupert/sutradhaar/internal/database"
	"github.com/dukerupert/sutradhaar/internal/handler"
	"github.com/dukerupert/sutradhaar/internal/middleware"
	ws "github.com/dukerupert/sutradhaar/internal/websocket"
)

type Server struct {
	app         *app.App
	noteH       *handler.NoteHandler
	sessionH    *handler.SessionHandler
	settingsH   *handler.SettingsHandler
	calculatorH *handler.CalculatorHandler
	converterH  *handler.ConverterHandler
	logger      *slog.Logger
}

func New(a *app.App) *Server {
	logger := a.Logger
	return &Server{
		app:         a,
		noteH:       handler.NewNoteHandler(a.Notes, a.Settings, logger.With("component", "note")),
		sessionH:    handler.NewSessionHandler(a.Sessions, a.Notes, a.Settings, a.Config.MaxAttachmentBytes, logger.With("component", "session")),
		settingsH:   handler.NewSettingsHandler(a.Settings, logger.With("component", "settings")),
		calculatorH: handler.NewCalculatorHandler(a.Calculators, a.Settings, logger.With("component", "calculator")),
		converterH:  handler.NewConverterHandler(a.Settings, logger.With("component", "converter")),
		logger:      logger,
	}
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Everything else acts for a user or a guest
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	var secret []byte
	if s.app.Config.AuthEnabled() {
		secret = []byte(s.app.Config.JWTSecret)
	}
	identify := middleware.Identify(secret, s.logger.With("component", "auth"))
	outerMux.Handle("/", identify(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	version, err := database.SchemaVersion(r.Context(), s.app.DB)
	if err != nil {
		s.logger.Error("health check", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"schema":   version,
		"sessions": s.app.Sessions.Len(),
		"clients":  s.app.Hub.ClientCount(),
	})
}

// exportLimited caps exports per owner per minute.
func (s *Server) exportLimited(h http.HandlerFunc) http.Handler {
	rl := middleware.RateLimit(s.app.RateLimiter, middleware.OwnerOrIP, s.app.Config.ExportRateLimit, time.Minute)
	return rl(h)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.app.Hub))

	// Notes API routes
	mux.HandleFunc("GET /api/notes", s.noteH.List)
	mux.HandleFunc("GET /api/notes/trash", s.noteH.Trash)
	mux.HandleFunc("GET /api/notes/stats", s.noteH.Stats)
	mux.HandleFunc("GET /api/notes/{id}", s.noteH.Get)
	mux.HandleFunc("POST /api/notes/{id}/restore", s.noteH.Restore)

	// Editing session routes
	mux.HandleFunc("POST /api/sessions", s.sessionH.Open)
	mux.HandleFunc("GET /api/sessions/{sid}", s.sessionH.Get)
	mux.HandleFunc("PATCH /api/sessions/{sid}/draft", s.sessionH.UpdateDraft)
	mux.HandleFunc("POST /api/sessions/{sid}/save", s.sessionH.Save)
	mux.HandleFunc("POST /api/sessions/{sid}/delete", s.sessionH.Delete)
	mux.HandleFunc("POST /api/sessions/{sid}/lock", s.sessionH.ToggleLock)
	mux.HandleFunc("POST /api/sessions/{sid}/password", s.sessionH.CreatePassword)
	mux.HandleFunc("DELETE /api/sessions/{sid}/password", s.sessionH.CancelPassword)
	mux.HandleFunc("PUT /api/sessions/{sid}/attachment", s.sessionH.Attach)
	mux.HandleFunc("DELETE /api/sessions/{sid}/attachment", s.sessionH.RemoveAttachment)
	mux.Handle("GET /api/sessions/{sid}/export", s.exportLimited(s.sessionH.Export))
	mux.HandleFunc("POST /api/sessions/{sid}/leave", s.sessionH.Leave)

	// Settings API routes
	mux.HandleFunc("GET /api/settings", s.settingsH.Get)
	mux.HandleFunc("PATCH /api/settings", s.settingsH.Update)
	mux.HandleFunc("PUT /api/settings/note-password", s.settingsH.ChangePassword)
	mux.HandleFunc("POST /api/settings/note-password/verify", s.settingsH.VerifyPassword)

	// Calculator routes
	mux.HandleFunc("GET /api/calculator", s.calculatorH.Get)
	mux.HandleFunc("POST /api/calculator/input", s.calculatorH.Input)
	mux.HandleFunc("POST /api/calculator/backspace", s.calculatorH.Backspace)
	mux.HandleFunc("POST /api/calculator/clear", s.calculatorH.Clear)
	mux.HandleFunc("POST /api/calculator/calculate", s.calculatorH.Calculate)
	mux.HandleFunc("DELETE /api/calculator/history", s.calculatorH.ClearHistory)
	mux.HandleFunc("DELETE /api/calculator/history/{index}", s.calculatorH.RemoveHistory)
	mux.HandleFunc("POST /api/calculator/evaluate", s.calculatorH.Evaluate)

	// Converter routes
	mux.HandleFunc("GET /api/converter/categories", s.converterH.Categories)
	mux.HandleFunc("POST /api/converter/convert", s.converterH.Convert)
}
