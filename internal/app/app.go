// Package app owns the state shared by every request: the database, the
// change hub, and the services built on them.
package app

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/dukerupert/sutradhaar/internal/calc"
	"github.com/dukerupert/sutradhaar/internal/config"
	"github.com/dukerupert/sutradhaar/internal/database"
	"github.com/dukerupert/sutradhaar/internal/editor"
	"github.com/dukerupert/sutradhaar/internal/middleware"
	"github.com/dukerupert/sutradhaar/internal/notes"
	"github.com/dukerupert/sutradhaar/internal/settings"
	"github.com/dukerupert/sutradhaar/internal/store"
	"github.com/dukerupert/sutradhaar/internal/websocket"
)

// App is everything a running server shares.
type App struct {
	Config      config.Config
	Logger      *slog.Logger
	DB          *sql.DB
	Hub         *websocket.Hub
	Notes       *notes.Service
	Settings    *settings.Service
	Sessions    *editor.Manager
	Calculators *calc.Registry
	RateLimiter *middleware.RateLimiter
}

// New opens the database and builds the services on it.
func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.GuestDir, 0700); err != nil {
		db.Close()
		return nil, fmt.Errorf("create guest dir: %w", err)
	}

	hub := websocket.NewHub(logger.With("component", "websocket"))
	guests := store.NewGuestStore(cfg.GuestDir)
	ns := notes.NewService(store.NewNoteStore(db), guests, hub, logger.With("component", "notes"))
	ss := settings.NewService(store.NewSettingsStore(db), guests.Settings(), hub, logger.With("component", "settings"))
	mgr := editor.NewManager(ns, ss, logger.With("component", "editor"), editor.Options{
		MaxAttachmentBytes: cfg.MaxAttachmentBytes,
	})

	return &App{
		Config:      cfg,
		Logger:      logger,
		DB:          db,
		Hub:         hub,
		Notes:       ns,
		Settings:    ss,
		Sessions:    mgr,
		Calculators: calc.NewRegistry(),
		RateLimiter: middleware.NewRateLimiter(),
	}, nil
}

// Close disconnects WebSocket clients, drops every open editing session
// and closes the database.
func (a *App) Close() error {
	a.Hub.Close()
	if dirty := a.Sessions.Shutdown(); dirty > 0 {
		a.Logger.Warn("closed sessions with unsaved edits", "count", dirty)
	}
	return a.DB.Close()
}
