package app

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/dukerupert/sutradhaar/internal/auth"
	"github.com/dukerupert/sutradhaar/internal/config"
	"github.com/dukerupert/sutradhaar/internal/editor"
)

func TestNewAndClose(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.DBPath = filepath.Join(dir, "test.db")
	cfg.GuestDir = filepath.Join(dir, "guests")

	a, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("new app: %v", err)
	}

	s, err := a.Sessions.Open(auth.User("alice@example.com"), "new")
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	if err := s.Dispatch(editor.SetTitle{Title: "unsaved"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if a.Sessions.Len() != 0 {
		t.Errorf("sessions left after close: %d", a.Sessions.Len())
	}
	if s.View().State != editor.StateDiscarded {
		t.Error("open session should be discarded on close")
	}
}
