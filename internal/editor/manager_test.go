package editor

import (
	"testing"
	"time"

	"github.com/dukerupert/sutradhaar/internal/apperr"
	"github.com/dukerupert/sutradhaar/internal/auth"
	"github.com/dukerupert/sutradhaar/internal/model"
)

func TestManagerGetChecksOwner(t *testing.T) {
	env := newTestEnv(t, model.DefaultSettings())
	s := env.open(t, alice, "new")

	got, err := env.manager.Get(s.ID(), alice)
	if err != nil || got != s {
		t.Fatalf("get own session = %v, %v", got, err)
	}
	if _, err := env.manager.Get(s.ID(), bob); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("other owner err = %v, want not found", err)
	}
	if _, err := env.manager.Get("missing", alice); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("missing err = %v, want not found", err)
	}
}

func TestManagerOpenRequiresIdentity(t *testing.T) {
	env := newTestEnv(t, model.DefaultSettings())
	if _, err := env.manager.Open(auth.Identity{}, "new"); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("err = %v, want validation", err)
	}
}

func TestManagerClose(t *testing.T) {
	env := newTestEnv(t, model.DefaultSettings())
	s := env.open(t, alice, "new")

	env.manager.Close(s.ID())
	if env.manager.Len() != 0 {
		t.Errorf("len = %d, want 0", env.manager.Len())
	}
	if got := s.View().State; got != StateDiscarded {
		t.Errorf("state = %v, want discarded", got)
	}
	if env.notes.subscribers() != 0 || len(env.settings.subs) != 0 {
		t.Error("subscriptions not released")
	}
}

func TestManagerSweep(t *testing.T) {
	env := newTestEnv(t, model.DefaultSettings(), storedNote("n1", "a", "b"))

	idle := env.open(t, alice, "n1")
	idle.Dispatch(SetTitle{Title: "edited"})
	saved := env.open(t, alice, "new")
	saved.Dispatch(SetTitle{Title: "done"})
	if err := saved.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Finished sessions go on the first sweep.
	if n := env.manager.Sweep(time.Hour); n != 1 {
		t.Errorf("first sweep removed %d, want 1", n)
	}
	if env.manager.Len() != 1 {
		t.Fatalf("len = %d, want 1", env.manager.Len())
	}

	env.clock.Advance(2 * time.Hour)
	if n := env.manager.Sweep(time.Hour); n != 1 {
		t.Errorf("second sweep removed %d, want 1", n)
	}
	if got := idle.View().State; got != StateDiscarded {
		t.Errorf("idle state = %v, want discarded", got)
	}
	if env.manager.Len() != 0 {
		t.Errorf("len = %d, want 0", env.manager.Len())
	}
}

func TestManagerShutdownCountsDirty(t *testing.T) {
	env := newTestEnv(t, model.DefaultSettings())
	clean := env.open(t, alice, "new")
	dirty := env.open(t, guest, "new")
	dirty.Dispatch(SetContent{Content: "unsaved"})

	if n := env.manager.Shutdown(); n != 1 {
		t.Errorf("dirty = %d, want 1", n)
	}
	for _, s := range []*Session{clean, dirty} {
		if got := s.View().State; got != StateDiscarded {
			t.Errorf("state = %v, want discarded", got)
		}
	}
	if env.manager.Len() != 0 {
		t.Errorf("len = %d, want 0", env.manager.Len())
	}
}
