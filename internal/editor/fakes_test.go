package editor

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/sutradhaar/internal/apperr"
	"github.com/dukerupert/sutradhaar/internal/auth"
	"github.com/dukerupert/sutradhaar/internal/model"
	"github.com/dukerupert/sutradhaar/internal/settings"
)

var (
	alice = auth.User("alice@example.com")
	bob   = auth.User("bob@example.com")
	guest = auth.Guest("1d2c3b4a-5e6f-4a1b-9c8d-7e6f5a4b3c2d")
)

// fakeNotes behaves like the notes service: snapshots on subscribe and
// after every write.
type fakeNotes struct {
	writeMu       sync.Mutex
	mu            sync.Mutex
	notes         []model.Note
	subs          map[int]func([]model.Note)
	next          int
	writes        int
	failWrite     error
	failSubscribe error
}

func newFakeNotes(notes ...model.Note) *fakeNotes {
	return &fakeNotes{notes: notes, subs: make(map[int]func([]model.Note))}
}

func (f *fakeNotes) Subscribe(id auth.Identity, fn func([]model.Note)) (func(), error) {
	f.mu.Lock()
	if f.failSubscribe != nil {
		f.mu.Unlock()
		return nil, apperr.Persistence("load notes", f.failSubscribe)
	}
	k := f.next
	f.next++
	f.subs[k] = fn
	snap := model.CloneNotes(f.notes)
	f.mu.Unlock()

	fn(snap)
	return func() {
		f.mu.Lock()
		delete(f.subs, k)
		f.mu.Unlock()
	}, nil
}

func (f *fakeNotes) ReplaceAll(id auth.Identity, notes []model.Note) error {
	f.mu.Lock()
	if f.failWrite != nil {
		f.mu.Unlock()
		return apperr.Persistence("replace notes", f.failWrite)
	}
	f.notes = model.CloneNotes(notes)
	f.writes++
	var subs []func([]model.Note)
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	f.mu.Unlock()

	for _, fn := range subs {
		fn(model.CloneNotes(notes))
	}
	return nil
}

func (f *fakeNotes) Update(id auth.Identity, fn func([]model.Note) ([]model.Note, error)) error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	next, err := fn(f.snapshot())
	if err != nil {
		return err
	}
	return f.ReplaceAll(id, next)
}

func (f *fakeNotes) snapshot() []model.Note {
	f.mu.Lock()
	defer f.mu.Unlock()
	return model.CloneNotes(f.notes)
}

func (f *fakeNotes) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

func (f *fakeNotes) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

type fakeSettings struct {
	mu   sync.Mutex
	us   model.UserSettings
	subs map[int]func(model.UserSettings)
	next int
}

func newFakeSettings(us model.UserSettings) *fakeSettings {
	return &fakeSettings{us: us, subs: make(map[int]func(model.UserSettings))}
}

func (f *fakeSettings) Subscribe(id auth.Identity, fn func(model.UserSettings)) (func(), error) {
	f.mu.Lock()
	k := f.next
	f.next++
	f.subs[k] = fn
	us := f.us
	f.mu.Unlock()

	fn(us)
	return func() {
		f.mu.Lock()
		delete(f.subs, k)
		f.mu.Unlock()
	}, nil
}

func (f *fakeSettings) SetNotePassword(id auth.Identity, password, confirm string) error {
	if err := settings.ValidateNewPassword(password, confirm); err != nil {
		return err
	}
	f.mu.Lock()
	f.us.NotePasswordHash = "hashed:" + password
	us := f.us
	var subs []func(model.UserSettings)
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	f.mu.Unlock()

	for _, fn := range subs {
		fn(us)
	}
	return nil
}

func (f *fakeSettings) current() model.UserSettings {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.us
}

// fakeClock ticks one second on every read.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type testEnv struct {
	notes    *fakeNotes
	settings *fakeSettings
	clock    *fakeClock
	manager  *Manager
}

func newTestEnv(t *testing.T, us model.UserSettings, notes ...model.Note) *testEnv {
	t.Helper()
	env := &testEnv{
		notes:    newFakeNotes(notes...),
		settings: newFakeSettings(us),
		clock:    &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)},
	}
	var mu sync.Mutex
	n := 0
	env.manager = NewManager(env.notes, env.settings, slog.New(slog.NewTextHandler(io.Discard, nil)), Options{
		MaxAttachmentBytes: 64,
		Now:                env.clock.Now,
		NewID: func() string {
			mu.Lock()
			defer mu.Unlock()
			n++
			return fmt.Sprintf("id-%d", n)
		},
	})
	t.Cleanup(func() { env.manager.Shutdown() })
	return env
}

func (env *testEnv) open(t *testing.T, id auth.Identity, noteID string) *Session {
	t.Helper()
	s, err := env.manager.Open(id, noteID)
	if err != nil {
		t.Fatalf("open %q: %v", noteID, err)
	}
	return s
}

func storedNote(id, title, content string) model.Note {
	ts := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	return model.Note{
		ID:              id,
		Title:           title,
		Content:         content,
		Category:        "home",
		BackgroundStyle: model.BackgroundLines,
		CreatedAt:       ts,
		UpdatedAt:       ts,
	}
}
