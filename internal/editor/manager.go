package editor

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/sutradhaar/internal/apperr"
	"github.com/dukerupert/sutradhaar/internal/auth"
)

// DefaultMaxAttachmentBytes bounds Attach when no limit is configured.
const DefaultMaxAttachmentBytes = 5 << 20

// Options tunes a Manager. Zero values get defaults.
type Options struct {
	MaxAttachmentBytes int64
	// Now and NewID default to the wall clock in UTC and random UUIDs.
	Now   func() time.Time
	NewID func() string
}

// Manager keeps the open editing sessions of every user.
type Manager struct {
	notes    NotesStore
	settings SettingsStore
	logger   *slog.Logger
	opts     Options

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a Manager whose sessions read and write through notes
// and settings.
func NewManager(notes NotesStore, settings SettingsStore, logger *slog.Logger, opts Options) *Manager {
	if opts.MaxAttachmentBytes <= 0 {
		opts.MaxAttachmentBytes = DefaultMaxAttachmentBytes
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Manager{
		notes:    notes,
		settings: settings,
		logger:   logger,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// IsNewNoteID reports whether noteID asks for a blank note.
func IsNewNoteID(noteID string) bool {
	noteID = strings.TrimSpace(noteID)
	return noteID == "" || noteID == "new"
}

// Open starts editing noteID for id, or a new note. A session that cannot
// find its note ends at once: authenticated users get a not-found error,
// guests get the discarded session.
func (m *Manager) Open(id auth.Identity, noteID string) (*Session, error) {
	if !id.Valid() {
		return nil, apperr.Validation("open note", "no identity")
	}
	sid := m.opts.NewID()
	s := &Session{
		id:         sid,
		identity:   id,
		notes:      m.notes,
		settings:   m.settings,
		logger:     m.logger.With("session", sid),
		now:        m.opts.Now,
		newID:      m.opts.NewID,
		maxBytes:   m.opts.MaxAttachmentBytes,
		state:      StateLoading,
		isNew:      IsNewNoteID(noteID),
		draft:      BlankDraft(),
		lastActive: m.opts.Now(),
	}
	if !s.isNew {
		s.noteID = strings.TrimSpace(noteID)
	}

	if err := s.start(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	notFound := s.notFound
	s.mu.Unlock()
	if notFound {
		if id.Authenticated() {
			return nil, apperr.NotFound("open note", "Note not found")
		}
		return s, nil
	}

	m.mu.Lock()
	m.sessions[sid] = s
	m.mu.Unlock()
	m.logger.Debug("session opened", "session", sid, "owner", id.Owner(), "note_id", s.noteID, "new", s.isNew)
	return s, nil
}

// Get returns the session if it exists and belongs to id.
func (m *Manager) Get(sessionID string, id auth.Identity) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	m.mu.Unlock()
	if !ok || s.identity.Owner() != id.Owner() {
		return nil, apperr.NotFound("get session", "Editing session not found")
	}
	return s, nil
}

// Close discards the session and forgets it.
func (m *Manager) Close(sessionID string) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	m.mu.Unlock()
	if ok {
		s.Discard()
	}
}

// Sweep forgets finished sessions and discards those idle for longer than
// ttl. It returns how many sessions were removed.
func (m *Manager) Sweep(ttl time.Duration) int {
	cutoff := m.opts.Now().Add(-ttl)

	m.mu.Lock()
	var expired []*Session
	for sid, s := range m.sessions {
		v := s.peek()
		if v.State.Terminal() || s.idleSince().Before(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, sid)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		v := s.peek()
		if v.Dirty {
			m.logger.Warn("abandoning unsaved draft", "session", s.id, "owner", s.identity.Owner(), "note_id", v.NoteID)
		}
		s.Discard()
	}
	return len(expired)
}

// Shutdown discards every session and returns the number that still had
// unsaved edits.
func (m *Manager) Shutdown() int {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	dirty := 0
	for _, s := range all {
		if s.peek().Dirty {
			dirty++
			m.logger.Warn("unsaved draft lost at shutdown", "session", s.id, "owner", s.identity.Owner())
		}
		s.Discard()
	}
	return dirty
}

// Len is the number of sessions being tracked.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
