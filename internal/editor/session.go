// Package editor runs note editing sessions: one draft of one note, from
// load to save, delete or discard.
package editor

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dukerupert/sutradhaar/internal/apperr"
	"github.com/dukerupert/sutradhaar/internal/auth"
	"github.com/dukerupert/sutradhaar/internal/export"
	"github.com/dukerupert/sutradhaar/internal/model"
	"github.com/dukerupert/sutradhaar/internal/richtext"
	"github.com/dukerupert/sutradhaar/internal/settings"
)

// MaxContentBytes bounds the rich text content of a draft.
const MaxContentBytes = 512 << 10

var (
	// ErrUnsavedChanges is returned by Leave while the draft is dirty.
	ErrUnsavedChanges = errors.New("note has unsaved changes")
	// ErrSessionClosed is returned by every operation on a finished session.
	ErrSessionClosed = errors.New("editing session is closed")
)

// NotesStore is the note collection the session reads from and writes to.
type NotesStore interface {
	Subscribe(id auth.Identity, onChange func([]model.Note)) (func(), error)
	Update(id auth.Identity, fn func([]model.Note) ([]model.Note, error)) error
}

// SettingsStore supplies the note password and premium flag.
type SettingsStore interface {
	Subscribe(id auth.Identity, onChange func(model.UserSettings)) (func(), error)
	SetNotePassword(id auth.Identity, password, confirm string) error
}

// State is where a session is in its life: loading, then ready, then one
// of the terminal states.
type State int

const (
	StateLoading State = iota
	StateReady
	StateSaved
	StateDiscarded
	StateDeleted
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateSaved:
		return "saved"
	case StateDiscarded:
		return "discarded"
	case StateDeleted:
		return "deleted"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts the names written by MarshalText.
func (s *State) UnmarshalText(b []byte) error {
	for st := StateLoading; st <= StateDeleted; st++ {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown session state %q", b)
}

// Terminal reports whether the session has finished.
func (s State) Terminal() bool {
	return s == StateSaved || s == StateDiscarded || s == StateDeleted
}

// NoticeLevel is how prominently a Notice is shown.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a transient message for the user.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// LockResult tells the caller what ToggleLock did.
type LockResult int

const (
	LockToggled LockResult = iota
	LockNeedsPassword
)

// View is a point-in-time copy of a session.
type View struct {
	SessionID     string   `json:"session_id"`
	State         State    `json:"state"`
	Dirty         bool     `json:"dirty"`
	IsNew         bool     `json:"is_new"`
	NoteID        string   `json:"note_id,omitempty"`
	Draft         Draft    `json:"draft"`
	PasswordFlow  bool     `json:"password_flow"`
	RemoteChanged bool     `json:"remote_changed"`
	GuardExit     bool     `json:"guard_exit"`
	Notices       []Notice `json:"notices"`
}

// Session edits one note. Operations are serialized; store callbacks may
// arrive at any time from other goroutines.
type Session struct {
	id       string
	identity auth.Identity
	notes    NotesStore
	settings SettingsStore
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
	maxBytes int64

	// opMu serializes operations. It is held across store calls; mu never is.
	opMu sync.Mutex

	mu            sync.Mutex
	state         State
	dirty         bool
	isNew         bool
	noteID        string
	draft         Draft
	base          model.Note
	userSettings  model.UserSettings
	passwordFlow  bool
	remoteChanged bool
	persisting    bool
	notFound      bool
	notices       []Notice
	lastActive    time.Time
	cancels       []func()
}

func (s *Session) ID() string { return s.id }

func (s *Session) Identity() auth.Identity { return s.identity }

// start subscribes to both stores. New notes are ready at once; existing
// ones become ready when the first snapshot containing them arrives.
func (s *Session) start() error {
	cancelSettings, err := s.settings.Subscribe(s.identity, s.onSettings)
	if err != nil {
		s.finish(StateDiscarded)
		return err
	}
	s.addCancel(cancelSettings)

	cancelNotes, err := s.notes.Subscribe(s.identity, s.onNotes)
	if err != nil {
		s.finish(StateDiscarded)
		s.release()
		return err
	}
	s.addCancel(cancelNotes)

	s.mu.Lock()
	terminal := s.state.Terminal()
	s.mu.Unlock()
	if terminal {
		s.release()
	}
	return nil
}

func (s *Session) addCancel(fn func()) {
	s.mu.Lock()
	s.cancels = append(s.cancels, fn)
	s.mu.Unlock()
}

// release drops the store subscriptions. Must not be called with mu held.
func (s *Session) release() {
	s.mu.Lock()
	cancels := s.cancels
	s.cancels = nil
	s.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
}

func (s *Session) finish(state State) {
	s.mu.Lock()
	s.finishLocked(state)
	s.mu.Unlock()
}

func (s *Session) finishLocked(state State) {
	s.logger.Debug("session finished", "from", s.state, "to", state, "dirty", s.dirty)
	s.state = state
	s.dirty = false
	s.passwordFlow = false
}

func (s *Session) noticeLocked(level NoticeLevel, msg string) {
	s.notices = append(s.notices, Notice{Level: level, Message: msg})
}

func (s *Session) onSettings(us model.UserSettings) {
	s.mu.Lock()
	s.userSettings = us
	s.mu.Unlock()
}

func (s *Session) onNotes(notes []model.Note) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateLoading:
		if s.isNew {
			s.state = StateReady
			return
		}
		i := model.FindNote(notes, s.noteID)
		if i < 0 {
			s.notFound = true
			if s.identity.Authenticated() {
				s.noticeLocked(NoticeError, "Note not found")
			}
			s.finishLocked(StateDiscarded)
			return
		}
		s.base = notes[i]
		s.draft = Reduce(s.draft, LoadNote{Note: notes[i]})
		s.state = StateReady
		s.logger.Debug("note loaded", "note_id", s.noteID)
	case StateReady:
		if s.isNew || s.persisting {
			return
		}
		s.remoteSnapshotLocked(notes)
	}
}

// remoteSnapshotLocked handles a collection written by someone else while
// the draft is open. A dirty draft is never overwritten.
func (s *Session) remoteSnapshotLocked(notes []model.Note) {
	i := model.FindNote(notes, s.noteID)
	if i < 0 {
		if !s.remoteChanged {
			s.remoteChanged = true
			s.noticeLocked(NoticeWarning, "This note was removed elsewhere")
		}
		return
	}
	remote := notes[i]
	if remote.UpdatedAt.Equal(s.base.UpdatedAt) && sameDeletion(remote.DeletedAt, s.base.DeletedAt) {
		return
	}
	if s.dirty {
		s.base = remote
		s.remoteChanged = true
		s.noticeLocked(NoticeWarning, "This note changed elsewhere. Saving will overwrite those changes")
		s.logger.Info("remote change while dirty", "note_id", s.noteID)
		return
	}
	s.base = remote
	s.draft = Reduce(s.draft, LoadNote{Note: remote})
	s.noticeLocked(NoticeInfo, "This note was updated elsewhere")
}

// advance returns now, or the instant just after prev when the clock has
// not moved past it.
func advance(prev, now time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Millisecond)
}

func sameDeletion(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// readyLocked returns the error for an operation that needs a ready session.
func (s *Session) readyLocked() error {
	s.lastActive = s.now()
	switch {
	case s.state.Terminal():
		return ErrSessionClosed
	case s.state != StateReady:
		return apperr.Validation("edit note", "note is still loading")
	}
	return nil
}

// Dispatch applies user edits to the draft.
func (s *Session) Dispatch(actions ...Action) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.readyLocked(); err != nil {
		return err
	}
	for _, a := range actions {
		switch a := a.(type) {
		case LoadNote:
			return apperr.Validation("edit note", "notes cannot be loaded into an open draft")
		case SetContent:
			if len(a.Content) > MaxContentBytes {
				return apperr.Validation("edit note", "Note is too long")
			}
		}
	}
	for _, a := range actions {
		s.draft = Reduce(s.draft, a)
	}
	if len(actions) > 0 {
		s.dirty = true
	}
	return nil
}

// Save writes the draft into the collection and persists the whole
// collection. An empty draft is rejected without touching the store.
func (s *Session) Save() error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	if err := s.readyLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if strings.TrimSpace(s.draft.Title) == "" && richtext.IsBlank(s.draft.Content) {
		s.mu.Unlock()
		return apperr.Validation("save note", "Please add a title or some content before saving")
	}

	now := s.now()
	draft := s.draft
	isNew, noteID := s.isNew, s.noteID
	if isNew {
		noteID = s.newID()
	}
	s.persisting = true
	s.mu.Unlock()

	var saved model.Note
	err := s.notes.Update(s.identity, func(notes []model.Note) ([]model.Note, error) {
		if isNew {
			saved = draft.ApplyTo(model.Note{ID: noteID, CreatedAt: now, UpdatedAt: now})
			return append(notes, saved), nil
		}
		i := model.FindNote(notes, noteID)
		if i < 0 {
			return nil, apperr.NotFound("save note", "Note not found")
		}
		saved = draft.ApplyTo(notes[i])
		saved.UpdatedAt = advance(notes[i].UpdatedAt, now)
		notes[i] = saved
		return notes, nil
	})

	s.mu.Lock()
	s.persisting = false
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("save note", "note_id", noteID, "error", err)
		return err
	}
	s.noteID = saved.ID
	s.isNew = false
	s.base = saved
	s.noticeLocked(NoticeInfo, "Note saved")
	s.finishLocked(StateSaved)
	s.mu.Unlock()

	s.release()
	return nil
}

// SoftDelete moves the stored note to the trash. Unsaved edits are dropped;
// a note that was never saved is simply discarded.
func (s *Session) SoftDelete() error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	if err := s.readyLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.isNew {
		s.finishLocked(StateDiscarded)
		s.mu.Unlock()
		s.release()
		return nil
	}

	now := s.now()
	noteID := s.noteID
	s.persisting = true
	s.mu.Unlock()

	err := s.notes.Update(s.identity, func(notes []model.Note) ([]model.Note, error) {
		i := model.FindNote(notes, noteID)
		if i < 0 {
			return nil, apperr.NotFound("delete note", "Note not found")
		}
		notes[i].DeletedAt = &now
		return notes, nil
	})

	s.mu.Lock()
	s.persisting = false
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("delete note", "note_id", s.noteID, "error", err)
		return err
	}
	s.noticeLocked(NoticeInfo, "Moved to trash")
	s.finishLocked(StateDeleted)
	s.mu.Unlock()

	s.release()
	return nil
}

// ToggleLock flips the lock flag, unless locking needs a note password
// that does not exist yet. Then the password flow opens instead.
func (s *Session) ToggleLock() (LockResult, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.readyLocked(); err != nil {
		return LockToggled, err
	}
	if !s.draft.IsLocked && !s.userSettings.HasNotePassword() {
		s.passwordFlow = true
		return LockNeedsPassword, nil
	}
	s.draft = Reduce(s.draft, SetLocked{Locked: !s.draft.IsLocked})
	s.dirty = true
	return LockToggled, nil
}

// CreatePasswordAndLock stores the first note password and locks the draft.
func (s *Session) CreatePasswordAndLock(password, confirm string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	if err := s.readyLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if !s.passwordFlow {
		s.mu.Unlock()
		return apperr.Validation("set note password", "no password is being created")
	}
	s.mu.Unlock()

	if err := settings.ValidateNewPassword(password, confirm); err != nil {
		return err
	}
	if err := s.settings.SetNotePassword(s.identity, password, confirm); err != nil {
		s.logger.Warn("set note password", "error", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return ErrSessionClosed
	}
	s.passwordFlow = false
	s.draft = Reduce(s.draft, SetLocked{Locked: true})
	s.dirty = true
	s.noticeLocked(NoticeInfo, "Password set and note locked. You can change this password in settings")
	return nil
}

func (s *Session) CancelPasswordFlow() error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.readyLocked(); err != nil {
		return err
	}
	s.passwordFlow = false
	return nil
}

// Attach reads a file into the draft as its only attachment.
func (s *Session) Attach(name string, r io.Reader) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	err := s.readyLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return apperr.Validation("attach file", "could not read file")
	}
	if int64(len(data)) > s.maxBytes {
		return apperr.Validation("attach file", "file is too large")
	}
	mime, _, _ := strings.Cut(http.DetectContentType(data), ";")
	a := &model.Attachment{
		Name:    attachmentName(name),
		DataURL: "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.readyLocked(); err != nil {
		return err
	}
	s.draft = Reduce(s.draft, SetAttachment{Attachment: a})
	s.dirty = true
	s.noticeLocked(NoticeInfo, "File attached")
	return nil
}

// attachmentName keeps the base name and drops the separator used in the
// stored form.
func attachmentName(name string) string {
	name = strings.TrimSpace(filepath.Base(strings.ReplaceAll(name, "\\", "/")))
	name = strings.ReplaceAll(name, "|", "_")
	if name == "" || name == "." || name == "/" {
		return "attachment"
	}
	return name
}

// Export renders the current draft. It requires premium and never changes
// the draft.
func (s *Session) Export(f export.Format) (export.File, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	if err := s.readyLocked(); err != nil {
		s.mu.Unlock()
		return export.File{}, err
	}
	if !s.userSettings.IsPremium {
		s.mu.Unlock()
		return export.File{}, apperr.Entitlement("export note", "Exporting notes is a premium feature")
	}
	doc := export.Document{
		Title:      s.draft.Title,
		Category:   s.draft.Category,
		Content:    s.draft.Content,
		Background: s.draft.BackgroundStyle,
	}
	s.mu.Unlock()

	file, err := export.Render(f, doc)
	if err != nil {
		s.logger.Error("export note", "format", f, "error", err)
		return export.File{}, err
	}

	s.mu.Lock()
	s.noticeLocked(NoticeInfo, "Exported as "+strings.ToUpper(string(f)))
	s.mu.Unlock()
	return file, nil
}

// Leave ends a clean session. A dirty one needs Discard to confirm.
func (s *Session) Leave() error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	s.lastActive = s.now()
	if s.state.Terminal() {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.dirty {
		s.mu.Unlock()
		return ErrUnsavedChanges
	}
	s.finishLocked(StateDiscarded)
	s.mu.Unlock()

	s.release()
	return nil
}

// Discard ends the session, dropping any unsaved edits.
func (s *Session) Discard() error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.dirty {
		s.logger.Info("discarding unsaved draft", "note_id", s.noteID)
	}
	s.finishLocked(StateDiscarded)
	s.mu.Unlock()

	s.release()
	return nil
}

// View returns the session state and hands over pending notices.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.viewLocked()
	v.Notices = s.notices
	if v.Notices == nil {
		v.Notices = []Notice{}
	}
	s.notices = nil
	return v
}

// peek is View without taking the notices.
func (s *Session) peek() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	d := s.draft
	d.Attachment = cloneAttachment(d.Attachment)
	return View{
		SessionID:     s.id,
		State:         s.state,
		Dirty:         s.dirty,
		IsNew:         s.isNew,
		NoteID:        s.noteID,
		Draft:         d,
		PasswordFlow:  s.passwordFlow,
		RemoteChanged: s.remoteChanged,
		GuardExit:     s.state == StateReady && s.dirty,
	}
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}
