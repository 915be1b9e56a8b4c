// Package notes is the note collection collaborator: it hands out snapshots
// of a user's whole collection, replaces the collection on write, and tells
// subscribers and connected clients when it changed.
package notes

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dukerupert/sutradhaar/internal/apperr"
	"github.com/dukerupert/sutradhaar/internal/auth"
	"github.com/dukerupert/sutradhaar/internal/feed"
	"github.com/dukerupert/sutradhaar/internal/model"
	"github.com/dukerupert/sutradhaar/internal/richtext"
	"github.com/dukerupert/sutradhaar/internal/websocket"
)

// Backend persists one collection per key.
type Backend interface {
	List(key string) ([]model.Note, error)
	ReplaceAll(key string, notes []model.Note) error
}

// Service owns every note collection, users and guests alike.
type Service struct {
	users  Backend
	guests Backend
	feed   *feed.Feed[[]model.Note]
	hub    *websocket.Hub
	logger *slog.Logger
	now    func() time.Time

	// writeMu orders snapshot delivery: a subscriber never sees an older
	// collection after a newer one.
	writeMu sync.Mutex
}

// NewService creates a Service writing user notes to users and guest notes
// to guests. hub may be nil.
func NewService(users, guests Backend, hub *websocket.Hub, logger *slog.Logger) *Service {
	return &Service{
		users:  users,
		guests: guests,
		feed:   feed.New[[]model.Note](),
		hub:    hub,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) backend(id auth.Identity) (Backend, string, error) {
	switch {
	case id.Authenticated():
		return s.users, id.Owner(), nil
	case id.GuestKey != "":
		return s.guests, id.GuestKey, nil
	}
	return nil, "", apperr.Validation("notes", "no identity")
}

// Load returns a copy of the whole collection, trashed notes included.
func (s *Service) Load(id auth.Identity) ([]model.Note, error) {
	b, key, err := s.backend(id)
	if err != nil {
		return nil, err
	}
	notes, err := b.List(key)
	if err != nil {
		return nil, apperr.Persistence("load notes", err)
	}
	return notes, nil
}

// Subscribe delivers the current collection to onChange before returning,
// then every collection written afterwards. Callbacks must treat the slice
// as read-only.
func (s *Service) Subscribe(id auth.Identity, onChange func([]model.Note)) (func(), error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	notes, err := s.Load(id)
	if err != nil {
		return nil, err
	}
	cancel := s.feed.Subscribe(id.Owner(), onChange)
	onChange(notes)
	return cancel, nil
}

// ReplaceAll persists notes as the identity's entire collection.
func (s *Service) ReplaceAll(id auth.Identity, notes []model.Note) error {
	b, key, err := s.backend(id)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.replaceLocked(id, b, key, notes)
}

// Update applies fn to the latest stored collection and persists what it
// returns. No other write can land between the read and the write. An error
// from fn is returned as is and nothing is written.
func (s *Service) Update(id auth.Identity, fn func([]model.Note) ([]model.Note, error)) error {
	b, key, err := s.backend(id)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current, err := b.List(key)
	if err != nil {
		return apperr.Persistence("load notes", err)
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	return s.replaceLocked(id, b, key, next)
}

func (s *Service) replaceLocked(id auth.Identity, b Backend, key string, notes []model.Note) error {
	snapshot := model.CloneNotes(notes)
	if snapshot == nil {
		snapshot = []model.Note{}
	}
	if err := b.ReplaceAll(key, snapshot); err != nil {
		s.logger.Error("replace notes", "owner", id.Owner(), "error", err)
		return apperr.Persistence("replace notes", err)
	}

	s.feed.Publish(id.Owner(), snapshot)
	if s.hub != nil {
		s.hub.BroadcastTo(id.Owner(), websocket.NewMessage("notes", "replaced", "", map[string]any{
			"count": len(snapshot),
		}))
	}
	return nil
}

// Filter narrows the active list the way the notes page search does.
type Filter struct {
	Query         string
	Category      string
	FavoritesOnly bool
}

func (f Filter) match(n model.Note) bool {
	if f.FavoritesOnly && !n.IsFavorite {
		return false
	}
	if f.Category != "" && !strings.EqualFold(strings.TrimSpace(n.Category), strings.TrimSpace(f.Category)) {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(n.Title), q) {
		return true
	}
	// Locked notes are searchable by title only.
	if n.IsLocked {
		return false
	}
	return strings.Contains(strings.ToLower(richtext.PlainText(n.Content)), q)
}

// Active returns the notes not in the trash that match f.
func (s *Service) Active(id auth.Identity, f Filter) ([]model.Note, error) {
	all, err := s.Load(id)
	if err != nil {
		return nil, err
	}
	out := []model.Note{}
	for _, n := range model.ActiveNotes(all) {
		if f.match(n) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *Service) Trash(id auth.Identity) ([]model.Note, error) {
	all, err := s.Load(id)
	if err != nil {
		return nil, err
	}
	return model.TrashedNotes(all), nil
}

// Get finds a note by id whether or not it is trashed.
func (s *Service) Get(id auth.Identity, noteID string) (*model.Note, error) {
	all, err := s.Load(id)
	if err != nil {
		return nil, err
	}
	i := model.FindNote(all, noteID)
	if i < 0 {
		return nil, apperr.NotFound("get note", "note not found")
	}
	n := all[i]
	return &n, nil
}

// errNotTrashed stops a restore of an active note without a write.
var errNotTrashed = errors.New("note is not in the trash")

// Restore takes a note out of the trash.
func (s *Service) Restore(id auth.Identity, noteID string) (*model.Note, error) {
	var restored model.Note
	err := s.Update(id, func(all []model.Note) ([]model.Note, error) {
		i := model.FindNote(all, noteID)
		if i < 0 {
			return nil, apperr.NotFound("restore note", "note not found")
		}
		if all[i].Active() {
			restored = all[i]
			return nil, errNotTrashed
		}
		all[i].DeletedAt = nil
		all[i].UpdatedAt = s.now()
		restored = all[i]
		return all, nil
	})
	if err != nil && !errors.Is(err, errNotTrashed) {
		return nil, err
	}
	return &restored, nil
}

// SubscriberCount is the number of live subscriptions for the identity.
func (s *Service) SubscriberCount(id auth.Identity) int {
	return s.feed.Count(id.Owner())
}
