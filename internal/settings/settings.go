// Package settings is the user settings collaborator.
package settings

import (
	"log/slog"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/sutradhaar/internal/apperr"
	"github.com/dukerupert/sutradhaar/internal/auth"
	"github.com/dukerupert/sutradhaar/internal/feed"
	"github.com/dukerupert/sutradhaar/internal/model"
	"github.com/dukerupert/sutradhaar/internal/websocket"
)

// MinPasswordLength is the shortest accepted note password.
const MinPasswordLength = 4

// Backend persists one settings record per key.
type Backend interface {
	Get(key string) (model.UserSettings, error)
	Save(key string, us model.UserSettings) (model.UserSettings, error)
}

// Service owns every settings record, users and guests alike.
type Service struct {
	users  Backend
	guests Backend
	feed   *feed.Feed[model.UserSettings]
	hub    *websocket.Hub
	logger *slog.Logger
	cost   int

	writeMu sync.Mutex
}

// NewService creates a Service. hub may be nil.
func NewService(users, guests Backend, hub *websocket.Hub, logger *slog.Logger) *Service {
	return &Service{
		users:  users,
		guests: guests,
		feed:   feed.New[model.UserSettings](),
		hub:    hub,
		logger: logger,
		cost:   bcrypt.DefaultCost,
	}
}

func (s *Service) backend(id auth.Identity) (Backend, string, error) {
	switch {
	case id.Authenticated():
		return s.users, id.Owner(), nil
	case id.GuestKey != "":
		return s.guests, id.GuestKey, nil
	}
	return nil, "", apperr.Validation("settings", "no identity")
}

func (s *Service) Get(id auth.Identity) (model.UserSettings, error) {
	b, key, err := s.backend(id)
	if err != nil {
		return model.UserSettings{}, err
	}
	us, err := b.Get(key)
	if err != nil {
		return model.UserSettings{}, apperr.Persistence("load settings", err)
	}
	return us, nil
}

// Subscribe delivers the current settings before returning, then every
// later change.
func (s *Service) Subscribe(id auth.Identity, onChange func(model.UserSettings)) (func(), error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	us, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	cancel := s.feed.Subscribe(id.Owner(), onChange)
	onChange(us)
	return cancel, nil
}

// update reads, modifies and writes the settings record under writeMu.
func (s *Service) update(id auth.Identity, op string, fn func(model.UserSettings) (model.UserSettings, error)) (model.UserSettings, error) {
	b, key, err := s.backend(id)
	if err != nil {
		return model.UserSettings{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current, err := b.Get(key)
	if err != nil {
		return model.UserSettings{}, apperr.Persistence(op, err)
	}
	next, err := fn(current)
	if err != nil {
		return model.UserSettings{}, err
	}
	saved, err := b.Save(key, next)
	if err != nil {
		s.logger.Error("save settings", "owner", id.Owner(), "op", op, "error", err)
		return model.UserSettings{}, apperr.Persistence(op, err)
	}

	s.feed.Publish(id.Owner(), saved)
	if s.hub != nil {
		s.hub.BroadcastTo(id.Owner(), websocket.NewMessage("settings", "updated", "", nil))
	}
	return saved, nil
}

// Patch merges p into the stored settings.
func (s *Service) Patch(id auth.Identity, p model.SettingsPatch) (model.UserSettings, error) {
	return s.update(id, "patch settings", func(us model.UserSettings) (model.UserSettings, error) {
		next, err := p.Apply(us)
		if err != nil {
			return us, apperr.Validation("patch settings", err.Error())
		}
		return next, nil
	})
}

// ValidateNewPassword checks a password and its confirmation.
func ValidateNewPassword(password, confirm string) error {
	if password != confirm {
		return apperr.Validation("set note password", "passwords do not match")
	}
	if len([]rune(password)) < MinPasswordLength {
		return apperr.Validation("set note password", "password must be at least 4 characters")
	}
	return nil
}

// SetNotePassword stores the shared note-unlock password as a bcrypt hash.
func (s *Service) SetNotePassword(id auth.Identity, password, confirm string) error {
	if err := ValidateNewPassword(password, confirm); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return apperr.Validation("set note password", "password cannot be used")
	}
	_, err = s.update(id, "set note password", func(us model.UserSettings) (model.UserSettings, error) {
		us.NotePasswordHash = string(hash)
		return us, nil
	})
	return err
}

// VerifyNotePassword reports whether password unlocks the identity's notes.
// Without a stored password nothing is locked, so any input is rejected.
func (s *Service) VerifyNotePassword(id auth.Identity, password string) (bool, error) {
	us, err := s.Get(id)
	if err != nil {
		return false, err
	}
	if !us.HasNotePassword() {
		return false, nil
	}
	return bcrypt.CompareHashAndPassword([]byte(us.NotePasswordHash), []byte(password)) == nil, nil
}

// ChangeNotePassword replaces an existing note password after checking the
// current one. With no password set it behaves like SetNotePassword.
func (s *Service) ChangeNotePassword(id auth.Identity, current, password, confirm string) error {
	us, err := s.Get(id)
	if err != nil {
		return err
	}
	if us.HasNotePassword() &&
		bcrypt.CompareHashAndPassword([]byte(us.NotePasswordHash), []byte(current)) != nil {
		return apperr.Validation("change note password", "current password is incorrect")
	}
	return s.SetNotePassword(id, password, confirm)
}
