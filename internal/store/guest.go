package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/dukerupert/sutradhaar/internal/model"
)

// guestFile is the on-disk form of one guest's data. It plays the role a
// browser's local storage played for anonymous users.
type guestFile struct {
	Version  int           `json:"version"`
	Notes    []model.Note  `json:"notes"`
	Settings guestSettings `json:"settings"`
}

type guestSettings struct {
	model.UserSettings
	NotePasswordHash string `json:"note_password_hash,omitempty"`
}

// GuestStore keeps each guest's notes and settings in a JSON file named
// after the guest key.
type GuestStore struct {
	dir string
	mu  sync.Mutex
}

func NewGuestStore(dir string) *GuestStore {
	return &GuestStore{dir: dir}
}

func (s *GuestStore) path(key string) (string, error) {
	id, err := uuid.Parse(key)
	if err != nil {
		return "", fmt.Errorf("invalid guest key: %w", err)
	}
	return filepath.Join(s.dir, id.String()+".json"), nil
}

func (s *GuestStore) load(key string) (*guestFile, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return &guestFile{Version: 1, Notes: []model.Note{}, Settings: guestSettings{UserSettings: model.DefaultSettings()}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read guest data: %w", err)
	}

	f := &guestFile{}
	if err := json.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("parse guest data: %w", err)
	}
	if f.Notes == nil {
		f.Notes = []model.Note{}
	}
	f.Settings.UserSettings.NotePasswordHash = f.Settings.NotePasswordHash
	return f, nil
}

func (s *GuestStore) save(key string, f *guestFile) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("create guest dir: %w", err)
	}

	f.Settings.NotePasswordHash = f.Settings.UserSettings.NotePasswordHash
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize guest data: %w", err)
	}

	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write guest data: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("replace guest data: %w", err)
	}
	return nil
}

func (s *GuestStore) List(key string) ([]model.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load(key)
	if err != nil {
		return nil, err
	}
	return f.Notes, nil
}

func (s *GuestStore) ReplaceAll(key string, notes []model.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load(key)
	if err != nil {
		return err
	}
	f.Notes = model.CloneNotes(notes)
	if f.Notes == nil {
		f.Notes = []model.Note{}
	}
	return s.save(key, f)
}

func (s *GuestStore) GetSettings(key string) (model.UserSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load(key)
	if err != nil {
		return model.UserSettings{}, err
	}
	return f.Settings.UserSettings, nil
}

func (s *GuestStore) SaveSettings(key string, us model.UserSettings) (model.UserSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load(key)
	if err != nil {
		return model.UserSettings{}, err
	}
	us.UpdatedAt = utcNow()
	f.Settings.UserSettings = us
	if err := s.save(key, f); err != nil {
		return model.UserSettings{}, err
	}
	return us, nil
}

// GuestSettings exposes a GuestStore's settings under the Get/Save names
// the account store uses.
type GuestSettings struct {
	s *GuestStore
}

func (s *GuestStore) Settings() GuestSettings {
	return GuestSettings{s: s}
}

func (g GuestSettings) Get(key string) (model.UserSettings, error) {
	return g.s.GetSettings(key)
}

func (g GuestSettings) Save(key string, us model.UserSettings) (model.UserSettings, error) {
	return g.s.SaveSettings(key, us)
}
