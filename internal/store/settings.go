package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/sutradhaar/internal/model"
)

type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

const settingsCols = `display_name, profile_image, note_password_hash, is_premium, theme, language, updated_at`

// Get returns owner's settings, or the defaults if none were ever saved.
func (s *SettingsStore) Get(owner string) (model.UserSettings, error) {
	var us model.UserSettings
	var premium int
	var theme string
	err := s.db.QueryRow(`SELECT `+settingsCols+` FROM user_settings WHERE owner = ?`, owner).Scan(
		&us.DisplayName, &us.ProfileImage, &us.NotePasswordHash, &premium, &theme, &us.Language, &us.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return model.DefaultSettings(), nil
	}
	if err != nil {
		return model.UserSettings{}, fmt.Errorf("get settings: %w", err)
	}
	us.IsPremium = premium != 0
	us.Theme = model.Theme(theme)
	return us, nil
}

// Save writes every field of us for owner.
func (s *SettingsStore) Save(owner string, us model.UserSettings) (model.UserSettings, error) {
	us.UpdatedAt = utcNow()
	_, err := s.db.Exec(
		`INSERT INTO user_settings (owner, `+settingsCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(owner) DO UPDATE SET
		   display_name = excluded.display_name,
		   profile_image = excluded.profile_image,
		   note_password_hash = excluded.note_password_hash,
		   is_premium = excluded.is_premium,
		   theme = excluded.theme,
		   language = excluded.language,
		   updated_at = excluded.updated_at`,
		owner, us.DisplayName, us.ProfileImage, us.NotePasswordHash, boolInt(us.IsPremium),
		string(us.Theme), us.Language, us.UpdatedAt,
	)
	if err != nil {
		return model.UserSettings{}, fmt.Errorf("save settings: %w", err)
	}
	return us, nil
}

// SetPremium grants or revokes the premium entitlement.
func (s *SettingsStore) SetPremium(owner string, premium bool) error {
	us, err := s.Get(owner)
	if err != nil {
		return err
	}
	us.IsPremium = premium
	if _, err := s.Save(owner, us); err != nil {
		return fmt.Errorf("set premium: %w", err)
	}
	return nil
}
