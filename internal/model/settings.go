package model

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
)

type Theme string

const (
	ThemeLight      Theme = "light"
	ThemeDark       Theme = "dark"
	ThemeSutradhaar Theme = "sutradhaar"
)

func ParseTheme(s string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case ThemeLight:
		return ThemeLight, nil
	case ThemeDark:
		return ThemeDark, nil
	case ThemeSutradhaar:
		return ThemeSutradhaar, nil
	}
	return "", fmt.Errorf("unknown theme %q", s)
}

// ParseLanguage canonicalizes a BCP 47 tag such as "en" or "hi-IN".
func ParseLanguage(s string) (string, error) {
	tag, err := language.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid language %q", s)
	}
	return tag.String(), nil
}

// UserSettings is the per-account profile record. The note password is only
// ever held as a bcrypt hash.
type UserSettings struct {
	DisplayName      string    `json:"display_name"`
	ProfileImage     string    `json:"profile_image"`
	NotePasswordHash string    `json:"-"`
	IsPremium        bool      `json:"is_premium"`
	Theme            Theme     `json:"theme"`
	Language         string    `json:"language"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DefaultSettings is what a user sees before anything has been saved.
func DefaultSettings() UserSettings {
	return UserSettings{
		Theme:    ThemeSutradhaar,
		Language: "en",
	}
}

func (s UserSettings) HasNotePassword() bool {
	return s.NotePasswordHash != ""
}

// SettingsPatch is a partial update; nil fields are left alone.
type SettingsPatch struct {
	DisplayName  *string `json:"display_name"`
	ProfileImage *string `json:"profile_image"`
	Theme        *string `json:"theme"`
	Language     *string `json:"language"`
}

// Apply validates the patch and merges it into s.
func (p SettingsPatch) Apply(s UserSettings) (UserSettings, error) {
	if p.DisplayName != nil {
		s.DisplayName = strings.TrimSpace(*p.DisplayName)
	}
	if p.ProfileImage != nil {
		s.ProfileImage = strings.TrimSpace(*p.ProfileImage)
	}
	if p.Theme != nil {
		th, err := ParseTheme(*p.Theme)
		if err != nil {
			return s, err
		}
		s.Theme = th
	}
	if p.Language != nil {
		lang, err := ParseLanguage(*p.Language)
		if err != nil {
			return s, err
		}
		s.Language = lang
	}
	return s, nil
}
