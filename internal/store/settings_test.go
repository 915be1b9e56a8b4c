package store

import (
	"testing"

	"github.com/dukerupert/sutradhaar/internal/database"
	"github.com/dukerupert/sutradhaar/internal/model"
)

func setupSettingsTestDB(t *testing.T) *SettingsStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSettingsStore(db)
}

func TestSettingsDefaults(t *testing.T) {
	ss := setupSettingsTestDB(t)

	got, err := ss.Get("user:new@example.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != model.DefaultSettings() {
		t.Errorf("settings = %+v, want defaults", got)
	}
	if got.HasNotePassword() {
		t.Error("new account should not have a note password")
	}
}

func TestSettingsSaveAndGet(t *testing.T) {
	ss := setupSettingsTestDB(t)
	owner := "user:a@example.com"

	in := model.UserSettings{
		DisplayName:      "Asha",
		ProfileImage:     "https://example.com/a.png",
		NotePasswordHash: "$2a$10$hash",
		Theme:            model.ThemeDark,
		Language:         "hi",
	}
	saved, err := ss.Save(owner, in)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.UpdatedAt.IsZero() {
		t.Error("expected updated_at to be set")
	}

	got, err := ss.Get(owner)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.DisplayName != "Asha" || got.Theme != model.ThemeDark || got.Language != "hi" {
		t.Errorf("settings = %+v", got)
	}
	if got.NotePasswordHash != "$2a$10$hash" {
		t.Errorf("hash = %q", got.NotePasswordHash)
	}
	if got.IsPremium {
		t.Error("premium should default to false")
	}
}

func TestSettingsSetPremium(t *testing.T) {
	ss := setupSettingsTestDB(t)
	owner := "user:a@example.com"

	if _, err := ss.Save(owner, model.UserSettings{DisplayName: "Asha", Theme: model.ThemeLight, Language: "en"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := ss.SetPremium(owner, true); err != nil {
		t.Fatalf("set premium: %v", err)
	}

	got, _ := ss.Get(owner)
	if !got.IsPremium {
		t.Error("expected premium")
	}
	if got.DisplayName != "Asha" || got.Theme != model.ThemeLight {
		t.Errorf("SetPremium clobbered other fields: %+v", got)
	}

	ss.SetPremium(owner, false)
	got, _ = ss.Get(owner)
	if got.IsPremium {
		t.Error("expected premium revoked")
	}
}
