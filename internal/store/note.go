package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/sutradhaar/internal/model"
)

// NoteStore keeps each owner's note collection as an ordered set of rows.
// The collection is only ever written whole.
type NoteStore struct {
	db *sql.DB
}

func NewNoteStore(db *sql.DB) *NoteStore {
	return &NoteStore{db: db}
}

func scanNote(scanner interface{ Scan(...any) error }) (*model.Note, error) {
	var n model.Note
	var favorite, locked int
	var attachment, background string
	var deletedAt sql.NullTime

	err := scanner.Scan(
		&n.ID, &n.Title, &n.Content, &n.Category, &favorite, &locked,
		&attachment, &background, &n.CreatedAt, &n.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	n.IsFavorite = favorite != 0
	n.IsLocked = locked != 0
	n.BackgroundStyle = model.BackgroundStyle(background)
	if n.Attachment, err = model.ParseAttachment(attachment); err != nil {
		return nil, fmt.Errorf("note %s: %w", n.ID, err)
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		n.DeletedAt = &t
	}
	return &n, nil
}

const noteCols = `id, title, content, category, is_favorite, is_locked, attachment, background_style, created_at, updated_at, deleted_at`

// List returns every note of owner, soft-deleted ones included, in
// collection order.
func (s *NoteStore) List(owner string) ([]model.Note, error) {
	rows, err := s.db.Query(`SELECT `+noteCols+` FROM notes WHERE owner = ? ORDER BY position`, owner)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	notes := []model.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, *n)
	}
	return notes, rows.Err()
}

// ReplaceAll atomically swaps owner's collection for notes.
func (s *NoteStore) ReplaceAll(owner string, notes []model.Note) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM notes WHERE owner = ?`, owner); err != nil {
		return fmt.Errorf("clear notes: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO notes (owner, id, position, title, content, category, is_favorite, is_locked, attachment, background_style, created_at, updated_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, n := range notes {
		var attachment string
		if n.Attachment != nil {
			attachment = n.Attachment.String()
		}
		background := n.BackgroundStyle
		if background == "" {
			background = model.BackgroundNone
		}
		var deletedAt sql.NullTime
		if n.DeletedAt != nil {
			deletedAt = sql.NullTime{Time: n.DeletedAt.UTC(), Valid: true}
		}
		_, err := stmt.Exec(
			owner, n.ID, i, n.Title, n.Content, n.Category, boolInt(n.IsFavorite), boolInt(n.IsLocked),
			attachment, string(background), n.CreatedAt.UTC(), n.UpdatedAt.UTC(), deletedAt,
		)
		if err != nil {
			return fmt.Errorf("insert note %s: %w", n.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// utcNow is swapped in tests.
var utcNow = func() time.Time { return time.Now().UTC() }
