package model

import (
	"fmt"
	"strings"
	"time"
)

// BackgroundStyle is the paper pattern drawn behind a note's content.
type BackgroundStyle string

const (
	BackgroundNone  BackgroundStyle = "none"
	BackgroundLines BackgroundStyle = "lines"
	BackgroundDots  BackgroundStyle = "dots"
	BackgroundGrid  BackgroundStyle = "grid"
)

// BackgroundStyles lists every valid style.
var BackgroundStyles = []BackgroundStyle{BackgroundNone, BackgroundLines, BackgroundDots, BackgroundGrid}

// ParseBackgroundStyle accepts one of the known styles. The empty string is none.
func ParseBackgroundStyle(s string) (BackgroundStyle, error) {
	switch BackgroundStyle(strings.ToLower(strings.TrimSpace(s))) {
	case "", BackgroundNone:
		return BackgroundNone, nil
	case BackgroundLines:
		return BackgroundLines, nil
	case BackgroundDots:
		return BackgroundDots, nil
	case BackgroundGrid:
		return BackgroundGrid, nil
	}
	return "", fmt.Errorf("unknown background style %q", s)
}

type Note struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Content         string          `json:"content"`
	Category        string          `json:"category"`
	IsFavorite      bool            `json:"is_favorite"`
	IsLocked        bool            `json:"is_locked"`
	Attachment      *Attachment     `json:"attachment"`
	BackgroundStyle BackgroundStyle `json:"background_style"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       *time.Time      `json:"deleted_at"`
}

// Active reports whether the note belongs in the normal list.
func (n Note) Active() bool {
	return n.DeletedAt == nil
}

// Clone returns a deep copy so callers can mutate it freely.
func (n Note) Clone() Note {
	c := n
	if n.Attachment != nil {
		a := *n.Attachment
		c.Attachment = &a
	}
	if n.DeletedAt != nil {
		d := *n.DeletedAt
		c.DeletedAt = &d
	}
	return c
}

// CloneNotes deep-copies a collection.
func CloneNotes(notes []Note) []Note {
	if notes == nil {
		return nil
	}
	out := make([]Note, len(notes))
	for i, n := range notes {
		out[i] = n.Clone()
	}
	return out
}

// FindNote returns the index of the note with id, or -1.
func FindNote(notes []Note, id string) int {
	for i := range notes {
		if notes[i].ID == id {
			return i
		}
	}
	return -1
}

// ActiveNotes returns the notes with no DeletedAt, preserving order.
func ActiveNotes(notes []Note) []Note {
	out := []Note{}
	for _, n := range notes {
		if n.Active() {
			out = append(out, n)
		}
	}
	return out
}

// TrashedNotes returns the soft-deleted notes, preserving order.
func TrashedNotes(notes []Note) []Note {
	out := []Note{}
	for _, n := range notes {
		if !n.Active() {
			out = append(out, n)
		}
	}
	return out
}
