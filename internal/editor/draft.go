package editor

import (
	"fmt"

	"github.com/dukerupert/sutradhaar/internal/model"
)

// Draft is the editable part of a note, owned by one session.
type Draft struct {
	Title           string                `json:"title"`
	Content         string                `json:"content"`
	Category        string                `json:"category"`
	IsFavorite      bool                  `json:"is_favorite"`
	IsLocked        bool                  `json:"is_locked"`
	Attachment      *model.Attachment     `json:"attachment"`
	BackgroundStyle model.BackgroundStyle `json:"background_style"`
}

// BlankDraft is the starting point of a new note.
func BlankDraft() Draft {
	return Draft{BackgroundStyle: model.BackgroundNone}
}

// DraftFromNote copies the editable fields of n.
func DraftFromNote(n model.Note) Draft {
	return Draft{
		Title:           n.Title,
		Content:         n.Content,
		Category:        n.Category,
		IsFavorite:      n.IsFavorite,
		IsLocked:        n.IsLocked,
		Attachment:      cloneAttachment(n.Attachment),
		BackgroundStyle: n.BackgroundStyle,
	}
}

// ApplyTo returns n with its editable fields replaced by d. Identity and
// timestamps are left as they are.
func (d Draft) ApplyTo(n model.Note) model.Note {
	n.Title = d.Title
	n.Content = d.Content
	n.Category = d.Category
	n.IsFavorite = d.IsFavorite
	n.IsLocked = d.IsLocked
	n.Attachment = cloneAttachment(d.Attachment)
	n.BackgroundStyle = d.BackgroundStyle
	return n
}

func cloneAttachment(a *model.Attachment) *model.Attachment {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

// Action is one mutation of a Draft. The set of actions is closed.
type Action interface {
	action()
}

type (
	LoadNote         struct{ Note model.Note }
	SetTitle         struct{ Title string }
	SetContent       struct{ Content string }
	SetCategory      struct{ Category string }
	SetFavorite      struct{ Favorite bool }
	SetLocked        struct{ Locked bool }
	SetBackground    struct{ Style model.BackgroundStyle }
	SetAttachment    struct{ Attachment *model.Attachment }
	RemoveAttachment struct{}
)

func (LoadNote) action()         {}
func (SetTitle) action()         {}
func (SetContent) action()       {}
func (SetCategory) action()      {}
func (SetFavorite) action()      {}
func (SetLocked) action()        {}
func (SetBackground) action()    {}
func (SetAttachment) action()    {}
func (RemoveAttachment) action() {}

// Reduce applies a to d and returns the new draft. It does no I/O and never
// modifies d.
func Reduce(d Draft, a Action) Draft {
	switch a := a.(type) {
	case LoadNote:
		return DraftFromNote(a.Note)
	case SetTitle:
		d.Title = a.Title
	case SetContent:
		d.Content = a.Content
	case SetCategory:
		d.Category = a.Category
	case SetFavorite:
		d.IsFavorite = a.Favorite
	case SetLocked:
		d.IsLocked = a.Locked
	case SetBackground:
		d.BackgroundStyle = a.Style
	case SetAttachment:
		d.Attachment = cloneAttachment(a.Attachment)
	case RemoveAttachment:
		d.Attachment = nil
	default:
		panic(fmt.Sprintf("editor: unknown action %T", a))
	}
	return d
}
