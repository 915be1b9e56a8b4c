package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfWrapped(t *testing.T) {
	base := errors.New("disk full")
	err := fmt.Errorf("save note: %w", Persistence("replace notes", base))

	if got := KindOf(err); got != KindPersistence {
		t.Errorf("KindOf = %q, want %q", got, KindPersistence)
	}
	if !errors.Is(err, base) {
		t.Error("expected underlying error to be reachable")
	}
	if got := UserMessage(err); got != "could not reach storage" {
		t.Errorf("UserMessage = %q", got)
	}
}

func TestKindOfPlainError(t *testing.T) {
	err := errors.New("boom")
	if got := KindOf(err); got != "" {
		t.Errorf("KindOf = %q, want empty", got)
	}
	if got := UserMessage(err); got != "something went wrong" {
		t.Errorf("UserMessage = %q", got)
	}
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{Validation("save", "note is empty"), "save: note is empty"},
		{&Error{Kind: KindValidation, Message: "bad"}, "bad"},
		{Export("png", errors.New("encode")), "png: could not export note: encode"},
		{&Error{Kind: KindExport, Message: "x", Err: errors.New("y")}, "x: y"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}
