package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Attachment is a single file embedded in a note as a data URL.
// It is stored as "name|data:<mime>;base64,<payload>".
type Attachment struct {
	Name    string
	DataURL string
}

func (a Attachment) String() string {
	return a.Name + "|" + a.DataURL
}

// MimeType returns the media type declared in the data URL.
func (a Attachment) MimeType() string {
	rest, ok := strings.CutPrefix(a.DataURL, "data:")
	if !ok {
		return ""
	}
	mime, _, _ := strings.Cut(rest, ";")
	if i := strings.IndexByte(mime, ','); i >= 0 {
		mime = mime[:i]
	}
	return mime
}

// IsImage reports whether the attachment can be shown inline.
func (a Attachment) IsImage() bool {
	return strings.HasPrefix(a.DataURL, "data:image/")
}

// ParseAttachment splits the stored form on the first '|'. File names cannot
// contain '|' in the stored form, data URLs may.
func ParseAttachment(s string) (*Attachment, error) {
	if s == "" {
		return nil, nil
	}
	name, data, ok := strings.Cut(s, "|")
	if !ok || name == "" || !strings.HasPrefix(data, "data:") {
		return nil, fmt.Errorf("malformed attachment")
	}
	return &Attachment{Name: name, DataURL: data}, nil
}

func (a Attachment) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Attachment) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseAttachment(s)
	if err != nil {
		return err
	}
	if parsed == nil {
		return fmt.Errorf("empty attachment")
	}
	*a = *parsed
	return nil
}
