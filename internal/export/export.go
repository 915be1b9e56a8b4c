// Package export renders a note draft to a downloadable file.
package export

import (
	"fmt"
	"strings"

	"github.com/dukerupert/sutradhaar/internal/apperr"
	"github.com/dukerupert/sutradhaar/internal/model"
	"github.com/dukerupert/sutradhaar/internal/richtext"
)

// Format is an export file type, named by its extension.
type Format string

const (
	FormatText Format = "txt"
	FormatPNG  Format = "png"
	FormatPDF  Format = "pdf"
)

// Formats lists every supported export format.
var Formats = []Format{FormatText, FormatPNG, FormatPDF}

// ParseFormat accepts a format name in any case.
func ParseFormat(s string) (Format, error) {
	want := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, f := range Formats {
		if f == want {
			return f, nil
		}
	}
	return "", apperr.Validation("export", fmt.Sprintf("unknown export format %q", s))
}

func (f Format) ContentType() string {
	switch f {
	case FormatText:
		return "text/plain; charset=utf-8"
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// Document is the part of a note that gets exported.
type Document struct {
	Title      string
	Category   string
	Content    string
	Background model.BackgroundStyle
}

type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// BaseName is the download name without extension.
func (d Document) BaseName() string {
	if name := strings.TrimSpace(d.Title); name != "" {
		return name
	}
	return "note"
}

// Render produces the file for f. Any failure is an export error.
func Render(f Format, doc Document) (File, error) {
	var (
		data []byte
		err  error
	)
	switch f {
	case FormatText:
		data = []byte(Text(doc))
	case FormatPNG:
		data, err = PNG(doc)
	case FormatPDF:
		data, err = PDF(doc)
	default:
		err = fmt.Errorf("unknown format %q", f)
	}
	if err != nil {
		return File{}, apperr.Export("render "+string(f), err)
	}
	return File{
		Name:        doc.BaseName() + "." + string(f),
		ContentType: f.ContentType(),
		Data:        data,
	}, nil
}

// Text is the plain text export: a title and category header followed by
// the content with its markup removed.
func Text(doc Document) string {
	return fmt.Sprintf("Title: %s\nCategory: %s\n\n%s", doc.Title, doc.Category, richtext.PlainText(doc.Content))
}
