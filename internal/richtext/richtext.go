// Package richtext reads the HTML markup produced by the note editor.
package richtext

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Li: true, atom.Ul: true, atom.Ol: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Blockquote: true, atom.Pre: true, atom.Tr: true, atom.Table: true,
}

var skipElements = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true,
}

// PlainText renders markup the way a browser's innerText would, roughly:
// block elements and <br> become line breaks, whitespace runs collapse
// outside <pre>, and entities are decoded. Input without tags comes back
// trimmed but otherwise unchanged.
func PlainText(markup string) string {
	z := html.NewTokenizer(strings.NewReader(markup))
	var b strings.Builder
	skip, pre := 0, 0

	newline := func() {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteByte('\n')
		}
	}

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return tidy(b.String())
		case html.TextToken:
			if skip > 0 {
				continue
			}
			text := string(z.Text())
			if pre == 0 {
				text = collapseSpace(text, b.Len() == 0 || strings.HasSuffix(b.String(), "\n") || strings.HasSuffix(b.String(), " "))
			}
			b.WriteString(text)
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			switch {
			case a == atom.Br:
				b.WriteByte('\n')
			case skipElements[a] && tt == html.StartTagToken:
				skip++
			case blockElements[a]:
				newline()
				if a == atom.Pre && tt == html.StartTagToken {
					pre++
				}
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			switch {
			case skipElements[a] && skip > 0:
				skip--
			case blockElements[a]:
				if a == atom.Pre && pre > 0 {
					pre--
				}
				newline()
			}
		}
	}
}

// IsBlank reports whether markup has no visible text and no embedded media.
func IsBlank(markup string) bool {
	if strings.TrimSpace(PlainText(markup)) != "" {
		return false
	}
	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return true
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Img, atom.Video, atom.Iframe:
				return false
			}
		}
	}
}

func collapseSpace(s string, atLineStart bool) string {
	var b strings.Builder
	space := atLineStart
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' {
			if !space {
				b.WriteByte(' ')
				space = true
			}
			continue
		}
		b.WriteRune(r)
		space = false
	}
	return b.String()
}

func tidy(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
