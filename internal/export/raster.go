package export

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/dukerupert/sutradhaar/internal/model"
	"github.com/dukerupert/sutradhaar/internal/richtext"
)

// Layout is in unscaled pixels; the finished image is Scale times larger.
const (
	Scale      = 2
	pageWidth  = 400
	minHeight  = 160
	margin     = 16
	lineHeight = 18
	cellSize   = 12
	fontSize   = 12

	// maxLines keeps the scaled raster, and the PDF page built from it,
	// under 14400 units tall.
	maxLines = 380
)

// truncatedMarker ends a raster whose text did not fit.
const truncatedMarker = "[... truncated]"

// monoFont is Go Mono: fixed width, with Latin, Greek and Cyrillic glyphs.
var monoFont = sync.OnceValues(func() (*opentype.Font, error) {
	return opentype.Parse(gomono.TTF)
})

// newFace returns a fresh face; faces are not safe for concurrent use.
func newFace() (font.Face, error) {
	f, err := monoFont()
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: fontSize, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("load font face: %w", err)
	}
	return face, nil
}

var (
	paper = color.RGBA{0xff, 0xff, 0xff, 0xff}
	ink   = color.RGBA{0x1f, 0x29, 0x37, 0xff}
	rule  = color.RGBA{0xdb, 0xe1, 0xea, 0xff}
)

// Rasterize draws the content area of doc. Text past maxLines is cut and
// marked.
func Rasterize(doc Document) (*image.RGBA, error) {
	face, err := newFace()
	if err != nil {
		return nil, err
	}
	defer face.Close()

	adv, _ := face.GlyphAdvance('0')
	cols := (pageWidth - 2*margin) / adv.Ceil()
	lines := wrap(richtext.PlainText(doc.Content), cols)
	if len(lines) > maxLines {
		lines = append(lines[:maxLines-1], truncatedMarker)
	}
	ascent := face.Metrics().Ascent.Ceil()

	h := 2*margin + len(lines)*lineHeight
	if h < minHeight {
		h = minHeight
	}
	src := image.NewRGBA(image.Rect(0, 0, pageWidth, h))
	draw.Draw(src, src.Bounds(), image.NewUniform(paper), image.Point{}, draw.Src)
	paintBackground(src, doc.Background)

	d := &font.Drawer{Dst: src, Src: image.NewUniform(ink), Face: face}
	for i, line := range lines {
		d.Dot = fixed.P(margin, margin+i*lineHeight+ascent)
		d.DrawString(line)
	}

	dst := image.NewRGBA(image.Rect(0, 0, pageWidth*Scale, h*Scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}

func paintBackground(img *image.RGBA, style model.BackgroundStyle) {
	b := img.Bounds()
	switch style {
	case model.BackgroundNone:
	case model.BackgroundLines:
		for y := margin + lineHeight - 2; y < b.Max.Y; y += lineHeight {
			for x := b.Min.X; x < b.Max.X; x++ {
				img.SetRGBA(x, y, rule)
			}
		}
	case model.BackgroundDots:
		for y := cellSize; y < b.Max.Y; y += cellSize {
			for x := cellSize; x < b.Max.X; x += cellSize {
				img.SetRGBA(x, y, rule)
			}
		}
	case model.BackgroundGrid:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				if x%cellSize == 0 || y%cellSize == 0 {
					img.SetRGBA(x, y, rule)
				}
			}
		}
	}
}

// wrap breaks text into lines of at most cols runes, splitting on spaces
// where it can.
func wrap(text string, cols int) []string {
	var out []string
	for _, para := range strings.Split(text, "\n") {
		line := ""
		for _, word := range strings.Fields(para) {
			for utf8.RuneCountInString(word) > cols {
				if line != "" {
					out = append(out, line)
					line = ""
				}
				r := []rune(word)
				out = append(out, string(r[:cols]))
				word = string(r[cols:])
			}
			switch {
			case line == "":
				line = word
			case utf8.RuneCountInString(line)+1+utf8.RuneCountInString(word) <= cols:
				line += " " + word
			default:
				out = append(out, line)
				line = word
			}
		}
		out = append(out, line)
	}
	return out
}

// PNG encodes the raster of doc.
func PNG(doc Document) ([]byte, error) {
	img, err := Rasterize(doc)
	if err != nil {
		return nil, err
	}
	return encodePNG(img)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
