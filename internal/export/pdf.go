package export

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// PDF places the raster of doc on a single page of the same size.
func PDF(doc Document) ([]byte, error) {
	raster, err := Rasterize(doc)
	if err != nil {
		return nil, err
	}
	img, err := encodePNG(raster)
	if err != nil {
		return nil, err
	}
	b := raster.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())

	orientation := "P"
	if w > h {
		orientation = "L"
	}
	// fpdf swaps the size for landscape pages, so pass the short side first.
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: orientation,
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: min(w, h), Ht: max(w, h)},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("content", opts, bytes.NewReader(img))
	pdf.ImageOptions("content", 0, 0, w, h, false, opts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
