package render

import (
	"fmt"

	"github.com/gen2brain/go-fitz"

	"github.com/ospet/visual-compare-pdf/pkg/compare"
)

// FitzRenderer rasterizes pages with MuPDF via go-fitz (requires CGo).
// MuPDF applies its own antialiasing; the Antialias hints are ignored.
type FitzRenderer struct{}

// NewFitzRenderer creates a MuPDF-backed renderer
func NewFitzRenderer() *FitzRenderer {
	return &FitzRenderer{}
}

// Open opens the document with MuPDF
func (r *FitzRenderer) Open(path string) (compare.Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open PDF document: %w", err)
	}
	return &fitzDocument{doc: doc}, nil
}

type fitzDocument struct {
	doc *fitz.Document
}

func (d *fitzDocument) PageCount() int {
	return d.doc.NumPage()
}

// RenderPage renders at a single resolution; MuPDF cannot scale the axes independently
func (d *fitzDocument) RenderPage(index int, opts compare.RenderOptions) (compare.PixelBuffer, error) {
	if opts.DPIX != opts.DPIY {
		return compare.PixelBuffer{}, fmt.Errorf("fitz renderer needs equal resolutions, got %gx%g", opts.DPIX, opts.DPIY)
	}
	if opts.DPIX <= 0 {
		return compare.PixelBuffer{}, fmt.Errorf("resolution must be positive, got %g", opts.DPIX)
	}
	img, err := d.doc.ImageDPI(index, opts.DPIX)
	if err != nil {
		return compare.PixelBuffer{}, fmt.Errorf("unable to render page %d: %w", index+1, err)
	}
	return compare.FromImage(img), nil
}

func (d *fitzDocument) Close() error {
	return d.doc.Close()
}
