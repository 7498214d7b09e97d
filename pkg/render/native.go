package render

import (
	"github.com/ospet/visual-compare-pdf/pkg/compare"
	"github.com/ospet/visual-compare-pdf/pkg/pdf"
)

// NativeRenderer rasterizes pages with pkg/pdf
type NativeRenderer struct{}

// NewNativeRenderer creates the pure-Go renderer
func NewNativeRenderer() *NativeRenderer {
	return &NativeRenderer{}
}

// Open parses the whole file up front
func (r *NativeRenderer) Open(path string) (compare.Document, error) {
	doc, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	return &nativeDocument{doc: doc}, nil
}

type nativeDocument struct {
	doc *pdf.Document
}

func (d *nativeDocument) PageCount() int {
	return d.doc.NumPages()
}

// RenderPage copies the premultiplied raster verbatim; pages are painted
// over an opaque white background so the bytes equal straight alpha.
func (d *nativeDocument) RenderPage(index int, opts compare.RenderOptions) (compare.PixelBuffer, error) {
	img, err := d.doc.RenderPage(index, pdf.RenderOptions{
		DPIX:          opts.DPIX,
		DPIY:          opts.DPIY,
		Antialias:     opts.Antialias,
		TextAntialias: opts.TextAntialias,
	})
	if err != nil {
		return compare.PixelBuffer{}, err
	}
	return compare.FromImage(img), nil
}

func (d *nativeDocument) Close() error {
	return d.doc.Close()
}
