package compare_test

import (
	"errors"
	"fmt"

	"github.com/ospet/visual-compare-pdf/pkg/compare"
)

type fakeDoc struct {
	pages      []compare.PixelBuffer
	renderErrs map[int]error
	renders    []int
	opts       []compare.RenderOptions
	closed     bool
}

func (d *fakeDoc) PageCount() int { return len(d.pages) }

func (d *fakeDoc) RenderPage(index int, opts compare.RenderOptions) (compare.PixelBuffer, error) {
	d.renders = append(d.renders, index)
	d.opts = append(d.opts, opts)
	if err := d.renderErrs[index]; err != nil {
		return compare.PixelBuffer{}, err
	}
	if index < 0 || index >= len(d.pages) {
		return compare.PixelBuffer{}, fmt.Errorf("page %d out of range", index)
	}
	// hand out copies so callers cannot alias the fixture
	src := d.pages[index]
	pix := make([]byte, len(src.Pix))
	copy(pix, src.Pix)
	return compare.PixelBuffer{Width: src.Width, Height: src.Height, Pix: pix}, nil
}

func (d *fakeDoc) Close() error {
	d.closed = true
	return nil
}

type fakeRenderer struct {
	docs map[string]*fakeDoc
}

func (r *fakeRenderer) Open(path string) (compare.Document, error) {
	doc, ok := r.docs[path]
	if !ok {
		return nil, errors.New("no such document")
	}
	return doc, nil
}

type fakeWriter struct {
	written map[string]compare.PixelBuffer
	order   []string
	err     error
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{written: make(map[string]compare.PixelBuffer)}
}

func (w *fakeWriter) WriteImage(path string, buf compare.PixelBuffer) error {
	if w.err != nil {
		return w.err
	}
	w.written[path] = buf
	w.order = append(w.order, path)
	return nil
}

// solid returns a w x h buffer filled with one colour
func solid(w, h int, r, g, b, a byte) compare.PixelBuffer {
	buf := compare.NewPixelBuffer(w, h)
	for i := 0; i < len(buf.Pix); i += 4 {
		buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2], buf.Pix[i+3] = r, g, b, a
	}
	return buf
}

// withPixel returns a copy of buf with pixel (x, y) replaced
func withPixel(buf compare.PixelBuffer, x, y int, r, g, b, a byte) compare.PixelBuffer {
	out := compare.PixelBuffer{Width: buf.Width, Height: buf.Height, Pix: append([]byte(nil), buf.Pix...)}
	i := (y*buf.Width + x) * 4
	out.Pix[i], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3] = r, g, b, a
	return out
}
