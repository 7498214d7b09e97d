// Package compare implements visual comparison of PDF documents
package compare

import (
	"fmt"
	"image"
	"image/draw"
)

// PixelBuffer holds a row-major RGBA raster, four bytes per pixel
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []byte
}

// NewPixelBuffer allocates a zeroed buffer of the given size
func NewPixelBuffer(width, height int) PixelBuffer {
	return PixelBuffer{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*4),
	}
}

// Validate checks that Pix holds exactly Width*Height*4 bytes
func (b PixelBuffer) Validate() error {
	if b.Width < 0 || b.Height < 0 {
		return fmt.Errorf("invalid buffer dimensions %dx%d", b.Width, b.Height)
	}
	if want := b.Width * b.Height * 4; len(b.Pix) != want {
		return fmt.Errorf("buffer %dx%d holds %d bytes, want %d", b.Width, b.Height, len(b.Pix), want)
	}
	return nil
}

// SameSize reports whether two buffers are comparable
func (b PixelBuffer) SameSize(o PixelBuffer) bool {
	return b.Width == o.Width && b.Height == o.Height
}

// FromImage copies any image into a PixelBuffer. Non-premultiplied
// NRGBA bytes are taken verbatim; RGBA bytes are taken verbatim as well,
// which is exact for opaque page rasters.
func FromImage(img image.Image) PixelBuffer {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	buf := NewPixelBuffer(w, h)

	switch src := img.(type) {
	case *image.RGBA:
		copyRows(buf.Pix, src.Pix, src.Stride, w, h)
		return buf
	case *image.NRGBA:
		copyRows(buf.Pix, src.Pix, src.Stride, w, h)
		return buf
	}

	dst := &image.NRGBA{Pix: buf.Pix, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}
	draw.Draw(dst, dst.Rect, img, bounds.Min, draw.Src)
	return buf
}

func copyRows(dst, src []byte, stride, w, h int) {
	rowBytes := w * 4
	for y := 0; y < h; y++ {
		copy(dst[y*rowBytes:(y+1)*rowBytes], src[y*stride:y*stride+rowBytes])
	}
}

// NRGBA wraps the buffer as an image without copying
func (b PixelBuffer) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Pix,
		Stride: b.Width * 4,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}
