// Package artifact persists diff buffers as PNG images
package artifact

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/ospet/visual-compare-pdf/pkg/compare"
)

// Compression names accepted by ParseCompression
const (
	CompressionDefault = "default"
	CompressionNone    = "none"
	CompressionSpeed   = "speed"
	CompressionBest    = "best"
)

// PNGWriter writes PixelBuffers as non-premultiplied RGBA PNG files
type PNGWriter struct {
	encoder png.Encoder
	dirMode os.FileMode
}

// NewPNGWriter creates a writer using the default compression level
func NewPNGWriter() *PNGWriter {
	return &PNGWriter{
		encoder: png.Encoder{CompressionLevel: png.DefaultCompression},
		dirMode: 0755,
	}
}

// NewPNGWriterWithCompression creates a writer for a named compression level
func NewPNGWriterWithCompression(name string) (*PNGWriter, error) {
	level, err := ParseCompression(name)
	if err != nil {
		return nil, err
	}
	w := NewPNGWriter()
	w.encoder.CompressionLevel = level
	return w, nil
}

// ParseCompression maps a configuration value to a png.CompressionLevel
func ParseCompression(name string) (png.CompressionLevel, error) {
	switch strings.ToLower(name) {
	case "", CompressionDefault:
		return png.DefaultCompression, nil
	case CompressionNone:
		return png.NoCompression, nil
	case CompressionSpeed:
		return png.BestSpeed, nil
	case CompressionBest:
		return png.BestCompression, nil
	default:
		return png.DefaultCompression, fmt.Errorf("unknown png compression %q", name)
	}
}

// WriteImage encodes buf to path, creating parent directories as needed.
// The file is closed on every path and removed if encoding fails.
func (w *PNGWriter) WriteImage(path string, buf compare.PixelBuffer) (err error) {
	if err := buf.Validate(); err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, w.dirMode); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	if err := w.encoder.Encode(f, buf.NRGBA()); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return nil
}

// ReadPNG decodes a PNG file into a PixelBuffer
func ReadPNG(path string) (compare.PixelBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return compare.PixelBuffer{}, err
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return compare.PixelBuffer{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return compare.FromImage(img), nil
}
