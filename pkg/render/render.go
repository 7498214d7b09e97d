// Package render provides the rasterization backends behind compare.Renderer
package render

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ospet/visual-compare-pdf/internal/cache"
	"github.com/ospet/visual-compare-pdf/pkg/compare"
)

// Type names a rendering backend
type Type string

const (
	// TypeNative uses the pure-Go rasterizer in pkg/pdf
	TypeNative Type = "native"

	// TypeFitz uses MuPDF through go-fitz (CGo)
	TypeFitz Type = "fitz"

	// TypePoppler runs the pdfinfo and pdftoppm executables
	TypePoppler Type = "poppler"
)

// Types lists the accepted backend names
var Types = []Type{TypeNative, TypeFitz, TypePoppler}

// ParseType maps a configuration value to a backend name
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return TypeNative, nil
	case TypeNative, TypeFitz, TypePoppler:
		return t, nil
	default:
		return "", fmt.Errorf("unknown renderer %q", s)
	}
}

// Options configures the backend built by New
type Options struct {
	Poppler PopplerOptions
	// Cache, when set, wraps the backend in a CachingRenderer.
	Cache  *cache.Store
	Logger zerolog.Logger
}

// New creates a renderer of the given type
func New(t Type, opts Options) (compare.Renderer, error) {
	var inner compare.Renderer
	switch t {
	case TypeNative, "":
		t = TypeNative
		inner = NewNativeRenderer()
	case TypeFitz:
		inner = NewFitzRenderer()
	case TypePoppler:
		inner = NewPopplerRenderer(opts.Poppler)
	default:
		return nil, fmt.Errorf("unknown renderer %q", t)
	}

	if opts.Cache == nil {
		return inner, nil
	}
	return NewCachingRenderer(inner, opts.Cache, string(t), opts.Logger), nil
}
