package compare

// RenderOptions carries the resolution and quality hints for one page render
type RenderOptions struct {
	DPIX          float64
	DPIY          float64
	Antialias     bool
	TextAntialias bool
}

// DefaultRenderOptions returns 72 DPI in both axes with antialiasing on
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		DPIX:          72,
		DPIY:          72,
		Antialias:     true,
		TextAntialias: true,
	}
}

// Renderer opens documents for rasterization
type Renderer interface {
	Open(path string) (Document, error)
}

// Document is an open document that can rasterize its pages
type Document interface {
	PageCount() int
	// RenderPage rasterizes the 0-based page index.
	RenderPage(index int, opts RenderOptions) (PixelBuffer, error)
	Close() error
}

// ArtifactWriter persists a diff buffer as an image file
type ArtifactWriter interface {
	WriteImage(path string, buf PixelBuffer) error
}
