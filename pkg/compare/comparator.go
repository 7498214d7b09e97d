package compare

import (
	"time"

	"github.com/rs/zerolog"
)

// DefaultThreshold is the similarity below which a page is reported as differing
const DefaultThreshold = 0.999

// Options configures a Comparator
type Options struct {
	Threshold float64
	Render    RenderOptions
}

// DefaultOptions returns the threshold and render hints of the CLI
func DefaultOptions() Options {
	return Options{
		Threshold: DefaultThreshold,
		Render:    DefaultRenderOptions(),
	}
}

// Option mutates a Comparator at construction time
type Option func(*Comparator)

// WithThreshold sets the page similarity threshold
func WithThreshold(threshold float64) Option {
	return func(c *Comparator) { c.opts.Threshold = threshold }
}

// WithRenderOptions replaces the render hints passed to the renderer
func WithRenderOptions(render RenderOptions) Option {
	return func(c *Comparator) { c.opts.Render = render }
}

// WithLogger attaches a logger; the default discards everything
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Comparator) { c.logger = logger }
}

// Comparator compares whole documents page by page
type Comparator struct {
	renderer Renderer
	writer   ArtifactWriter
	opts     Options
	logger   zerolog.Logger
}

// New creates a Comparator over the given collaborators
func New(renderer Renderer, writer ArtifactWriter, options ...Option) *Comparator {
	c := &Comparator{
		renderer: renderer,
		writer:   writer,
		opts:     DefaultOptions(),
		logger:   zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Options returns the effective options
func (c *Comparator) Options() Options {
	return c.opts
}

// Compare opens both documents and compares them page by page, writing
// diff_page_<N>.png into outDir for each page below threshold. Any
// collaborator failure aborts the comparison with an *Error.
func (c *Comparator) Compare(pathA, pathB, outDir string) (*ComparisonResult, error) {
	start := time.Now()

	docA, err := c.renderer.Open(pathA)
	if err != nil {
		return nil, loadError(pathA, err)
	}
	defer c.closeDocument(pathA, docA)

	docB, err := c.renderer.Open(pathB)
	if err != nil {
		return nil, loadError(pathB, err)
	}
	defer c.closeDocument(pathB, docB)

	countA, countB := docA.PageCount(), docB.PageCount()
	result := &ComparisonResult{
		PagesWithDifferences: []int{},
		PageCountA:           countA,
		PageCountB:           countB,
	}

	if countA != countB {
		result.DifferingPages = absInt(countA - countB)
		c.logger.Info().
			Str("file_a", pathA).
			Str("file_b", pathB).
			Int("pages_a", countA).
			Int("pages_b", countB).
			Msg("Page counts differ")
		return result, nil
	}

	pages := NewPageComparator(c.writer, c.opts.Threshold, c.opts.Render, outDir, c.logger)
	a := Source{Path: pathA, Doc: docA}
	b := Source{Path: pathB, Doc: docB}

	var accumulator float64
	for i := 0; i < countA; i++ {
		outcome, err := pages.Compare(a, b, i)
		if err != nil {
			return nil, err
		}

		if outcome.Differs {
			result.PagesWithDifferences = append(result.PagesWithDifferences, i)
			result.DifferingPages++
		}
		if !outcome.SizeMismatch {
			accumulator += outcome.Similarity
		}
		result.Pages = append(result.Pages, outcome)
	}

	if countA > 0 {
		result.Similarity = accumulator / float64(countA)
	} else {
		result.Similarity = 1.0
	}
	result.Identical = len(result.PagesWithDifferences) == 0

	c.logger.Info().
		Str("file_a", pathA).
		Str("file_b", pathB).
		Int("pages", countA).
		Float64("similarity", result.Similarity).
		Int("differing_pages", result.DifferingPages).
		Dur("elapsed", time.Since(start)).
		Msg("Comparison complete")

	return result, nil
}

func (c *Comparator) closeDocument(path string, doc Document) {
	if err := doc.Close(); err != nil {
		c.logger.Warn().Err(err).Str("file", path).Msg("Failed to close document")
	}
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
