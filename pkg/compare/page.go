package compare

import (
	"github.com/rs/zerolog"
)

// Source pairs an open document with the path it was loaded from
type Source struct {
	Path string
	Doc  Document
}

// PageComparator compares one page index across two documents
type PageComparator struct {
	writer    ArtifactWriter
	threshold float64
	render    RenderOptions
	outDir    string
	logger    zerolog.Logger
}

// NewPageComparator creates a page comparator writing artifacts to outDir
func NewPageComparator(writer ArtifactWriter, threshold float64, render RenderOptions, outDir string, logger zerolog.Logger) *PageComparator {
	return &PageComparator{
		writer:    writer,
		threshold: threshold,
		render:    render,
		outDir:    outDir,
		logger:    logger,
	}
}

// Compare renders page index of both sources and diffs them. A size
// mismatch yields a differing outcome without running the differ. A page
// scoring strictly below the threshold has its diff buffer persisted.
func (pc *PageComparator) Compare(a, b Source, index int) (PageOutcome, error) {
	outcome := PageOutcome{Index: index}

	bufA, err := a.Doc.RenderPage(index, pc.render)
	if err != nil {
		return outcome, renderError(a.Path, index, err)
	}
	bufB, err := b.Doc.RenderPage(index, pc.render)
	if err != nil {
		return outcome, renderError(b.Path, index, err)
	}

	if !bufA.SameSize(bufB) {
		pc.logger.Debug().
			Int("page", outcome.Number()).
			Ints("size_a", []int{bufA.Width, bufA.Height}).
			Ints("size_b", []int{bufB.Width, bufB.Height}).
			Msg("Page sizes differ, skipping pixel comparison")
		outcome.Differs = true
		outcome.SizeMismatch = true
		return outcome, nil
	}

	if err := bufA.Validate(); err != nil {
		return outcome, renderError(a.Path, index, err)
	}
	if err := bufB.Validate(); err != nil {
		return outcome, renderError(b.Path, index, err)
	}

	sim, pix := DiffPixels(bufA.Pix, bufB.Pix, bufA.Width, bufA.Height)
	outcome.Similarity = sim

	if sim < pc.threshold {
		outcome.Differs = true
		path := ArtifactPath(pc.outDir, index)
		diff := PixelBuffer{Width: bufA.Width, Height: bufA.Height, Pix: pix}
		if err := pc.writer.WriteImage(path, diff); err != nil {
			return outcome, ioError(path, index, err)
		}
		outcome.ArtifactPath = path
	}

	pc.logger.Debug().
		Int("page", outcome.Number()).
		Float64("similarity", sim).
		Bool("differs", outcome.Differs).
		Msg("Page compared")

	return outcome, nil
}
