package compare

import (
	"fmt"
	"path/filepath"
)

// PageOutcome records the comparison of one page pair
type PageOutcome struct {
	// Index is the 0-based page index.
	Index        int     `json:"index" yaml:"index"`
	Similarity   float64 `json:"similarity" yaml:"similarity"`
	Differs      bool    `json:"differs" yaml:"differs"`
	SizeMismatch bool    `json:"size_mismatch,omitempty" yaml:"size_mismatch,omitempty"`
	ArtifactPath string  `json:"artifact_path,omitempty" yaml:"artifact_path,omitempty"`
}

// Number returns the 1-based page number
func (p PageOutcome) Number() int { return p.Index + 1 }

// ComparisonResult is the document-level verdict
type ComparisonResult struct {
	Identical  bool    `json:"identical" yaml:"identical"`
	Similarity float64 `json:"similarity" yaml:"similarity"`
	// DifferingPages counts differing pages, or holds the absolute page
	// count difference when the documents have different lengths.
	DifferingPages int `json:"differing_pages" yaml:"differing_pages"`
	// PagesWithDifferences lists 0-based indices in page order.
	PagesWithDifferences []int         `json:"pages_with_differences" yaml:"pages_with_differences"`
	Pages                []PageOutcome `json:"pages,omitempty" yaml:"pages,omitempty"`
	PageCountA           int           `json:"page_count_a" yaml:"page_count_a"`
	PageCountB           int           `json:"page_count_b" yaml:"page_count_b"`
}

// PageCountMismatch reports whether the page loop was skipped
func (r *ComparisonResult) PageCountMismatch() bool {
	return r.PageCountA != r.PageCountB
}

// DifferingPageNumbers returns PagesWithDifferences as 1-based numbers
func (r *ComparisonResult) DifferingPageNumbers() []int {
	nums := make([]int, len(r.PagesWithDifferences))
	for i, idx := range r.PagesWithDifferences {
		nums[i] = idx + 1
	}
	return nums
}

// ArtifactName returns the file name of the diff image for a 0-based page
func ArtifactName(index int) string {
	return fmt.Sprintf("diff_page_%d.png", index+1)
}

// ArtifactPath joins the output directory with ArtifactName
func ArtifactPath(outDir string, index int) string {
	return filepath.Join(outDir, ArtifactName(index))
}
