package report

import (
	"bufio"
	"fmt"
	"io"
)

// TextFormatter prints the classic console summary
type TextFormatter struct{}

func (TextFormatter) Format(w io.Writer, r *Report) error {
	bw := bufio.NewWriter(w)
	res := r.Result

	fmt.Fprint(bw, "\n=== PDF Comparison Results ===\n\n")
	fmt.Fprintf(bw, "Files are identical: %s\n", yesNo(res.Identical))
	fmt.Fprintf(bw, "Similarity score:    %s\n", Percent(res.Similarity))
	fmt.Fprintf(bw, "Differing pages:     %d\n", res.DifferingPages)

	if len(res.PagesWithDifferences) > 0 {
		fmt.Fprintf(bw, "\nDifferences found on pages: %s\n", joinPages(res.DifferingPageNumbers()))
		fmt.Fprintf(bw, "\nDifference images have been generated in the '%s' directory\n", r.OutputDir)
	}

	fmt.Fprint(bw, "\n===========================\n")
	return bw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
