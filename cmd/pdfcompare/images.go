package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/ospet/visual-compare-pdf/internal/artifact"
	"github.com/ospet/visual-compare-pdf/internal/report"
	"github.com/ospet/visual-compare-pdf/pkg/compare"
)

// runImages diffs two PNG files of equal size and writes the diff image
func runImages(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("pdfcompare images", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: pdfcompare images <a.png> <b.png> <diff.png>\n")
	}
	if err := fs.Parse(args); err != nil {
		return exitError
	}
	if fs.NArg() != 3 {
		fs.Usage()
		return exitError
	}

	a, err := artifact.ReadPNG(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "\nError: %v\n", err)
		return exitError
	}
	b, err := artifact.ReadPNG(fs.Arg(1))
	if err != nil {
		fmt.Fprintf(stderr, "\nError: %v\n", err)
		return exitError
	}

	result, err := compare.CompareImages(a, b)
	if err != nil {
		fmt.Fprintf(stderr, "\nError: %v\n", err)
		return exitError
	}
	if err := artifact.NewPNGWriter().WriteImage(fs.Arg(2), result.DiffImage); err != nil {
		fmt.Fprintf(stderr, "\nError: %v\n", err)
		return exitError
	}

	identical := "No"
	if result.Identical {
		identical = "Yes"
	}
	fmt.Fprintf(stdout, "Images are identical: %s\n", identical)
	fmt.Fprintf(stdout, "Similarity score:     %s\n", report.Percent(result.Similarity))
	fmt.Fprintf(stdout, "Difference image:     %s\n", fs.Arg(2))
	return exitOK
}
