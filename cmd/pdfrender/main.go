// pdfrender - render PDF pages to PNG with any comparison backend
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ospet/visual-compare-pdf/internal/artifact"
	"github.com/ospet/visual-compare-pdf/internal/config"
	"github.com/ospet/visual-compare-pdf/pkg/compare"
	"github.com/ospet/visual-compare-pdf/pkg/render"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("pdfrender", flag.ContinueOnError)
	fs.SetOutput(stderr)

	firstPage := fs.Int("f", 1, "first page to convert")
	lastPage := fs.Int("l", 0, "last page to convert")
	resolution := fs.Float64("r", config.DefaultDPI, "resolution in DPI")
	resX := fs.Float64("rx", 0, "X resolution in DPI (overrides -r)")
	resY := fs.Float64("ry", 0, "Y resolution in DPI (overrides -r)")
	aa := fs.String("aa", "yes", "enable font anti-aliasing: yes or no")
	aaVector := fs.String("aaVector", "yes", "enable vector anti-aliasing: yes or no")
	backend := fs.String("renderer", config.DefaultRenderer, "rendering backend: native, fitz or poppler")
	compression := fs.String("compression", config.DefaultCompression, "png compression: default, none, speed or best")
	quiet := fs.Bool("q", false, "don't print any messages")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: pdfrender [options] <PDF-file> [<output-root>]\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		fs.Usage()
		return 1
	}

	pdfFile := fs.Arg(0)
	outputRoot := fs.Arg(1)
	if outputRoot == "" {
		outputRoot = strings.TrimSuffix(filepath.Base(pdfFile), filepath.Ext(pdfFile))
	}

	opts := compare.RenderOptions{DPIX: *resolution, DPIY: *resolution}
	if *resX > 0 {
		opts.DPIX = *resX
	}
	if *resY > 0 {
		opts.DPIY = *resY
	}
	var err error
	if opts.TextAntialias, err = parseYesNo("aa", *aa); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if opts.Antialias, err = parseYesNo("aaVector", *aaVector); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	t, err := render.ParseType(*backend)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	renderer, err := render.New(t, render.Options{})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	writer, err := artifact.NewPNGWriterWithCompression(*compression)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	doc, err := renderer.Open(pdfFile)
	if err != nil {
		fmt.Fprintf(stderr, "Error opening PDF: %v\n", err)
		return 1
	}
	defer doc.Close()

	first, last := *firstPage, *lastPage
	if first < 1 {
		first = 1
	}
	if last == 0 || last > doc.PageCount() {
		last = doc.PageCount()
	}

	failed := false
	for pageNum := first; pageNum <= last; pageNum++ {
		buf, err := doc.RenderPage(pageNum-1, opts)
		if err != nil {
			if !*quiet {
				fmt.Fprintf(stderr, "Error rendering page %d: %v\n", pageNum, err)
			}
			failed = true
			continue
		}

		outputFile := fmt.Sprintf("%s-%d.png", outputRoot, pageNum)
		if err := writer.WriteImage(outputFile, buf); err != nil {
			if !*quiet {
				fmt.Fprintf(stderr, "Error writing %s: %v\n", outputFile, err)
			}
			failed = true
			continue
		}

		if !*quiet {
			fmt.Fprintf(stdout, "Wrote %s (%dx%d)\n", outputFile, buf.Width, buf.Height)
		}
	}

	if failed {
		return 1
	}
	return 0
}

func parseYesNo(name, value string) (bool, error) {
	switch strings.ToLower(value) {
	case "yes":
		return true, nil
	case "no":
		return false, nil
	default:
		return false, fmt.Errorf("-%s must be yes or no, got %q", name, value)
	}
}
