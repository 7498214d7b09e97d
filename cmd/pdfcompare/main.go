// pdfcompare - visual comparison of two PDF documents
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ospet/visual-compare-pdf/internal/artifact"
	"github.com/ospet/visual-compare-pdf/internal/cache"
	"github.com/ospet/visual-compare-pdf/internal/config"
	"github.com/ospet/visual-compare-pdf/internal/history"
	"github.com/ospet/visual-compare-pdf/internal/logger"
	"github.com/ospet/visual-compare-pdf/internal/report"
	"github.com/ospet/visual-compare-pdf/pkg/compare"
	"github.com/ospet/visual-compare-pdf/pkg/render"
)

// Exit codes
const (
	exitOK          = 0
	exitError       = 1
	exitDifferences = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 {
		switch args[0] {
		case "images":
			return runImages(args[1:], stdout, stderr)
		case "history":
			return runHistory(args[1:], stdout, stderr)
		}
	}
	return runCompare(args, stdout, stderr)
}

type compareFlags struct {
	configPath string
	threshold  float64
	renderer   string
	dpi        float64
	noAA       bool
	format     string
	output     string
	cache      bool
	cacheDir   string
	history    bool
	logLevel   string
	failOnDiff bool
}

func runCompare(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("pdfcompare", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var f compareFlags
	fs.StringVar(&f.configPath, "config", "", "configuration file (default: pdfcompare.yaml)")
	fs.Float64Var(&f.threshold, "threshold", config.DefaultThreshold, "page similarity below which a page differs")
	fs.StringVar(&f.renderer, "renderer", config.DefaultRenderer, "rendering backend: native, fitz or poppler")
	fs.Float64Var(&f.dpi, "dpi", config.DefaultDPI, "render resolution in DPI")
	fs.BoolVar(&f.noAA, "no-aa", false, "disable antialiasing")
	fs.StringVar(&f.format, "format", config.DefaultReportFormat, "report format: text, json, yaml or html")
	fs.StringVar(&f.output, "o", "", "write the report to a file instead of stdout")
	fs.BoolVar(&f.cache, "cache", false, "reuse rendered pages from the render cache")
	fs.StringVar(&f.cacheDir, "cache-dir", "", "render cache directory")
	fs.BoolVar(&f.history, "history", false, "record the run in the history database")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn or error")
	fs.BoolVar(&f.failOnDiff, "fail-on-diff", false, "exit with status 2 when the documents differ")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: pdfcompare [options] <pdf1_path> <pdf2_path> <output_dir>\n")
		fmt.Fprintf(stderr, "       pdfcompare images <a.png> <b.png> <diff.png>\n")
		fmt.Fprintf(stderr, "       pdfcompare history [-n N]\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitError
	}
	if fs.NArg() != 3 {
		fs.Usage()
		return exitError
	}
	pathA, pathB, outDir := fs.Arg(0), fs.Arg(1), fs.Arg(2)

	cfg, err := config.Load(f.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "\nError: %v\n", err)
		return exitError
	}
	applyFlags(fs, &f, cfg)
	cfg.Compare.OutputDir = outDir
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(stderr, "\nError: %v\n", err)
		return exitError
	}

	runID := report.NewRunID()
	log, err := logger.NewLoggerBuilder().WithConfig(cfg.Log).WithRunID(runID).WithWriter(stderr).Build()
	if err != nil {
		fmt.Fprintf(stderr, "\nError: %v\n", err)
		return exitError
	}

	cmp, cleanup, err := newComparator(cfg, log)
	if err != nil {
		fmt.Fprintf(stderr, "\nError: %v\n", err)
		return exitError
	}
	defer cleanup()

	if strings.EqualFold(cfg.Report.Format, report.FormatText) && cfg.Report.Output == "" {
		fmt.Fprintf(stdout, "Comparing PDFs:\nFile 1: %s\nFile 2: %s\n", pathA, pathB)
	}

	started := time.Now()
	result, cmpErr := cmp.Compare(pathA, pathB, outDir)
	if cfg.History.Enabled {
		recordHistory(cfg, log, history.NewRun(runID, pathA, pathB, cfg.Compare.Threshold, cfg.Compare.Renderer, started, result, cmpErr))
	}
	if cmpErr != nil {
		log.Error().Err(cmpErr).Str("kind", compare.KindOf(cmpErr).String()).Msg("Comparison failed")
		fmt.Fprintf(stderr, "\nError: %v\n", cmpErr)
		return exitError
	}

	rep := report.New(runID, result)
	rep.FileA, rep.FileB = pathA, pathB
	rep.OutputDir = outDir
	rep.Threshold = cfg.Compare.Threshold
	rep.Renderer = cfg.Compare.Renderer
	rep.Duration = time.Since(started)
	if err := writeReport(cfg.Report, rep, stdout); err != nil {
		fmt.Fprintf(stderr, "\nError: %v\n", err)
		return exitError
	}

	if f.failOnDiff && !result.Identical {
		return exitDifferences
	}
	return exitOK
}

// applyFlags lets explicitly set flags override the loaded configuration
func applyFlags(fs *flag.FlagSet, f *compareFlags, cfg *config.Config) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "threshold":
			cfg.Compare.Threshold = f.threshold
		case "renderer":
			cfg.Compare.Renderer = f.renderer
		case "dpi":
			cfg.Compare.DPIX, cfg.Compare.DPIY = f.dpi, f.dpi
		case "no-aa":
			cfg.Compare.Antialias = !f.noAA
			cfg.Compare.TextAntialias = !f.noAA
		case "format":
			cfg.Report.Format = f.format
		case "o":
			cfg.Report.Output = f.output
		case "cache":
			cfg.Cache.Enabled = f.cache
		case "cache-dir":
			cfg.Cache.Dir = f.cacheDir
		case "history":
			cfg.History.Enabled = f.history
		case "log-level":
			cfg.Log.LogLevel = f.logLevel
		}
	})
}

// newComparator wires the backend, optional render cache and PNG writer
func newComparator(cfg *config.Config, log zerolog.Logger) (*compare.Comparator, func(), error) {
	cleanup := func() {}

	backend, err := render.ParseType(cfg.Compare.Renderer)
	if err != nil {
		return nil, cleanup, err
	}
	opts := render.Options{
		Poppler: render.PopplerOptions{Pdftoppm: cfg.Poppler.Pdftoppm, Pdfinfo: cfg.Poppler.Pdfinfo},
		Logger:  log,
	}
	if cfg.Cache.Enabled {
		store, err := cache.Open(cfg.Cache.Dir, log)
		if err != nil {
			log.Warn().Err(err).Str("dir", cfg.Cache.Dir).Msg("Render cache unavailable, rendering uncached")
		} else {
			opts.Cache = store
			cleanup = func() {
				if err := store.Close(); err != nil {
					log.Warn().Err(err).Msg("Failed to close render cache")
				}
			}
		}
	}

	renderer, err := render.New(backend, opts)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	writer, err := artifact.NewPNGWriterWithCompression(cfg.Artifact.Compression)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}

	cmp := compare.New(renderer, writer,
		compare.WithThreshold(cfg.Compare.Threshold),
		compare.WithRenderOptions(compare.RenderOptions{
			DPIX:          cfg.Compare.DPIX,
			DPIY:          cfg.Compare.DPIY,
			Antialias:     cfg.Compare.Antialias,
			TextAntialias: cfg.Compare.TextAntialias,
		}),
		compare.WithLogger(log),
	)
	return cmp, cleanup, nil
}

func recordHistory(cfg *config.Config, log zerolog.Logger, run history.Run) {
	db, err := history.Open(cfg.History.Path, log)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.History.Path).Msg("History unavailable")
		return
	}
	defer db.Close()
	if _, err := db.RecordRun(run); err != nil {
		log.Warn().Err(err).Msg("Failed to record run")
	}
}

func writeReport(cfg config.ReportConfig, rep *report.Report, stdout io.Writer) (err error) {
	formatter, err := report.NewFormatter(cfg.Format)
	if err != nil {
		return err
	}
	if cfg.Output == "" {
		return formatter.Format(stdout, rep)
	}

	f, err := os.Create(cfg.Output)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return formatter.Format(f, rep)
}
