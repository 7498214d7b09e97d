package main

import (
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"github.com/ospet/visual-compare-pdf/internal/config"
	"github.com/ospet/visual-compare-pdf/internal/history"
	"github.com/ospet/visual-compare-pdf/internal/report"
)

// runHistory lists the most recent recorded runs
func runHistory(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("pdfcompare history", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "configuration file")
	limit := fs.Int("n", 0, "number of runs to show (default from config)")
	if err := fs.Parse(args); err != nil {
		return exitError
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "\nError: %v\n", err)
		return exitError
	}
	if *limit <= 0 {
		*limit = cfg.History.Limit
	}

	db, err := history.Open(cfg.History.Path, zerolog.Nop())
	if err != nil {
		fmt.Fprintf(stderr, "\nError: %v\n", err)
		return exitError
	}
	defer db.Close()

	runs, err := db.Recent(*limit)
	if err != nil {
		fmt.Fprintf(stderr, "\nError: %v\n", err)
		return exitError
	}
	if len(runs) == 0 {
		fmt.Fprintln(stdout, "No comparison runs recorded.")
		return exitOK
	}

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tFILE 1\tFILE 2\tRENDERER\tSIMILARITY\tDIFFERING\tSTATUS")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			r.StartedAt.Local().Format(time.DateTime), r.FileA, r.FileB, r.Renderer,
			report.Percent(r.Similarity), r.DifferingPages, status(r))
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(stderr, "\nError: %v\n", err)
		return exitError
	}
	return exitOK
}

func status(r history.Run) string {
	switch {
	case r.Error != "":
		return "error: " + r.Error
	case r.Identical:
		return "identical"
	default:
		return "differs"
	}
}
