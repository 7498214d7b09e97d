// Package report renders comparison results for people and machines
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ospet/visual-compare-pdf/pkg/compare"
)

// Report wraps a comparison result with the context of the run
type Report struct {
	RunID       string                    `json:"run_id" yaml:"run_id"`
	FileA       string                    `json:"file_a" yaml:"file_a"`
	FileB       string                    `json:"file_b" yaml:"file_b"`
	OutputDir   string                    `json:"output_dir" yaml:"output_dir"`
	Threshold   float64                   `json:"threshold" yaml:"threshold"`
	Renderer    string                    `json:"renderer" yaml:"renderer"`
	GeneratedAt time.Time                 `json:"generated_at" yaml:"generated_at"`
	Duration    time.Duration             `json:"duration_ns" yaml:"duration"`
	Result      *compare.ComparisonResult `json:"result" yaml:"result"`
}

// NewRunID returns a random identifier shared by the report, log and history
func NewRunID() string {
	return uuid.NewString()
}

// New creates a report stamped with the current time; an empty runID draws a new one
func New(runID string, result *compare.ComparisonResult) *Report {
	if runID == "" {
		runID = NewRunID()
	}
	return &Report{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		Result:      result,
	}
}

// Formatter writes a report in one output format
type Formatter interface {
	Format(w io.Writer, r *Report) error
}

// Format names accepted by NewFormatter
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatHTML = "html"
)

// NewFormatter returns the formatter for a format name
func NewFormatter(format string) (Formatter, error) {
	switch strings.ToLower(format) {
	case "", FormatText:
		return TextFormatter{}, nil
	case FormatJSON:
		return JSONFormatter{Indent: "  "}, nil
	case FormatYAML:
		return YAMLFormatter{}, nil
	case FormatHTML:
		return NewHTMLFormatter()
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

// Percent formats a similarity as the CLI prints it
func Percent(similarity float64) string {
	return fmt.Sprintf("%.2f%%", similarity*100)
}

func joinPages(pages []int) string {
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = fmt.Sprint(p)
	}
	return strings.Join(parts, ", ")
}
