package render

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ospet/visual-compare-pdf/internal/artifact"
	"github.com/ospet/visual-compare-pdf/pkg/compare"
)

// CommandExecutor runs an external program and returns its standard output
type CommandExecutor interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecCommandExecutor runs programs with os/exec
type ExecCommandExecutor struct{}

// Run includes the program's standard error in the returned error
func (ExecCommandExecutor) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// PopplerOptions locates the poppler-utils executables
type PopplerOptions struct {
	Pdftoppm string
	Pdfinfo  string
	// Timeout bounds each executable run; zero disables it.
	Timeout  time.Duration
	Executor CommandExecutor
}

// PopplerRenderer shells out to pdfinfo for page counts and pdftoppm for pages
type PopplerRenderer struct {
	opts PopplerOptions
}

// NewPopplerRenderer fills in the default executable names
func NewPopplerRenderer(opts PopplerOptions) *PopplerRenderer {
	if opts.Pdftoppm == "" {
		opts.Pdftoppm = "pdftoppm"
	}
	if opts.Pdfinfo == "" {
		opts.Pdfinfo = "pdfinfo"
	}
	if opts.Executor == nil {
		opts.Executor = ExecCommandExecutor{}
	}
	return &PopplerRenderer{opts: opts}
}

func (r *PopplerRenderer) runContext() (context.Context, context.CancelFunc) {
	if r.opts.Timeout > 0 {
		return context.WithTimeout(context.Background(), r.opts.Timeout)
	}
	return context.WithCancel(context.Background())
}

// Open reads the page count with pdfinfo
func (r *PopplerRenderer) Open(path string) (compare.Document, error) {
	ctx, cancel := r.runContext()
	defer cancel()

	out, err := r.opts.Executor.Run(ctx, r.opts.Pdfinfo, path)
	if err != nil {
		return nil, err
	}
	pages, err := parsePdfInfoOutput(string(out))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &popplerDocument{r: r, path: path, pages: pages}, nil
}

// parsePdfInfoOutput extracts the "Pages:" field
func parsePdfInfoOutput(out string) (int, error) {
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), ":")
		if !ok || strings.TrimSpace(key) != "Pages" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid page count %q", strings.TrimSpace(value))
		}
		return n, nil
	}
	return 0, errors.New("pdfinfo output has no page count")
}

type popplerDocument struct {
	r     *PopplerRenderer
	path  string
	pages int
}

func (d *popplerDocument) PageCount() int {
	return d.pages
}

func (d *popplerDocument) RenderPage(index int, opts compare.RenderOptions) (compare.PixelBuffer, error) {
	if index < 0 || index >= d.pages {
		return compare.PixelBuffer{}, fmt.Errorf("page index %d out of range (%d pages)", index, d.pages)
	}

	dir, err := os.MkdirTemp("", "pdfcompare-poppler-")
	if err != nil {
		return compare.PixelBuffer{}, err
	}
	defer os.RemoveAll(dir)

	prefix := filepath.Join(dir, "page")
	ctx, cancel := d.r.runContext()
	defer cancel()
	if _, err := d.r.opts.Executor.Run(ctx, d.r.opts.Pdftoppm, pdftoppmArgs(d.path, prefix, index, opts)...); err != nil {
		return compare.PixelBuffer{}, err
	}
	return artifact.ReadPNG(prefix + ".png")
}

// pdftoppmArgs renders the single 0-based page index to <prefix>.png
func pdftoppmArgs(path, prefix string, index int, opts compare.RenderOptions) []string {
	page := strconv.Itoa(index + 1)
	return []string{
		"-f", page,
		"-l", page,
		"-rx", formatDPI(opts.DPIX),
		"-ry", formatDPI(opts.DPIY),
		"-aa", yesNo(opts.TextAntialias),
		"-aaVector", yesNo(opts.Antialias),
		"-png",
		"-singlefile",
		path,
		prefix,
	}
}

func formatDPI(dpi float64) string {
	return strconv.FormatFloat(dpi, 'f', -1, 64)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func (d *popplerDocument) Close() error {
	return nil
}
