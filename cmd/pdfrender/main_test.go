package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ospet/visual-compare-pdf/internal/artifact"
)

func writeTwoPagePDF(t *testing.T, path string) {
	t.Helper()
	content := "1 0 0 rg 0 0 10 10 re f"
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R 4 0 R] /Count 2 /MediaBox [0 0 20 10] >>",
		"<< /Type /Page /Parent 2 0 R /Contents 5 0 R >>",
		"<< /Type /Page /Parent 2 0 R /Contents 5 0 R /Rotate 90 >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
	}

	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	require.NoError(t, os.WriteFile(path, b.Bytes(), 0644))
}

func TestRenderAllPages(t *testing.T) {
	dir := t.TempDir()
	pdf := filepath.Join(dir, "doc.pdf")
	writeTwoPagePDF(t, pdf)
	root := filepath.Join(dir, "png", "page")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-rx", "144", "-ry", "72", pdf, root}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "page-1.png (40x10)")
	assert.Contains(t, stdout.String(), "page-2.png (20x20)")

	first, err := artifact.ReadPNG(root + "-1.png")
	require.NoError(t, err)
	assert.Equal(t, []byte{255, 0, 0, 255}, first.Pix[:4])

	// rotated pages swap their axes
	second, err := artifact.ReadPNG(root + "-2.png")
	require.NoError(t, err)
	assert.Equal(t, 20, second.Width)
	assert.Equal(t, 20, second.Height)
}

func TestRenderPageRange(t *testing.T) {
	dir := t.TempDir()
	pdf := filepath.Join(dir, "doc.pdf")
	writeTwoPagePDF(t, pdf)
	root := filepath.Join(dir, "out")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-f", "2", "-l", "2", "-q", "-aa", "no", "-aaVector", "no", pdf, root}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Empty(t, stdout.String())
	assert.NoFileExists(t, root+"-1.png")
	assert.FileExists(t, root+"-2.png")
}

func TestRenderErrors(t *testing.T) {
	dir := t.TempDir()
	var stdout, stderr bytes.Buffer

	assert.Equal(t, 1, run(nil, &stdout, &stderr))
	assert.Equal(t, 1, run([]string{filepath.Join(dir, "missing.pdf")}, &stdout, &stderr))
	assert.Equal(t, 1, run([]string{"-aa", "maybe", "x.pdf"}, &stdout, &stderr))
	assert.Equal(t, 1, run([]string{"-renderer", "cairo", "x.pdf"}, &stdout, &stderr))
	assert.Equal(t, 1, run([]string{"-compression", "max", "x.pdf"}, &stdout, &stderr))
	assert.Equal(t, 0, run([]string{"-h"}, &stdout, &stderr))
}
