package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ospet/visual-compare-pdf/internal/artifact"
	"github.com/ospet/visual-compare-pdf/pkg/compare"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(home, ".cache"))
	return home
}

// writePDF writes a document with one page per content stream
func writePDF(t *testing.T, dir, name string, pages ...string) string {
	t.Helper()
	objects := []string{"<< /Type /Catalog /Pages 2 0 R >>", ""}
	var kids bytes.Buffer
	for i, content := range pages {
		pageNum := 3 + 2*i
		fmt.Fprintf(&kids, "%d 0 R ", pageNum)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 20 10] /Contents %d 0 R >>", pageNum+1),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}
	objects[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids.String(), len(pages))

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

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, b.Bytes(), 0644))
	return path
}

const (
	blueSquare = "0 0 1 rg 0 0 5 5 re f"
	redSquare  = "1 0 0 rg 15 5 5 5 re f"
)

func runCLI(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestCompareIdentical(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	a := writePDF(t, dir, "a.pdf", blueSquare, "")
	out := filepath.Join(dir, "out")

	code, stdout, stderr := runCLI(a, a, out)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "Comparing PDFs:\nFile 1: "+a+"\nFile 2: "+a+"\n")
	assert.Contains(t, stdout, "Files are identical: Yes\n")
	assert.Contains(t, stdout, "Similarity score:    100.00%\n")
	assert.NotContains(t, stdout, "Differences found")
	assert.NoDirExists(t, out)
}

func TestCompareDiffering(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	a := writePDF(t, dir, "a.pdf", blueSquare, blueSquare)
	b := writePDF(t, dir, "b.pdf", blueSquare, blueSquare+" "+redSquare)
	out := filepath.Join(dir, "out")

	code, stdout, stderr := runCLI(a, b, out)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "Files are identical: No\n")
	assert.Contains(t, stdout, "Differing pages:     1\n")
	assert.Contains(t, stdout, "Differences found on pages: 2\n")
	assert.Contains(t, stdout, "generated in the '"+out+"' directory")
	assert.FileExists(t, filepath.Join(out, "diff_page_2.png"))
	assert.NoFileExists(t, filepath.Join(out, "diff_page_1.png"))

	diff, err := artifact.ReadPNG(filepath.Join(out, "diff_page_2.png"))
	require.NoError(t, err)
	assert.Equal(t, 20, diff.Width)

	code, _, _ = runCLI("-fail-on-diff", a, b, out)
	assert.Equal(t, exitDifferences, code)
}

func TestComparePageCountMismatch(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	a := writePDF(t, dir, "a.pdf", "", "", "")
	b := writePDF(t, dir, "b.pdf", "", "", "", "", "")

	code, stdout, stderr := runCLI(a, b, filepath.Join(dir, "out"))
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "Similarity score:    0.00%\n")
	assert.Contains(t, stdout, "Differing pages:     2\n")
}

func TestCompareJSONReportFile(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	a := writePDF(t, dir, "a.pdf", blueSquare)
	b := writePDF(t, dir, "b.pdf", redSquare)
	reportPath := filepath.Join(dir, "report.json")

	code, stdout, stderr := runCLI("-format", "json", "-o", reportPath, "-threshold", "0.5", "-renderer", "native", a, b, filepath.Join(dir, "out"))
	require.Equal(t, exitOK, code, stderr)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	var rep struct {
		RunID     string                   `json:"run_id"`
		Threshold float64                  `json:"threshold"`
		Renderer  string                   `json:"renderer"`
		Result    compare.ComparisonResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(data, &rep))
	assert.NotEmpty(t, rep.RunID)
	assert.Equal(t, 0.5, rep.Threshold)
	assert.Equal(t, "native", rep.Renderer)
	assert.Len(t, rep.Result.Pages, 1)
}

func TestCompareErrors(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	a := writePDF(t, dir, "a.pdf", blueSquare)

	code, _, stderr := runCLI(a, filepath.Join(dir, "missing.pdf"), filepath.Join(dir, "out"))
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "\nError: cannot load document")

	code, _, stderr = runCLI(a, a)
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "Usage: pdfcompare")

	code, _, stderr = runCLI("-threshold", "2", a, a, dir)
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "Compare.Threshold")

	code, _, _ = runCLI("-bogus", a, a, dir)
	assert.Equal(t, exitError, code)

	code, _, _ = runCLI("-h")
	assert.Equal(t, exitOK, code)
}

func TestCompareWithConfigFile(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "pdfcompare.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("compare:\n  dpi_x: 144\n  dpi_y: 144\nreport:\n  format: yaml\n"), 0644))
	a := writePDF(t, dir, "a.pdf", blueSquare)
	b := writePDF(t, dir, "b.pdf", redSquare)
	out := filepath.Join(dir, "out")

	code, stdout, stderr := runCLI("-config", cfgPath, a, b, out)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "identical: false")

	diff, err := artifact.ReadPNG(filepath.Join(out, "diff_page_1.png"))
	require.NoError(t, err)
	assert.Equal(t, 40, diff.Width)
	assert.Equal(t, 20, diff.Height)
}

func TestCompareWithCacheAndHistory(t *testing.T) {
	home := isolate(t)
	dir := t.TempDir()
	t.Setenv("PDFCOMPARE_HISTORY_PATH", filepath.Join(home, "history.db"))
	a := writePDF(t, dir, "a.pdf", blueSquare)
	b := writePDF(t, dir, "b.pdf", redSquare)
	cacheDir := filepath.Join(home, "cache")
	out := filepath.Join(dir, "out")

	for i := 0; i < 2; i++ {
		code, stdout, stderr := runCLI("-cache", "-cache-dir", cacheDir, "-history", a, b, out)
		require.Equal(t, exitOK, code, stderr)
		assert.Contains(t, stdout, "Differences found on pages: 1\n")
	}
	assert.DirExists(t, cacheDir)

	code, stdout, stderr := runCLI("history", "-n", "5")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "SIMILARITY")
	assert.Equal(t, 2, bytes.Count([]byte(stdout), []byte("differs")))
}

func TestHistoryEmpty(t *testing.T) {
	home := isolate(t)
	t.Setenv("PDFCOMPARE_HISTORY_PATH", filepath.Join(home, "empty.db"))

	code, stdout, _ := runCLI("history")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "No comparison runs recorded.")
}

func TestImagesCommand(t *testing.T) {
	dir := t.TempDir()
	a := compare.NewPixelBuffer(2, 2)
	for i := range a.Pix {
		a.Pix[i] = 255
	}
	b := compare.NewPixelBuffer(2, 2)
	copy(b.Pix, a.Pix)
	b.Pix[0] = 0

	w := artifact.NewPNGWriter()
	pathA, pathB := filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png")
	require.NoError(t, w.WriteImage(pathA, a))
	require.NoError(t, w.WriteImage(pathB, b))
	diffPath := filepath.Join(dir, "diff.png")

	code, stdout, stderr := runCLI("images", pathA, pathB, diffPath)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "Images are identical: No\n")
	assert.Contains(t, stdout, "Similarity score:     75.00%\n")

	diff, err := artifact.ReadPNG(diffPath)
	require.NoError(t, err)
	assert.Equal(t, []byte{255, 0, 0, 255}, diff.Pix[:4])
	assert.Equal(t, []byte{255, 255, 255, 128}, diff.Pix[4:8])

	code, _, _ = runCLI("images", pathA)
	assert.Equal(t, exitError, code)

	small := compare.NewPixelBuffer(1, 1)
	smallPath := filepath.Join(dir, "small.png")
	require.NoError(t, w.WriteImage(smallPath, small))
	code, _, stderr = runCLI("images", pathA, smallPath, diffPath)
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "Error:")
}
