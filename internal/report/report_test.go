package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ospet/visual-compare-pdf/pkg/compare"
)

func differingReport() *Report {
	r := New("run-42", &compare.ComparisonResult{
		Identical:            false,
		Similarity:           0.987654,
		DifferingPages:       2,
		PagesWithDifferences: []int{0, 2},
		PageCountA:           3,
		PageCountB:           3,
		Pages: []compare.PageOutcome{
			{Index: 0, Similarity: 0.97, Differs: true, ArtifactPath: "out/diff_page_1.png"},
			{Index: 1, Similarity: 1},
			{Index: 2, Differs: true, SizeMismatch: true},
		},
	})
	r.FileA, r.FileB = "a.pdf", "b.pdf"
	r.OutputDir = "out"
	r.Threshold = 0.999
	r.Renderer = "native"
	r.GeneratedAt = time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	return r
}

func format(t *testing.T, name string, r *Report) string {
	t.Helper()
	f, err := NewFormatter(name)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, r))
	return buf.String()
}

func TestTextIdentical(t *testing.T) {
	r := New("", &compare.ComparisonResult{Identical: true, Similarity: 1, PagesWithDifferences: []int{}})
	want := "\n=== PDF Comparison Results ===\n\n" +
		"Files are identical: Yes\n" +
		"Similarity score:    100.00%\n" +
		"Differing pages:     0\n" +
		"\n===========================\n"
	assert.Equal(t, want, format(t, FormatText, r))
}

func TestTextDiffering(t *testing.T) {
	want := "\n=== PDF Comparison Results ===\n\n" +
		"Files are identical: No\n" +
		"Similarity score:    98.77%\n" +
		"Differing pages:     2\n" +
		"\nDifferences found on pages: 1, 3\n" +
		"\nDifference images have been generated in the 'out' directory\n" +
		"\n===========================\n"
	assert.Equal(t, want, format(t, "text", differingReport()))
}

func TestTextPageCountMismatch(t *testing.T) {
	r := New("", &compare.ComparisonResult{DifferingPages: 2, PagesWithDifferences: []int{}, PageCountA: 3, PageCountB: 5})
	out := format(t, FormatText, r)
	assert.Contains(t, out, "Files are identical: No\n")
	assert.Contains(t, out, "Similarity score:    0.00%\n")
	assert.Contains(t, out, "Differing pages:     2\n")
	assert.NotContains(t, out, "Differences found")
}

func TestJSON(t *testing.T) {
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(format(t, FormatJSON, differingReport())), &got))
	assert.Equal(t, "run-42", got["run_id"])
	assert.Equal(t, "a.pdf", got["file_a"])
	assert.Equal(t, "2026-10-14T09:30:00Z", got["generated_at"])

	result := got["result"].(map[string]interface{})
	assert.Equal(t, false, result["identical"])
	assert.Equal(t, []interface{}{0.0, 2.0}, result["pages_with_differences"])
	assert.Len(t, result["pages"], 3)
}

func TestYAML(t *testing.T) {
	var got struct {
		RunID  string `yaml:"run_id"`
		Result struct {
			DifferingPages int   `yaml:"differing_pages"`
			Pages          []int `yaml:"pages_with_differences"`
		} `yaml:"result"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(format(t, FormatYAML, differingReport())), &got))
	assert.Equal(t, "run-42", got.RunID)
	assert.Equal(t, 2, got.Result.DifferingPages)
	assert.Equal(t, []int{0, 2}, got.Result.Pages)
}

func TestHTML(t *testing.T) {
	r := differingReport()
	r.FileA = "<script>.pdf"
	out := format(t, FormatHTML, r)

	assert.Contains(t, out, "<title>PDF Comparison run-42</title>")
	assert.Contains(t, out, "&lt;script&gt;.pdf")
	assert.Contains(t, out, `<a href="out/diff_page_1.png">diff_page_1.png</a>`)
	assert.Contains(t, out, "page sizes differ")
	assert.Contains(t, out, "98.77%")
	assert.Equal(t, 1, strings.Count(out, "<a href"))
}

func TestHTMLPageCountMismatch(t *testing.T) {
	r := New("", &compare.ComparisonResult{DifferingPages: 1, PagesWithDifferences: []int{}, PageCountA: 1, PageCountB: 2})
	out := format(t, FormatHTML, r)
	assert.Contains(t, out, "different page counts (1 and 2)")
}

func TestNewFormatter(t *testing.T) {
	for _, name := range []string{"", "TEXT", "json", "yaml", "html"} {
		_, err := NewFormatter(name)
		assert.NoError(t, err, name)
	}
	_, err := NewFormatter("pdf")
	assert.Error(t, err)
}

func TestNewRunID(t *testing.T) {
	r := New("", &compare.ComparisonResult{})
	_, err := uuid.Parse(r.RunID)
	assert.NoError(t, err)
	assert.NotEqual(t, NewRunID(), NewRunID())
}
