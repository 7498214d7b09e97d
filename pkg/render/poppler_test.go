package render

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ospet/visual-compare-pdf/internal/artifact"
	"github.com/ospet/visual-compare-pdf/pkg/compare"
)

type call struct {
	name string
	args []string
}

type fakeExecutor struct {
	calls   []call
	pdfinfo string
	page    compare.PixelBuffer
	err     error
}

func (f *fakeExecutor) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	if f.err != nil {
		return nil, f.err
	}
	if filepath.Base(name) == "pdfinfo" {
		return []byte(f.pdfinfo), nil
	}
	// pdftoppm -singlefile writes <prefix>.png
	prefix := args[len(args)-1]
	return nil, artifact.NewPNGWriter().WriteImage(prefix+".png", f.page)
}

const pdfinfoOutput = `Title:          sample
Producer:       test
Pages:          3
Encrypted:      no
Page size:      612 x 792 pts (letter)
`

func TestParsePdfInfoOutput(t *testing.T) {
	n, err := parsePdfInfoOutput(pdfinfoOutput)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = parsePdfInfoOutput("Title: x\n")
	assert.Error(t, err)

	_, err = parsePdfInfoOutput("Pages: many\n")
	assert.Error(t, err)
}

func TestPopplerRenderer(t *testing.T) {
	page := compare.NewPixelBuffer(4, 2)
	for i := range page.Pix {
		page.Pix[i] = 200
	}
	for i := 3; i < len(page.Pix); i += 4 {
		page.Pix[i] = 255
	}
	exec := &fakeExecutor{pdfinfo: pdfinfoOutput, page: page}
	r := NewPopplerRenderer(PopplerOptions{Pdftoppm: "/opt/poppler/pdftoppm", Executor: exec})

	doc, err := r.Open("in.pdf")
	require.NoError(t, err)
	defer doc.Close()
	assert.Equal(t, 3, doc.PageCount())

	opts := compare.RenderOptions{DPIX: 150, DPIY: 72.5, Antialias: false, TextAntialias: true}
	buf, err := doc.RenderPage(1, opts)
	require.NoError(t, err)
	assert.Equal(t, page, buf)

	require.Len(t, exec.calls, 2)
	assert.Equal(t, call{name: "pdfinfo", args: []string{"in.pdf"}}, exec.calls[0])
	got := exec.calls[1]
	assert.Equal(t, "/opt/poppler/pdftoppm", got.name)
	assert.Equal(t, []string{
		"-f", "2", "-l", "2",
		"-rx", "150", "-ry", "72.5",
		"-aa", "yes", "-aaVector", "no",
		"-png", "-singlefile", "in.pdf",
	}, got.args[:len(got.args)-1])

	_, err = doc.RenderPage(3, opts)
	assert.Error(t, err)
}

func TestPopplerRendererErrors(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("exit status 1")}
	_, err := NewPopplerRenderer(PopplerOptions{Executor: exec}).Open("missing.pdf")
	assert.Error(t, err)

	exec = &fakeExecutor{pdfinfo: "garbage"}
	_, err = NewPopplerRenderer(PopplerOptions{Executor: exec}).Open("in.pdf")
	assert.Error(t, err)
}

func TestExecCommandExecutorMissingProgram(t *testing.T) {
	_, err := ExecCommandExecutor{}.Run(context.Background(), filepath.Join(t.TempDir(), "no-such-tool"))
	assert.Error(t, err)
}
