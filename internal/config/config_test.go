package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(home, ".cache"))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, 0.999, cfg.Compare.Threshold)
	assert.Equal(t, "diff_output", cfg.Compare.OutputDir)
	assert.Equal(t, "native", cfg.Compare.Renderer)
	assert.Equal(t, 72.0, cfg.Compare.DPIX)
	assert.Equal(t, 72.0, cfg.Compare.DPIY)
	assert.True(t, cfg.Compare.Antialias)
	assert.True(t, cfg.Compare.TextAntialias)
	assert.False(t, cfg.Cache.Enabled)
	assert.NotEmpty(t, cfg.Cache.Dir)
	assert.Equal(t, "text", cfg.Report.Format)
	assert.Equal(t, "pdftoppm", cfg.Poppler.Pdftoppm)
	assert.NoError(t, Validate(cfg))
}

func TestLoadWithoutConfigFile(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Source)
	assert.Equal(t, DefaultThreshold, cfg.Compare.Threshold)
	assert.Equal(t, DefaultLogLevel, cfg.Log.LogLevel)
}

func TestLoadYAMLFile(t *testing.T) {
	isolate(t)
	path := writeFile(t, "pdfcompare.yaml", `
compare:
  threshold: 0.95
  renderer: poppler
  dpi_x: 150
  dpi_y: 150
  antialias: false
report:
  format: json
log:
  level: debug
poppler:
  pdftoppm: /usr/local/bin/pdftoppm
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Source)
	assert.Equal(t, 0.95, cfg.Compare.Threshold)
	assert.Equal(t, "poppler", cfg.Compare.Renderer)
	assert.Equal(t, 150.0, cfg.Compare.DPIX)
	assert.False(t, cfg.Compare.Antialias)
	// unset keys keep their defaults
	assert.True(t, cfg.Compare.TextAntialias)
	assert.Equal(t, DefaultOutputDir, cfg.Compare.OutputDir)
	assert.Equal(t, "json", cfg.Report.Format)
	assert.Equal(t, "debug", cfg.Log.LogLevel)
	assert.Equal(t, "/usr/local/bin/pdftoppm", cfg.Poppler.Pdftoppm)
	assert.Equal(t, DefaultPdfinfo, cfg.Poppler.Pdfinfo)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	isolate(t)
	path := writeFile(t, "pdfcompare.yaml", "compare:\n  threshold: 0.95\n")
	t.Setenv("PDFCOMPARE_COMPARE_THRESHOLD", "0.5")
	t.Setenv("PDFCOMPARE_CACHE_ENABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Compare.Threshold)
	assert.True(t, cfg.Cache.Enabled)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	isolate(t)
	path := writeFile(t, "bad.yaml", `
compare:
  threshold: 1.5
  renderer: cairo
report:
  format: pdf
`)

	_, err := Load(path)
	require.Error(t, err)

	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)
	fields := map[string]string{}
	for _, e := range errs {
		fields[e.Field] = e.Rule
	}
	assert.Equal(t, "lte", fields["Compare.Threshold"])
	assert.Equal(t, "renderer", fields["Compare.Renderer"])
	assert.Equal(t, "reportformat", fields["Report.Format"])
	assert.Contains(t, err.Error(), "configuration validation failed")
}

func TestLoadEnv(t *testing.T) {
	path := writeFile(t, ".env", "PDFCOMPARE_TEST_VALUE=from-dotenv\n")
	t.Setenv("PDFCOMPARE_TEST_VALUE", "")
	os.Unsetenv("PDFCOMPARE_TEST_VALUE")

	require.NoError(t, LoadEnv(path, filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, "from-dotenv", GetEnv("PDFCOMPARE_TEST_VALUE", "fallback"))
	assert.Equal(t, "fallback", GetEnv("PDFCOMPARE_TEST_UNSET", "fallback"))
}
