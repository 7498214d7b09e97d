package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero threshold", func(c *Config) { c.Compare.Threshold = 0 }, "Compare.Threshold"},
		{"empty output dir", func(c *Config) { c.Compare.OutputDir = "" }, "Compare.OutputDir"},
		{"unknown renderer", func(c *Config) { c.Compare.Renderer = "pdfium" }, "Compare.Renderer"},
		{"negative dpi", func(c *Config) { c.Compare.DPIX = -1 }, "Compare.DPIX"},
		{"huge dpi", func(c *Config) { c.Compare.DPIY = 5000 }, "Compare.DPIY"},
		{"cache without dir", func(c *Config) { c.Cache.Enabled = true; c.Cache.Dir = "" }, "Cache.Dir"},
		{"history without path", func(c *Config) { c.History.Enabled = true; c.History.Path = "" }, "History.Path"},
		{"history limit", func(c *Config) { c.History.Limit = 0 }, "History.Limit"},
		{"report format", func(c *Config) { c.Report.Format = "xml" }, "Report.Format"},
		{"compression", func(c *Config) { c.Artifact.Compression = "max" }, "Artifact.Compression"},
		{"log level", func(c *Config) { c.Log.LogLevel = "verbose" }, "Log.LogLevel"},
		{"log format", func(c *Config) { c.Log.LogFormat = "xml" }, "Log.LogFormat"},
		{"pdftoppm", func(c *Config) { c.Poppler.Pdftoppm = "" }, "Poppler.Pdftoppm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			var errs ValidationErrors
			require.ErrorAs(t, err, &errs)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}
}

func TestValidateAcceptsMixedCase(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Compare.Renderer = "Poppler"
	cfg.Log.LogLevel = "DEBUG"
	cfg.Report.Format = "HTML"
	assert.NoError(t, Validate(cfg))

	// disabled features need no location
	cfg.Cache.Dir = ""
	cfg.History.Path = ""
	assert.NoError(t, Validate(cfg))
}

func TestValidationErrorMessage(t *testing.T) {
	e := &ValidationError{Field: "Compare.DPIX", Rule: "lte", Param: "1200", Value: 5000.0}
	assert.Equal(t, "validation failed for 'Compare.DPIX': rule 'lte' (expected: 1200), actual: '5000'", e.Error())
}
