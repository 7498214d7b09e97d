// Package config loads pdfcompare settings from a YAML file, .env and the environment
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config contains all configuration sections
type Config struct {
	Compare  CompareConfig  `mapstructure:"compare" json:"compare" yaml:"compare"`
	Cache    CacheConfig    `mapstructure:"cache" json:"cache" yaml:"cache"`
	History  HistoryConfig  `mapstructure:"history" json:"history" yaml:"history"`
	Report   ReportConfig   `mapstructure:"report" json:"report" yaml:"report"`
	Artifact ArtifactConfig `mapstructure:"artifact" json:"artifact" yaml:"artifact"`
	Log      LogConfig      `mapstructure:"log" json:"log" yaml:"log"`
	Poppler  PopplerConfig  `mapstructure:"poppler" json:"poppler" yaml:"poppler"`

	// Source is the config file that was read, if any.
	Source string `mapstructure:"-" json:"-" yaml:"-"`
}

// NewDefaultConfig creates a Config with default values
func NewDefaultConfig() *Config {
	return &Config{
		Compare:  NewDefaultCompareConfig(),
		Cache:    NewDefaultCacheConfig(),
		History:  NewDefaultHistoryConfig(),
		Report:   NewDefaultReportConfig(),
		Artifact: NewDefaultArtifactConfig(),
		Log:      NewDefaultLogConfig(),
		Poppler:  NewDefaultPopplerConfig(),
	}
}

// Load reads path, or pdfcompare.yaml from the working directory and the
// user config directory when path is empty. Values from a .env file and
// PDFCOMPARE_* variables override the file.
func Load(path string) (*Config, error) {
	if err := LoadEnv(); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v, NewDefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, DefaultConfigName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.Source = v.ConfigFileUsed()

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("compare.threshold", d.Compare.Threshold)
	v.SetDefault("compare.output_dir", d.Compare.OutputDir)
	v.SetDefault("compare.renderer", d.Compare.Renderer)
	v.SetDefault("compare.dpi_x", d.Compare.DPIX)
	v.SetDefault("compare.dpi_y", d.Compare.DPIY)
	v.SetDefault("compare.antialias", d.Compare.Antialias)
	v.SetDefault("compare.text_antialias", d.Compare.TextAntialias)

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.dir", d.Cache.Dir)

	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.path", d.History.Path)
	v.SetDefault("history.limit", d.History.Limit)

	v.SetDefault("report.format", d.Report.Format)
	v.SetDefault("report.output", d.Report.Output)

	v.SetDefault("artifact.compression", d.Artifact.Compression)

	v.SetDefault("log.level", d.Log.LogLevel)
	v.SetDefault("log.format", d.Log.LogFormat)
	v.SetDefault("log.file", d.Log.LogFile)
	v.SetDefault("log.max_size_mb", d.Log.MaxLogSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxLogBackups)

	v.SetDefault("poppler.pdftoppm", d.Poppler.Pdftoppm)
	v.SetDefault("poppler.pdfinfo", d.Poppler.Pdfinfo)
}
