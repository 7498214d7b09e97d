package config

import (
	"os"
	"path/filepath"
)

// CacheConfig controls the persistent render cache
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
	Dir     string `mapstructure:"dir" json:"dir" yaml:"dir" validate:"required_if=Enabled true"`
}

// NewDefaultCacheConfig keeps the cache off, under the user cache directory
func NewDefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled: DefaultCacheEnabled,
		Dir:     filepath.Join(dataDir(), DefaultCacheDirName),
	}
}

// HistoryConfig controls the SQLite record of past runs
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" json:"path" yaml:"path" validate:"required_if=Enabled true"`
	Limit   int    `mapstructure:"limit" json:"limit" yaml:"limit" validate:"gte=1"`
}

// NewDefaultHistoryConfig keeps history off, next to the render cache
func NewDefaultHistoryConfig() HistoryConfig {
	return HistoryConfig{
		Enabled: DefaultHistoryEnabled,
		Path:    filepath.Join(dataDir(), DefaultHistoryFileName),
		Limit:   DefaultHistoryLimit,
	}
}

func dataDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(".", "."+DefaultConfigName)
	}
	return filepath.Join(dir, DefaultConfigName)
}
