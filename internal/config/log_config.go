package config

// LogConfig defines configuration for logging
type LogConfig struct {
	LogFile       string `mapstructure:"file" json:"file,omitempty" yaml:"file,omitempty"`
	LogFormat     string `mapstructure:"format" json:"format,omitempty" yaml:"format,omitempty" validate:"omitempty,logformat"`
	LogLevel      string `mapstructure:"level" json:"level,omitempty" yaml:"level,omitempty" validate:"omitempty,loglevel"`
	MaxLogBackups int    `mapstructure:"max_backups" json:"max_backups,omitempty" yaml:"max_backups,omitempty" validate:"gte=0"`
	MaxLogSizeMB  int    `mapstructure:"max_size_mb" json:"max_size_mb,omitempty" yaml:"max_size_mb,omitempty" validate:"gte=0"`
}

// NewDefaultLogConfig creates default log configuration
func NewDefaultLogConfig() LogConfig {
	return LogConfig{
		LogFile:       DefaultLogFile,
		LogFormat:     DefaultLogFormat,
		LogLevel:      DefaultLogLevel,
		MaxLogBackups: DefaultMaxLogBackups,
		MaxLogSizeMB:  DefaultMaxLogSizeMB,
	}
}
