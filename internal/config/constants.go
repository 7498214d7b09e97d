package config

const (
	// EnvPrefix namespaces environment overrides, e.g. PDFCOMPARE_COMPARE_THRESHOLD
	EnvPrefix = "PDFCOMPARE"

	// DefaultConfigName is searched for in the working directory and the user config dir
	DefaultConfigName = "pdfcompare"

	// Compare Defaults
	DefaultThreshold     = 0.999
	DefaultOutputDir     = "diff_output"
	DefaultRenderer      = "native"
	DefaultDPI           = 72.0
	DefaultAntialias     = true
	DefaultTextAntialias = true
	MaxDPI               = 1200

	// Cache Defaults
	DefaultCacheEnabled = false
	DefaultCacheDirName = "render-cache"

	// History Defaults
	DefaultHistoryEnabled  = false
	DefaultHistoryFileName = "history.db"
	DefaultHistoryLimit    = 20

	// Report Defaults
	DefaultReportFormat = "text"

	// Artifact Defaults
	DefaultCompression = "default"

	// Log Defaults
	DefaultLogLevel      = "warn"
	DefaultLogFormat     = "console"
	DefaultLogFile       = ""
	DefaultMaxLogSizeMB  = 100
	DefaultMaxLogBackups = 3

	// Poppler Defaults
	DefaultPdftoppm = "pdftoppm"
	DefaultPdfinfo  = "pdfinfo"
)

// Accepted values for the enumerated settings
var (
	Renderers     = []string{"native", "fitz", "poppler"}
	ReportFormats = []string{"text", "json", "yaml", "html"}
	Compressions  = []string{"default", "none", "speed", "best"}
	LogLevels     = []string{"trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled"}
	LogFormats    = []string{"console", "text", "json"}
)
