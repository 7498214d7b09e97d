package config

// ReportConfig selects the report format and destination
type ReportConfig struct {
	Format string `mapstructure:"format" json:"format" yaml:"format" validate:"reportformat"`
	// Output is a file path; empty writes to standard output.
	Output string `mapstructure:"output" json:"output,omitempty" yaml:"output,omitempty"`
}

// NewDefaultReportConfig prints the text report
func NewDefaultReportConfig() ReportConfig {
	return ReportConfig{Format: DefaultReportFormat}
}

// ArtifactConfig tunes the diff image encoder
type ArtifactConfig struct {
	Compression string `mapstructure:"compression" json:"compression" yaml:"compression" validate:"compression"`
}

// NewDefaultArtifactConfig uses the encoder's default compression
func NewDefaultArtifactConfig() ArtifactConfig {
	return ArtifactConfig{Compression: DefaultCompression}
}
