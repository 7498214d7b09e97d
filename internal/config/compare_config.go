package config

// CompareConfig holds the comparison threshold and render hints
type CompareConfig struct {
	Threshold     float64 `mapstructure:"threshold" json:"threshold" yaml:"threshold" validate:"gt=0,lte=1"`
	OutputDir     string  `mapstructure:"output_dir" json:"output_dir" yaml:"output_dir" validate:"required"`
	Renderer      string  `mapstructure:"renderer" json:"renderer" yaml:"renderer" validate:"renderer"`
	DPIX          float64 `mapstructure:"dpi_x" json:"dpi_x" yaml:"dpi_x" validate:"gt=0,lte=1200"`
	DPIY          float64 `mapstructure:"dpi_y" json:"dpi_y" yaml:"dpi_y" validate:"gt=0,lte=1200"`
	Antialias     bool    `mapstructure:"antialias" json:"antialias" yaml:"antialias"`
	TextAntialias bool    `mapstructure:"text_antialias" json:"text_antialias" yaml:"text_antialias"`
}

// NewDefaultCompareConfig creates default comparison settings
func NewDefaultCompareConfig() CompareConfig {
	return CompareConfig{
		Threshold:     DefaultThreshold,
		OutputDir:     DefaultOutputDir,
		Renderer:      DefaultRenderer,
		DPIX:          DefaultDPI,
		DPIY:          DefaultDPI,
		Antialias:     DefaultAntialias,
		TextAntialias: DefaultTextAntialias,
	}
}

// PopplerConfig locates the poppler-utils executables
type PopplerConfig struct {
	Pdftoppm string `mapstructure:"pdftoppm" json:"pdftoppm" yaml:"pdftoppm" validate:"required"`
	Pdfinfo  string `mapstructure:"pdfinfo" json:"pdfinfo" yaml:"pdfinfo" validate:"required"`
}

// NewDefaultPopplerConfig looks the executables up on PATH
func NewDefaultPopplerConfig() PopplerConfig {
	return PopplerConfig{
		Pdftoppm: DefaultPdftoppm,
		Pdfinfo:  DefaultPdfinfo,
	}
}
