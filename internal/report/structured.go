package report

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"
)

// JSONFormatter writes the report as a single JSON document
type JSONFormatter struct {
	Indent string
}

func (f JSONFormatter) Format(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", f.Indent)
	return enc.Encode(r)
}

// YAMLFormatter writes the report as YAML
type YAMLFormatter struct{}

func (YAMLFormatter) Format(w io.Writer, r *Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}
