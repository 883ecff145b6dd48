package output

import (
	"io"

	"github.com/goccy/go-yaml"
)

// YAMLFormatter renders a listing as YAML.
type YAMLFormatter struct {
	writer io.Writer
}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter(w io.Writer) *YAMLFormatter {
	return &YAMLFormatter{writer: w}
}

// Format writes the listing as YAML.
func (f *YAMLFormatter) Format(listing *Listing) error {
	enc := yaml.NewEncoder(f.writer, yaml.Indent(2))
	if err := enc.Encode(listing); err != nil {
		return err
	}
	return enc.Close()
}
