// Package output renders profile listings for the CLI in table, JSON or
// YAML form.
package output

import (
	"fmt"
	"io"
)

// Row is one profile in a listing.
type Row struct {
	ID        int    `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Enabled   bool   `json:"enabled" yaml:"enabled"`
	Ephemeral bool   `json:"ephemeral,omitempty" yaml:"ephemeral,omitempty"`
	Hotkey    string `json:"hotkey,omitempty" yaml:"hotkey,omitempty"`
	URL       string `json:"url,omitempty" yaml:"url,omitempty"`
	Settings  int    `json:"settings" yaml:"settings"`
}

// Listing is the full set of rows handed to a formatter.
type Listing struct {
	Profiles []Row `json:"profiles" yaml:"profiles"`
}

// Formatter renders a listing to its writer.
type Formatter interface {
	Format(listing *Listing) error
}

// New returns the formatter for the given format name: "table", "json" or
// "yaml".
func New(format string, w io.Writer) (Formatter, error) {
	switch format {
	case "table", "":
		return NewTableFormatter(w), nil
	case "json":
		return NewJSONFormatter(w, true), nil
	case "yaml":
		return NewYAMLFormatter(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}
