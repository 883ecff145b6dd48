package output

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONFormatter renders a listing as JSON.
type JSONFormatter struct {
	writer io.Writer
	indent bool
}

// NewJSONFormatter creates a new JSON formatter. If indent is true the
// output is pretty-printed.
func NewJSONFormatter(w io.Writer, indent bool) *JSONFormatter {
	return &JSONFormatter{writer: w, indent: indent}
}

// Format writes the listing as JSON.
func (f *JSONFormatter) Format(listing *Listing) error {
	var data []byte
	var err error
	if f.indent {
		data, err = json.MarshalIndent(listing, "", "  ")
	} else {
		data, err = json.Marshal(listing)
	}
	if err != nil {
		return err
	}

	if _, err := f.writer.Write(data); err != nil {
		return err
	}
	_, err = fmt.Fprintln(f.writer)
	return err
}
