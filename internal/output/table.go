package output

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// TableFormatter renders a listing as a human-readable table.
type TableFormatter struct {
	writer io.Writer
}

// NewTableFormatter creates a new table formatter.
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{writer: w}
}

// Format writes the listing as an aligned table.
func (f *TableFormatter) Format(listing *Listing) error {
	if len(listing.Profiles) == 0 {
		_, err := fmt.Fprintln(f.writer, "No profiles.")
		return err
	}

	tw := tabwriter.NewWriter(f.writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tENABLED\tSETTINGS\tHOTKEY\tURL")
	for _, row := range listing.Profiles {
		name := row.Name
		if row.Ephemeral {
			name += " (ephemeral)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\n",
			row.ID, name, onOff(row.Enabled), row.Settings, row.Hotkey, row.URL)
	}
	return tw.Flush()
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}
