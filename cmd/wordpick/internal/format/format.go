package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

// OutputMode defines the output format for CLI commands.
type OutputMode string

const (
	// ModeJSON outputs data as JSON.
	ModeJSON OutputMode = "json"
	// ModeText outputs data as human-readable text and tables.
	ModeText OutputMode = "text"
)

// Formatter provides consistent output across the wordpick commands.
type Formatter struct {
	stdout io.Writer
	stderr io.Writer
	mode   OutputMode
	color  bool
}

// New creates a Formatter.
func New(stdout, stderr io.Writer, mode OutputMode, colorEnabled bool) *Formatter {
	return &Formatter{
		stdout: stdout,
		stderr: stderr,
		mode:   mode,
		color:  colorEnabled,
	}
}

// JSONMode reports whether the formatter emits machine-readable output.
func (f *Formatter) JSONMode() bool { return f.mode == ModeJSON }

// PrintJSON outputs data as indented JSON to stdout.
func (f *Formatter) PrintJSON(data any) error {
	enc := json.NewEncoder(f.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// PrintTable outputs rows as an aligned text table. In JSON mode the table
// is converted to an array of objects keyed by header.
func (f *Formatter) PrintTable(headers []string, rows [][]string) error {
	if f.mode == ModeJSON {
		items := make([]map[string]string, 0, len(rows))
		for _, row := range rows {
			item := make(map[string]string, len(headers))
			for i, header := range headers {
				if i < len(row) {
					item[header] = row[i]
				}
			}
			items = append(items, item)
		}
		return f.PrintJSON(items)
	}

	w := tabwriter.NewWriter(f.stdout, 0, 0, 2, ' ', 0)
	headerLine := make([]string, len(headers))
	for i, h := range headers {
		if f.color {
			headerLine[i] = color.New(color.Bold).Sprint(strings.ToUpper(h))
		} else {
			headerLine[i] = strings.ToUpper(h)
		}
	}
	if _, err := fmt.Fprintln(w, strings.Join(headerLine, "\t")); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return w.Flush()
}

// PrintLine writes a line of human output to stdout. Suppressed in JSON
// mode so stdout stays machine-readable.
func (f *Formatter) PrintLine(line string) error {
	if f.mode == ModeJSON {
		return nil
	}
	_, err := fmt.Fprintln(f.stdout, line)
	return err
}

// PrintWarning writes a highlighted warning to stderr.
func (f *Formatter) PrintWarning(message string) error {
	var err error
	if f.color {
		_, err = color.New(color.FgYellow).Fprintf(f.stderr, "Warning: %s\n", message)
	} else {
		_, err = fmt.Fprintf(f.stderr, "Warning: %s\n", message)
	}
	return err
}

// PrintError writes an error to stderr, or a JSON error object to stdout
// in JSON mode.
func (f *Formatter) PrintError(err error) error {
	if err == nil {
		return nil
	}
	if f.mode == ModeJSON {
		return f.PrintJSON(map[string]any{
			"success": false,
			"error":   err.Error(),
		})
	}
	var writeErr error
	if f.color {
		_, writeErr = color.New(color.FgRed).Fprintf(f.stderr, "Error: %v\n", err)
	} else {
		_, writeErr = fmt.Fprintf(f.stderr, "Error: %v\n", err)
	}
	return writeErr
}

// ParseMode converts a string to an OutputMode, defaulting to text.
func ParseMode(mode string) OutputMode {
	if strings.EqualFold(mode, string(ModeJSON)) {
		return ModeJSON
	}
	return ModeText
}

// ValidateMode checks an --output flag value.
func ValidateMode(mode string) error {
	switch OutputMode(strings.ToLower(mode)) {
	case ModeJSON, ModeText:
		return nil
	default:
		return fmt.Errorf("invalid output mode: %s (must be 'json' or 'text')", mode)
	}
}
