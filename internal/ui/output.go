package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charliek/objstore/internal/domain"
	objio "github.com/charliek/objstore/internal/io"
)

// Output handles formatted output to the terminal
type Output struct {
	out     io.Writer
	err     io.Writer
	verbose bool
	json    bool
}

// NewOutput creates a new output handler
func NewOutput(verbose, jsonOutput bool) *Output {
	return &Output{
		out:     os.Stdout,
		err:     os.Stderr,
		verbose: verbose,
		json:    jsonOutput,
	}
}

// NewOutputWithWriters creates an output handler with custom writers (for testing)
func NewOutputWithWriters(out, err io.Writer, verbose, jsonOutput bool) *Output {
	return &Output{
		out:     out,
		err:     err,
		verbose: verbose,
		json:    jsonOutput,
	}
}

// Println prints a message to stdout with a newline
func (o *Output) Println(args ...interface{}) {
	fmt.Fprintln(o.out, args...)
}

// Printf prints a formatted message to stdout
func (o *Output) Printf(format string, args ...interface{}) {
	fmt.Fprintf(o.out, format, args...)
}

// Error prints an error message to stderr
func (o *Output) Error(format string, args ...interface{}) {
	fmt.Fprintf(o.err, "Error: "+format+"\n", args...)
}

// Warn prints a warning message to stderr
func (o *Output) Warn(format string, args ...interface{}) {
	fmt.Fprintf(o.err, "Warning: "+format+"\n", args...)
}

// Verbose prints a message only if verbose mode is enabled
func (o *Output) Verbose(format string, args ...interface{}) {
	if o.verbose {
		fmt.Fprintf(o.err, format+"\n", args...)
	}
}

// Success prints a success message. Skipped in JSON mode.
func (o *Output) Success(format string, args ...interface{}) {
	if o.json {
		return
	}
	fmt.Fprintf(o.out, format+"\n", args...)
}

// JSON outputs data as JSON
func (o *Output) JSON(data interface{}) error {
	enc := json.NewEncoder(o.out)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// IsJSON returns true if JSON output mode is enabled
func (o *Output) IsJSON() bool {
	return o.json
}

// Status prints a status line
func (o *Output) Status(label, value string) {
	fmt.Fprintf(o.out, "%-20s %s\n", label+":", value)
}

// Table prints a simple table
func (o *Output) Table(headers []string, rows [][]string) {
	// Calculate column widths
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	printRow := func(cells []string) {
		var b strings.Builder
		for i, cell := range cells {
			if i >= len(widths) {
				break
			}
			if i > 0 {
				b.WriteString("  ")
			}
			fmt.Fprintf(&b, "%-*s", widths[i], cell)
		}
		fmt.Fprintln(o.out, strings.TrimRight(b.String(), " "))
	}

	printRow(headers)

	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}
	printRow(sep)

	for _, row := range rows {
		printRow(row)
	}
}

// PrintObjects prints object metadata as a table, or one path per line when
// sizes and times are not wanted
func (o *Output) PrintObjects(objects []domain.ObjectMetadata, long bool) {
	if !long {
		for _, obj := range objects {
			fmt.Fprintln(o.out, obj.Path)
		}
		return
	}

	rows := make([][]string, 0, len(objects))
	for _, obj := range objects {
		rows = append(rows, []string{obj.Path, objio.FormatSize(obj.Size), formatTime(obj.Updated)})
	}
	o.Table([]string{"PATH", "SIZE", "UPDATED"}, rows)
}

// PrintObject prints the metadata of a single object
func (o *Output) PrintObject(obj domain.ObjectMetadata) {
	o.Status("Path", obj.Path)
	o.Status("Size", objio.FormatSize(obj.Size))
	if !obj.Updated.IsZero() {
		o.Status("Updated", formatTime(obj.Updated))
	}
}

// Check prints a pass/fail line for a named check
func (o *Output) Check(name string, ok bool, detail string) {
	mark := "ok"
	if !ok {
		mark = "FAIL"
	}
	if detail != "" {
		fmt.Fprintf(o.out, "  [%-4s] %s: %s\n", mark, name, detail)
		return
	}
	fmt.Fprintf(o.out, "  [%-4s] %s\n", mark, name)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.RFC3339)
}
