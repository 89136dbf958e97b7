// -- internal/reporting/reporter.go --
package reporting

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Output formats accepted by New.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatText = "text"
)

// Reporter defines the interface for writing query results to an output.
type Reporter interface {
	// Write renders a single result.
	Write(v any) error
	// Close finalizes the report and closes any underlying resources (e.g., file handles).
	Close() error
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// New creates a new reporter based on the specified format and output path.
// An empty path or "stdout" writes to standard output.
func New(format, outputPath string) (Reporter, error) {
	if !supported(format) {
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
	if outputPath == "" || outputPath == "stdout" {
		return ForWriter(format, os.Stdout)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory for %s: %w", outputPath, err)
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
	}
	// The reporter takes ownership of the file.
	return build(format, f), nil
}

// ForWriter creates a reporter over w. Closing the reporter does not close w.
func ForWriter(format string, w io.Writer) (Reporter, error) {
	if !supported(format) {
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
	return build(format, &nopWriteCloser{w}), nil
}

func supported(format string) bool {
	switch format {
	case FormatJSON, FormatYAML, FormatText:
		return true
	}
	return false
}

func build(format string, w io.WriteCloser) Reporter {
	switch format {
	case FormatYAML:
		return NewYAMLReporter(w)
	case FormatText:
		return NewTextReporter(w)
	default:
		return NewJSONReporter(w)
	}
}
