// Package output provides consistent CLI output formatting.
package output

import (
	"fmt"
	"io"
	"strings"
)

// Writer provides formatted output for the CLI.
type Writer struct {
	out io.Writer
}

// New creates an output Writer.
func New(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Status prints a message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message.
func (w *Writer) Success(msg string) {
	w.Status("✅", msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status("⚠️ ", msg)
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status("❌", msg)
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Excerpt prints an indented text block, such as a search snippet.
func (w *Writer) Excerpt(content string) {
	for _, line := range strings.Split(content, "\n") {
		_, _ = fmt.Fprintf(w.out, "   %s\n", line)
	}
}

// Field prints an aligned "name: value" line for status output.
func (w *Writer) Field(name string, value any) {
	_, _ = fmt.Fprintf(w.out, "  %-16s %v\n", name+":", value)
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}
