package diagnostics

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Level represents the level of diagnostic output
type Level int

const (
	Silent Level = iota
	ErrorLevel
	WarnLevel
	VerboseLevel
	DebugLevel
)

// String returns the string representation of the level
func (l Level) String() string {
	switch l {
	case Silent:
		return "silent"
	case ErrorLevel:
		return "error"
	case WarnLevel:
		return "warn"
	case VerboseLevel:
		return "verbose"
	case DebugLevel:
		return "debug"
	default:
		return "unknown"
	}
}

// LevelFor picks the level matching the --verbose, --debug and --quiet flags.
// Quiet wins over the others, debug implies verbose.
func LevelFor(verbose, debug, quiet bool) Level {
	switch {
	case quiet:
		return ErrorLevel
	case debug:
		return DebugLevel
	case verbose:
		return VerboseLevel
	default:
		return WarnLevel
	}
}

// System provides leveled, optionally colored, terminal output. Regular
// messages go to the output writer; errors go to the error writer.
type System struct {
	level     Level
	useColors bool
	showTime  bool
	output    io.Writer
	errorOut  io.Writer
	indent    int
}

// New creates a diagnostic system writing to stdout and stderr
func New(level Level) *System {
	return &System{
		level:     level,
		useColors: shouldUseColors(),
		showTime:  level >= DebugLevel,
		output:    os.Stdout,
		errorOut:  os.Stderr,
	}
}

// WithWriters redirects output and error output
func (d *System) WithWriters(output, errorOut io.Writer) *System {
	d.output = output
	d.errorOut = errorOut
	return d
}

// WithColors forces colors on or off
func (d *System) WithColors(enabled bool) *System {
	d.useColors = enabled
	return d
}

// Output returns the writer results are printed to. Diagnostics never go
// there, so piped output stays machine readable.
func (d *System) Output() io.Writer {
	return d.output
}

// Error outputs error messages (always shown unless silent)
func (d *System) Error(format string, args ...any) {
	if d.level >= ErrorLevel {
		d.writeMessage(d.errorOut, "ERROR", color.FgRed, format, args...)
	}
}

// Warn outputs warning messages
func (d *System) Warn(format string, args ...any) {
	if d.level >= WarnLevel {
		d.writeMessage(d.errorOut, "WARN", color.FgYellow, format, args...)
	}
}

// Verbose outputs detailed messages (verbose mode only)
func (d *System) Verbose(format string, args ...any) {
	if d.level >= VerboseLevel {
		d.writeMessage(d.errorOut, "VERBOSE", color.FgHiBlack, format, args...)
	}
}

// Debug outputs debug messages (highest verbosity)
func (d *System) Debug(format string, args ...any) {
	if d.level >= DebugLevel {
		d.writeMessage(d.errorOut, "DEBUG", color.FgMagenta, format, args...)
	}
}

// Hints prints suggestions attached to an error, one per line
func (d *System) Hints(hints []string) {
	if d.level < ErrorLevel {
		return
	}
	for _, hint := range hints {
		d.paint(d.errorOut, color.FgCyan, "%s  hint: ", d.getIndent())
		fmt.Fprintln(d.errorOut, hint)
	}
}

// Header outputs the tool header
func (d *System) Header(message string) {
	if d.level >= VerboseLevel {
		d.paint(d.errorOut, color.FgCyan, "docnote: %s\n", message)
	}
}

// Item outputs a progress item with a checkmark
func (d *System) Item(format string, args ...any) {
	if d.level >= VerboseLevel {
		d.paint(d.errorOut, color.FgGreen, "%s✓ ", d.getIndent())
		fmt.Fprintf(d.errorOut, format+"\n", args...)
	}
}

// Summary outputs a final summary with statistics in key order
func (d *System) Summary(title string, stats map[string]any) {
	if d.level < VerboseLevel {
		return
	}

	fmt.Fprintf(d.errorOut, "\n%s\n", title)
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		fmt.Fprintf(d.errorOut, "   %s: %v\n", key, stats[key])
	}
}

// Indent increases the indentation level
func (d *System) Indent() {
	d.indent++
}

// Unindent decreases the indentation level
func (d *System) Unindent() {
	if d.indent > 0 {
		d.indent--
	}
}

func (d *System) writeMessage(writer io.Writer, level string, attr color.Attribute, format string, args ...any) {
	var output strings.Builder
	output.WriteString(d.getIndent())

	if d.showTime {
		output.WriteString(time.Now().Format("15:04:05 "))
	}

	fmt.Fprint(writer, output.String())
	d.paint(writer, attr, "[%s] ", level)
	fmt.Fprintf(writer, format+"\n", args...)
}

// paint writes in color when colors are enabled
func (d *System) paint(writer io.Writer, attr color.Attribute, format string, args ...any) {
	c := color.New(attr)
	if d.useColors {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	c.Fprintf(writer, format, args...)
}

func (d *System) getIndent() string {
	return strings.Repeat("  ", d.indent)
}

// shouldUseColors determines if colors should be used
func shouldUseColors() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}

	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}

	term := os.Getenv("TERM")
	return term != "" && term != "dumb"
}
