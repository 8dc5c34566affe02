package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/oriys/memo/internal/metrics"
	"gopkg.in/yaml.v3"
)

// Format represents output format
type Format string

const (
	FormatTable Format = "table"
	FormatWide  Format = "wide"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses a format string
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	case "yaml", "yml":
		return FormatYAML
	case "wide":
		return FormatWide
	default:
		return FormatTable
	}
}

// Printer handles formatted output
type Printer struct {
	format  Format
	writer  io.Writer
	noColor bool
}

// NewPrinter creates a new printer
func NewPrinter(format Format) *Printer {
	return &Printer{
		format:  format,
		writer:  os.Stdout,
		noColor: os.Getenv("NO_COLOR") != "",
	}
}

// SetWriter sets the output writer
func (p *Printer) SetWriter(w io.Writer) {
	p.writer = w
}

// SetNoColor disables ANSI colors regardless of NO_COLOR.
func (p *Printer) SetNoColor(noColor bool) {
	p.noColor = noColor
}

// Print outputs data in the configured format
func (p *Printer) Print(data any) error {
	switch p.format {
	case FormatYAML:
		return p.printYAML(data)
	default:
		// Table and Wide are handled by specific methods
		return p.printJSON(data)
	}
}

func (p *Printer) structured() bool {
	return p.format == FormatJSON || p.format == FormatYAML
}

func (p *Printer) printJSON(data any) error {
	enc := json.NewEncoder(p.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (p *Printer) printYAML(data any) error {
	enc := yaml.NewEncoder(p.writer)
	enc.SetIndent(2)
	return enc.Encode(data)
}

// Color codes
const (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Cyan   = "\033[36m"
	Gray   = "\033[90m"
)

// Colorize adds color to text
func (p *Printer) Colorize(color, text string) string {
	if p.noColor {
		return text
	}
	return color + text + Reset
}

// TableWriter creates a tabwriter for aligned output
func (p *Printer) TableWriter() *tabwriter.Writer {
	return tabwriter.NewWriter(p.writer, 0, 0, 2, ' ', 0)
}

// StepRow is one cache operation in a demo run.
type StepRow struct {
	Step      int    `json:"step" yaml:"step"`
	Operation string `json:"operation" yaml:"operation"`
	Key       string `json:"key" yaml:"key"`
	Result    string `json:"result" yaml:"result"`
	OK        bool   `json:"ok" yaml:"ok"`
	ClockS    int64  `json:"clock_s,omitempty" yaml:"clock_s,omitempty"`
}

// PrintSteps prints a demo transcript
func (p *Printer) PrintSteps(rows []StepRow) error {
	if p.structured() {
		return p.Print(rows)
	}

	if len(rows) == 0 {
		fmt.Fprintln(p.writer, "No steps recorded")
		return nil
	}

	w := p.TableWriter()

	// Header
	if p.format == FormatWide {
		fmt.Fprintln(w, p.Colorize(Bold, "#\tCLOCK\tOPERATION\tKEY\tRESULT"))
	} else {
		fmt.Fprintln(w, p.Colorize(Bold, "#\tOPERATION\tKEY\tRESULT"))
	}

	for _, row := range rows {
		result := p.Colorize(Green, row.Result)
		if !row.OK {
			result = p.Colorize(Red, row.Result)
		}
		if p.format == FormatWide {
			fmt.Fprintf(w, "%d\t+%ds\t%s\t%s\t%s\n", row.Step, row.ClockS, row.Operation, p.Colorize(Cyan, row.Key), result)
		} else {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", row.Step, row.Operation, p.Colorize(Cyan, row.Key), result)
		}
	}

	return w.Flush()
}

// PrintStats prints a stats snapshot
func (p *Printer) PrintStats(snap metrics.Snapshot) error {
	if p.structured() {
		return p.Print(snap)
	}

	fmt.Fprintf(p.writer, "%s\n", p.Colorize(Bold, "Cache:"))
	fmt.Fprintf(p.writer, "  %s %d\n", p.Colorize(Gray, "Entries:"), snap.Entries)
	fmt.Fprintf(p.writer, "  %s %d\n", p.Colorize(Gray, "Hits:"), snap.Hits)
	fmt.Fprintf(p.writer, "  %s %d\n", p.Colorize(Gray, "Misses:"), snap.Misses)
	fmt.Fprintf(p.writer, "  %s %.1f%%\n", p.Colorize(Gray, "Hit Ratio:"), snap.HitRatio*100)
	fmt.Fprintf(p.writer, "  %s %d\n", p.Colorize(Gray, "Expirations:"), snap.Expirations)

	fmt.Fprintf(p.writer, "%s\n", p.Colorize(Bold, "Loads:"))
	fmt.Fprintf(p.writer, "  %s %d\n", p.Colorize(Gray, "Total:"), snap.Loads)
	if snap.LoadErrors > 0 {
		fmt.Fprintf(p.writer, "  %s %s\n", p.Colorize(Gray, "Errors:"), p.Colorize(Red, fmt.Sprint(snap.LoadErrors)))
	} else {
		fmt.Fprintf(p.writer, "  %s 0\n", p.Colorize(Gray, "Errors:"))
	}
	fmt.Fprintf(p.writer, "  %s %.2f ms\n", p.Colorize(Gray, "Avg:"), snap.AvgLoadMs)
	fmt.Fprintf(p.writer, "  %s %.2f ms\n", p.Colorize(Gray, "Max:"), snap.MaxLoadMs)

	fmt.Fprintf(p.writer, "%s %ds\n", p.Colorize(Bold, "Uptime:"), snap.UptimeSeconds)
	return nil
}

// Success prints a success message
func (p *Printer) Success(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(p.writer, p.Colorize(Green, "✓ ")+msg)
}

// Error prints an error message
func (p *Printer) Error(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(p.writer, p.Colorize(Red, "✗ ")+msg)
}

// Info prints an info message
func (p *Printer) Info(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(p.writer, p.Colorize(Blue, "ℹ ")+msg)
}
