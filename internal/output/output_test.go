package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/oriys/memo/internal/metrics"
	"gopkg.in/yaml.v3"
)

func newTestPrinter(format Format) (*Printer, *bytes.Buffer) {
	var buf bytes.Buffer
	p := NewPrinter(format)
	p.SetWriter(&buf)
	p.SetNoColor(true)
	return p, &buf
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"json":  FormatJSON,
		"YAML":  FormatYAML,
		"yml":   FormatYAML,
		"wide":  FormatWide,
		"":      FormatTable,
		"other": FormatTable,
	}
	for in, want := range cases {
		if got := ParseFormat(in); got != want {
			t.Errorf("ParseFormat(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestPrintSteps_Table(t *testing.T) {
	p, buf := newTestPrinter(FormatTable)
	err := p.PrintSteps([]StepRow{
		{Step: 1, Operation: "add", Key: "x", Result: "ok", OK: true},
		{Step: 2, Operation: "get", Key: "x", Result: "expired", OK: false},
	})
	if err != nil {
		t.Fatalf("PrintSteps: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %q", buf.String())
	}
	if !strings.HasPrefix(lines[0], "#") || !strings.Contains(lines[2], "expired") {
		t.Fatalf("unexpected table:\n%s", buf.String())
	}
}

func TestPrintSteps_Empty(t *testing.T) {
	p, buf := newTestPrinter(FormatTable)
	p.PrintSteps(nil)
	if !strings.Contains(buf.String(), "No steps recorded") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestPrintSteps_JSON(t *testing.T) {
	p, buf := newTestPrinter(FormatJSON)
	p.PrintSteps([]StepRow{{Step: 1, Operation: "add", Key: "x", Result: "ok", OK: true}})

	var rows []StepRow
	if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 1 || rows[0].Key != "x" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestPrintStats(t *testing.T) {
	snap := metrics.Snapshot{Entries: 3, Hits: 9, Misses: 1, HitRatio: 0.9, Loads: 1}

	p, buf := newTestPrinter(FormatTable)
	p.PrintStats(snap)
	if !strings.Contains(buf.String(), "Hit Ratio: 90.0%") {
		t.Fatalf("expected hit ratio line, got:\n%s", buf.String())
	}

	p, buf = newTestPrinter(FormatYAML)
	p.PrintStats(snap)
	var decoded metrics.Snapshot
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	if decoded.Entries != 3 || decoded.Hits != 9 {
		t.Fatalf("unexpected snapshot: %+v", decoded)
	}
}

func TestColorize(t *testing.T) {
	p, _ := newTestPrinter(FormatTable)
	if got := p.Colorize(Red, "x"); got != "x" {
		t.Fatalf("expected plain text with colors off, got %q", got)
	}
	p.SetNoColor(false)
	if got := p.Colorize(Red, "x"); got != Red+"x"+Reset {
		t.Fatalf("expected colored text, got %q", got)
	}
}
