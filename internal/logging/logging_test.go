package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSetLevelFromString(t *testing.T) {
	defer SetLevel(slog.LevelInfo)

	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
	}
	for in, want := range cases {
		SetLevelFromString(in)
		if got := logLevel.Level(); got != want {
			t.Fatalf("%q: expected %v, got %v", in, want, got)
		}
	}

	SetLevelFromString("nonsense")
	if got := logLevel.Level(); got != slog.LevelInfo {
		t.Fatalf("expected unknown level to be ignored, got %v", got)
	}
}

func TestInitStructuredJSON(t *testing.T) {
	defer InitStructured("text", "info")

	var buf bytes.Buffer
	InitStructuredTo(&buf, "json", "debug")
	OpWithTrace("abc", "def").Debug("hello", "key", "k")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected a JSON record, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "hello" || rec["trace_id"] != "abc" || rec["span_id"] != "def" {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestCacheObserver(t *testing.T) {
	defer InitStructured("text", "info")

	var buf bytes.Buffer
	InitStructuredTo(&buf, "text", "warn")

	var o CacheObserver
	o.Hit("k")
	o.Expire("k")
	o.Load("k", time.Millisecond, nil)
	if buf.Len() != 0 {
		t.Fatalf("expected debug events to be filtered, got %q", buf.String())
	}

	o.Load("k", time.Millisecond, errors.New("origin down"))
	if !strings.Contains(buf.String(), "cache load failed") || !strings.Contains(buf.String(), "origin down") {
		t.Fatalf("expected a warning for a failed load, got %q", buf.String())
	}
}

func TestAccessLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.log")

	l := NewAccessLog()
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	if err := l.SetOutput(path); err != nil {
		t.Fatalf("SetOutput: %v", err)
	}
	var console bytes.Buffer
	l.SetConsole(&console)

	l.Log(&AccessEntry{RequestID: "r1", Key: "a", Origin: "static", Cached: true, Success: true, Size: 3})
	l.Log(&AccessEntry{RequestID: "r2", Key: "b", Origin: "static", Error: "not found"})
	l.Close()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	var entries []AccessEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e AccessEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("decode line %q: %v", sc.Text(), err)
		}
		entries = append(entries, e)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if !entries[0].Timestamp.Equal(fixed) || !entries[0].Cached || entries[1].Error != "not found" {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	out := console.String()
	if !strings.Contains(out, "[lookup] ok r1 a hit") || !strings.Contains(out, "error: not found") {
		t.Fatalf("unexpected console output %q", out)
	}
}

func TestAccessLog_Nil(t *testing.T) {
	var l *AccessLog
	l.Log(&AccessEntry{Key: "k"})
}
