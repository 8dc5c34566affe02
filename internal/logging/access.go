package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// AccessEntry is one served lookup.
type AccessEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id"`
	TraceID    string    `json:"trace_id,omitempty"`
	Key        string    `json:"key"`
	Origin     string    `json:"origin"`
	DurationMs int64     `json:"duration_ms"`
	Cached     bool      `json:"cached"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	Size       int       `json:"size,omitempty"`
}

// AccessLog writes lookup entries as JSON lines to a file and, optionally,
// a short human-readable line to the console.
type AccessLog struct {
	mu      sync.Mutex
	file    *os.File
	console io.Writer
	now     func() time.Time
}

// NewAccessLog returns an access log with no outputs.
func NewAccessLog() *AccessLog {
	return &AccessLog{now: time.Now}
}

// SetOutput sets the log output file
func (l *AccessLog) SetOutput(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		l.file.Close()
	}
	l.file = f
	return nil
}

// SetConsole sets the console writer. nil disables console output.
func (l *AccessLog) SetConsole(w io.Writer) {
	l.mu.Lock()
	l.console = w
	l.mu.Unlock()
}

// Log writes an access entry. A nil AccessLog discards it.
func (l *AccessLog) Log(entry *AccessEntry) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	entry.Timestamp = l.now()

	if l.console != nil {
		status := "ok"
		if !entry.Success {
			status = "fail"
		}
		cache := "miss"
		if entry.Cached {
			cache = "hit"
		}
		fmt.Fprintf(l.console, "[lookup] %s %s %s %s %dms\n",
			status, entry.RequestID, entry.Key, cache, entry.DurationMs)
		if entry.Error != "" {
			fmt.Fprintf(l.console, "[lookup]   error: %s\n", entry.Error)
		}
	}

	if l.file != nil {
		data, _ := json.Marshal(entry)
		l.file.Write(append(data, '\n'))
	}
}

// Close closes the log file
func (l *AccessLog) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
}
