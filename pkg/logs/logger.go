package logs

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level orders log records by severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// ParseLevel maps debug|info|warn|error to a Level. Unknown names are info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger writes JSON lines with a timestamp, level and event fields.
// A nil or disabled Logger discards everything.
type Logger struct {
	mu      sync.Mutex
	w       *bufio.Writer
	c       io.Closer
	min     Level
	enabled bool
}

// New returns a logger writing records at or above min to w.
func New(w io.Writer, min Level) *Logger {
	l := &Logger{w: bufio.NewWriter(w), min: min, enabled: true}
	if c, ok := w.(io.Closer); ok {
		l.c = c
	}
	return l
}

// Discard returns a disabled logger.
func Discard() *Logger { return &Logger{} }

// NewFromEnv returns a logger if REGEXHL_LOG is set to a truthy value
// or if REGEXHL_LOG_FILE is provided. Otherwise it returns a disabled logger.
// When enabled and no file is specified, it writes to ./regexhl.log.
// REGEXHL_LOG_LEVEL sets the minimum level (default info).
func NewFromEnv() *Logger {
	lf := os.Getenv("REGEXHL_LOG_FILE")
	enabled := false
	if v := os.Getenv("REGEXHL_LOG"); v != "" && v != "0" && v != "false" {
		enabled = true
	}
	if lf != "" {
		enabled = true
	}
	if !enabled {
		return Discard()
	}
	if lf == "" {
		lf = filepath.Join(".", "regexhl.log")
	}
	f, err := os.OpenFile(lf, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		// If we cannot open the requested file, disable logging silently.
		return Discard()
	}
	return New(f, ParseLevel(os.Getenv("REGEXHL_LOG_LEVEL")))
}

// Enabled reports whether records at level would be written.
func (l *Logger) Enabled(level Level) bool {
	return l != nil && l.enabled && level >= l.min
}

// Close flushes and closes the underlying writer if enabled.
func (l *Logger) Close() {
	if l == nil || !l.enabled {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.w.Flush()
	if l.c != nil {
		_ = l.c.Close()
		l.c = nil
	}
}

// Event writes an info record. Kept for call sites that do not care about
// severity.
func (l *Logger) Event(event string, fields map[string]any) {
	l.Log(LevelInfo, event, fields)
}

func (l *Logger) Debug(event string, fields map[string]any) { l.Log(LevelDebug, event, fields) }
func (l *Logger) Info(event string, fields map[string]any)  { l.Log(LevelInfo, event, fields) }
func (l *Logger) Warn(event string, fields map[string]any)  { l.Log(LevelWarn, event, fields) }
func (l *Logger) Error(event string, fields map[string]any) { l.Log(LevelError, event, fields) }

// Log writes a JSON line with the event name, level and fields.
// Common fields: scope, file, path, pattern, count, duration_ms.
func (l *Logger) Log(level Level, event string, fields map[string]any) {
	if !l.Enabled(level) {
		return
	}
	rec := map[string]any{
		"time":  time.Now().Format(time.RFC3339Nano),
		"event": event,
		"level": level.String(),
	}
	for k, v := range fields {
		rec[k] = v
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	enc := json.NewEncoder(l.w)
	_ = enc.Encode(rec)
	_ = l.w.Flush()
}
