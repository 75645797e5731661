// Package logging provides the JSON-lines diagnostic logger for filechanger.
//
// Derived loggers created with WithFields share the parent's output and
// lock, so lines written from concurrent workers never interleave.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents a log level.
type Level string

const (
	LevelTrace    Level = "trace"
	LevelDebug    Level = "debug"
	LevelInfo     Level = "info"
	LevelWarn     Level = "warn"
	LevelError    Level = "error"
	LevelCritical Level = "critical"
)

var levelRank = map[Level]int{
	LevelTrace:    0,
	LevelDebug:    1,
	LevelInfo:     2,
	LevelWarn:     3,
	LevelError:    4,
	LevelCritical: 5,
}

// ParseLevel maps a severity name to a Level. Names are case-insensitive and
// accept the long forms WARNING, FATAL and NOTSET. Unknown names yield
// LevelInfo and ok == false.
func ParseLevel(name string) (level Level, ok bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace", "notset":
		return LevelTrace, true
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	case "critical", "fatal":
		return LevelCritical, true
	}
	return LevelInfo, false
}

// core is the state shared by a logger and everything derived from it.
type core struct {
	mu       sync.Mutex
	level    Level
	output   io.Writer
	fallback io.Writer
}

// Logger provides structured logging.
type Logger struct {
	core   *core
	fields map[string]any
}

// LogEntry represents a structured log entry.
type LogEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     Level          `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// NewLogger creates a new logger with the specified level writing to stderr.
func NewLogger(level Level) *Logger {
	return &Logger{
		core: &core{
			level:    level,
			output:   os.Stderr,
			fallback: os.Stderr,
		},
		fields: make(map[string]any),
	}
}

// WithFields returns a new logger with additional fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	newFields := make(map[string]any, len(l.fields)+len(fields))
	for k, v := range l.fields {
		newFields[k] = v
	}
	for k, v := range fields {
		newFields[k] = v
	}
	return &Logger{core: l.core, fields: newFields}
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level Level) bool {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	return levelRank[level] >= levelRank[l.core.level]
}

// Trace logs a trace message.
func (l *Logger) Trace(msg string, fields ...map[string]any) {
	l.log(LevelTrace, msg, fields...)
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...map[string]any) {
	l.log(LevelDebug, msg, fields...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...map[string]any) {
	l.log(LevelInfo, msg, fields...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...map[string]any) {
	l.log(LevelWarn, msg, fields...)
}

// ErrorErr logs an error message with an error value.
func (l *Logger) ErrorErr(msg string, err error, fields ...map[string]any) {
	l.log(LevelError, msg, withErr(err, fields)...)
}

// CriticalErr logs a critical message with an error value.
func (l *Logger) CriticalErr(msg string, err error, fields ...map[string]any) {
	l.log(LevelCritical, msg, withErr(err, fields)...)
}

func withErr(err error, fields []map[string]any) []map[string]any {
	combined := map[string]any{"error": err.Error()}
	for _, f := range fields {
		for k, v := range f {
			combined[k] = v
		}
	}
	return []map[string]any{combined}
}

// Emit writes a preformatted line at level, bypassing the entry envelope.
// A trailing newline is added when missing.
func (l *Logger) Emit(level Level, line []byte) {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	if levelRank[level] < levelRank[l.core.level] {
		return
	}
	if len(line) == 0 || line[len(line)-1] != '\n' {
		line = append(line[:len(line):len(line)], '\n')
	}
	l.write(line)
}

func (l *Logger) log(level Level, msg string, fields ...map[string]any) {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	if levelRank[level] < levelRank[l.core.level] {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level,
		Message:   msg,
		Fields:    make(map[string]any),
	}

	for k, v := range l.fields {
		entry.Fields[k] = v
	}
	for _, f := range fields {
		for k, v := range f {
			entry.Fields[k] = v
		}
	}
	if len(entry.Fields) == 0 {
		entry.Fields = nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		l.write([]byte(`{"level":"error","message":"failed to marshal log entry"}` + "\n"))
		return
	}

	l.write(append(data, '\n'))
}

// write must be called with the lock held. Output errors go to the
// fallback writer and are otherwise dropped.
func (l *Logger) write(data []byte) {
	if _, err := l.core.output.Write(data); err != nil && l.core.fallback != nil {
		fmt.Fprintf(l.core.fallback, "filechanger: log write failed: %v\n", err)
	}
}

// SetOutput sets the output writer.
func (l *Logger) SetOutput(w io.Writer) {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	l.core.output = w
}

// SetFallback sets where write failures are reported. nil silences them.
func (l *Logger) SetFallback(w io.Writer) {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	l.core.fallback = w
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	l := NewLogger(LevelCritical)
	l.SetOutput(io.Discard)
	l.SetFallback(nil)
	return l
}
