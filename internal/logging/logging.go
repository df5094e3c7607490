// Package logging writes structured records to a file. The terminal belongs
// to the renderer for the whole session, so nothing goes to stdout/stderr.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Level is the minimum severity written.
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
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	}
	return "UNKNOWN"
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// ParseLevel maps a config string to a Level. Unknown values mean info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	}
	return LevelInfo
}

var (
	mu     sync.Mutex
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	closer io.Closer
)

// Init opens path for appending and routes all records there. An empty
// path discards everything. The returned func closes the file.
func Init(level Level, path string) (func() error, error) {
	if path == "" {
		Use(io.Discard, level)
		return func() error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	Use(f, level)

	mu.Lock()
	closer = f
	mu.Unlock()
	return Close, nil
}

// Use routes records to w. Tests use it with a bytes.Buffer.
func Use(w io.Writer, level Level) {
	mu.Lock()
	defer mu.Unlock()
	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level.slogLevel()}))
}

// Close closes the file opened by Init.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if closer == nil {
		return nil
	}
	err := closer.Close()
	closer = nil
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return err
}

func log(level Level, subsystem string, err error, format string, args ...any) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	attrs := []slog.Attr{slog.String("subsystem", subsystem)}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}

	mu.Lock()
	l := logger
	mu.Unlock()
	l.LogAttrs(context.Background(), level.slogLevel(), msg, attrs...)
}

func Debug(subsystem, format string, args ...any) {
	log(LevelDebug, subsystem, nil, format, args...)
}

func Info(subsystem, format string, args ...any) {
	log(LevelInfo, subsystem, nil, format, args...)
}

func Warn(subsystem, format string, args ...any) {
	log(LevelWarn, subsystem, nil, format, args...)
}

// Error logs err with a message. Screens call it when they swallow a
// collaborator failure.
func Error(subsystem string, err error, format string, args ...any) {
	log(LevelError, subsystem, err, format, args...)
}
