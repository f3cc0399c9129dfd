// Package logging provides structured logging for the arbor CLI using slog.
//
// Logs go to a JSON file under the config directory so interactive output
// stays clean; nothing is ever written to the terminal by this package.
//
//	if err := logging.Init(logPath); err != nil { ... }
//	defer logging.Close()
//	logging.Info("switching session", slog.String("session", name))
package logging

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// LogLevelEnvVar controls log verbosity (debug, info, warn, error).
const LogLevelEnvVar = "ARBOR_LOG_LEVEL"

var (
	mu        sync.RWMutex
	logger    *slog.Logger
	logFile   *os.File
	bufWriter *bufio.Writer
)

// Init opens (or creates) the log file at path and installs a JSON slog
// handler writing to it. Falls back to a discard handler if the file
// cannot be opened, so logging calls are always safe.
func Init(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if bufWriter != nil {
		_ = bufWriter.Flush()
		bufWriter = nil
	}
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	level := parseLevel(os.Getenv(LogLevelEnvVar))

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		logger = newLogger(io.Discard, level)
		return fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		logger = newLogger(io.Discard, level)
		return fmt.Errorf("opening log file %s: %w", path, err)
	}

	logFile = f
	bufWriter = bufio.NewWriter(f)
	logger = newLogger(bufWriter, level)
	return nil
}

// Close flushes and closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if bufWriter != nil {
		_ = bufWriter.Flush()
		bufWriter = nil
	}
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	logger = nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func get() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if logger == nil {
		return slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return logger
}

// Debug logs at debug level.
func Debug(msg string, attrs ...slog.Attr) { get().LogAttrs(context.Background(), slog.LevelDebug, msg, attrs...) }

// Info logs at info level.
func Info(msg string, attrs ...slog.Attr) { get().LogAttrs(context.Background(), slog.LevelInfo, msg, attrs...) }

// Warn logs at warn level.
func Warn(msg string, attrs ...slog.Attr) { get().LogAttrs(context.Background(), slog.LevelWarn, msg, attrs...) }

// Error logs at error level.
func Error(msg string, attrs ...slog.Attr) { get().LogAttrs(context.Background(), slog.LevelError, msg, attrs...) }
