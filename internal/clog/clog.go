// Package clog provides the merge engine's console and debug-log output:
// coloured status lines for the CLI, plus a timestamped debug log file for
// diagnosing a single merge run after the fact.
package clog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fatih/color"
)

func init() {
	// Honour NO_COLOR/FORCE_COLOR ourselves rather than relying solely on
	// fatih/color's own TTY detection, since a merge run is frequently
	// piped (CI logs, captured output) where color would otherwise be
	// auto-disabled or auto-enabled against the user's wishes.
	if os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}
	if os.Getenv("FORCE_COLOR") != "" {
		color.NoColor = false
	}
	if os.Getenv("TERM") == "dumb" {
		color.NoColor = true
	}
}

// FancyUIEnabled reports whether the CLI should use spinners/progress bars
// rather than plain line-by-line output. Off unless explicitly requested,
// since this core is meant to run unattended as often as interactively.
func FancyUIEnabled() bool {
	return os.Getenv("ENABLE_FANCY_UI") != ""
}

// printStatus prints a single status line with a coloured symbol.
func printStatus(symbol, message string, attr color.Attribute) {
	c := color.New(attr)
	fmt.Printf("%s %s\n", c.Sprint(symbol), message)
}

// Success prints a green checkmark status line.
func Success(format string, args ...interface{}) {
	printStatus("✓", fmt.Sprintf(format, args...), color.FgGreen)
}

// Warn prints a yellow warning status line.
func Warn(format string, args ...interface{}) {
	printStatus("⚠", fmt.Sprintf(format, args...), color.FgYellow)
}

// Fail prints a red failure status line.
func Fail(format string, args ...interface{}) {
	printStatus("✗", fmt.Sprintf(format, args...), color.FgRed)
}

// Info prints a status line behind a cyan dot; the message itself is
// uncoloured.
func Info(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", color.New(color.FgCyan).Sprint("·"), fmt.Sprintf(format, args...))
}

// DebugLogger writes timestamped diagnostic lines to a file, independent of
// the coloured console helpers above. It is safe for concurrent use since
// the scheduler dispatches multiple merge workers at once.
type DebugLogger struct {
	mu   sync.Mutex
	file *os.File
}

// NewDebugLogger creates a logger writing to logPath. An empty logPath
// returns a no-op logger. Parent directories are created as needed.
func NewDebugLogger(logPath string) (*DebugLogger, error) {
	if logPath == "" {
		return &DebugLogger{}, nil
	}

	dir := filepath.Dir(logPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	logger := &DebugLogger{file: f}
	logger.Log("=== merge run started at %s ===", time.Now().Format(time.RFC3339))
	return logger, nil
}

// NewDebugLoggerForProject creates a debug logger at
// <projectRoot>/.auto-claude/logs/merge-debug.log, falling back to a no-op
// logger if the directory cannot be created.
func NewDebugLoggerForProject(projectRoot string) *DebugLogger {
	logPath := filepath.Join(projectRoot, ".auto-claude", "logs", "merge-debug.log")
	logger, err := NewDebugLogger(logPath)
	if err != nil {
		return &DebugLogger{}
	}
	return logger
}

// NopLogger returns a no-op logger, for tests or when logging is disabled.
func NopLogger() *DebugLogger {
	return &DebugLogger{}
}

// Log writes a timestamped message. A no-op on a nil logger or one with no
// backing file.
func (l *DebugLogger) Log(format string, args ...interface{}) {
	if l == nil || l.file == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Fprintf(l.file, "[%s] %s\n", timestamp, msg)
	l.file.Sync()
}

// Close closes the underlying file. Safe on a nil logger or no-op logger.
func (l *DebugLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}
