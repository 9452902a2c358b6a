package clog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDebugLogger_WritesTimestampedLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "merge-debug.log")

	logger, err := NewDebugLogger(path)
	if err != nil {
		t.Fatalf("NewDebugLogger: %v", err)
	}
	defer logger.Close()

	logger.Log("resolving %s", "foo.go")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "resolving foo.go") {
		t.Errorf("log file missing message: %q", string(data))
	}
}

func TestDebugLogger_EmptyPathIsNoop(t *testing.T) {
	logger, err := NewDebugLogger("")
	if err != nil {
		t.Fatalf("NewDebugLogger: %v", err)
	}
	logger.Log("should not panic")
	if err := logger.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestNopLogger_SafeToUse(t *testing.T) {
	var l *DebugLogger
	l.Log("nil receiver should not panic")
	if err := l.Close(); err != nil {
		t.Errorf("Close on nil: %v", err)
	}

	n := NopLogger()
	n.Log("no-op logger should not panic")
}

func TestFancyUIEnabled(t *testing.T) {
	t.Setenv("ENABLE_FANCY_UI", "")
	if FancyUIEnabled() {
		t.Errorf("FancyUIEnabled() = true, want false when unset")
	}
	t.Setenv("ENABLE_FANCY_UI", "1")
	if !FancyUIEnabled() {
		t.Errorf("FancyUIEnabled() = false, want true when set")
	}
}
