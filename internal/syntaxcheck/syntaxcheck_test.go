package syntaxcheck

import (
	"context"
	"testing"
)

func TestCheck_ValidJSON(t *testing.T) {
	v := New()
	valid, msg := v.Check(context.Background(), "config.json", `{"a": 1}`, t.TempDir())
	if !valid {
		t.Errorf("expected valid, got invalid: %s", msg)
	}
}

func TestCheck_InvalidJSON(t *testing.T) {
	v := New()
	valid, msg := v.Check(context.Background(), "config.json", `{"a": }`, t.TempDir())
	if valid {
		t.Errorf("expected invalid JSON to fail")
	}
	if msg == "" {
		t.Errorf("expected a message describing the failure")
	}
}

func TestCheck_UnknownExtensionPasses(t *testing.T) {
	v := New()
	valid, _ := v.Check(context.Background(), "README.md", "anything at all {{{", t.TempDir())
	if !valid {
		t.Errorf("expected unknown extensions to always pass")
	}
}

func TestCheck_PythonMissingInterpreterPasses(t *testing.T) {
	// This only exercises the "tool unavailable => valid" contract when
	// python3 is not on PATH; when it is, a syntactically valid snippet
	// still passes, so the assertion holds either way.
	v := New()
	valid, _ := v.Check(context.Background(), "script.py", "x = 1\n", t.TempDir())
	if !valid {
		t.Errorf("expected valid Python or tool-unavailable pass-through")
	}
}
