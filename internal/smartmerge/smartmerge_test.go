package smartmerge

import (
	"strings"
	"testing"
)

func TestIsCritical(t *testing.T) {
	cases := map[string]bool{
		"package.json":        true,
		"go.mod":              true,
		"src/foo/bar.go":      false,
		"nested/package.json": true,
	}
	for path, want := range cases {
		if got := IsCritical(path); got != want {
			t.Errorf("IsCritical(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestIsLockFile(t *testing.T) {
	cmd, ok := IsLockFile("go.sum")
	if !ok || cmd != "go mod tidy" {
		t.Errorf("expected go.sum to be a lock file with 'go mod tidy', got %q, %v", cmd, ok)
	}
	if _, ok := IsLockFile("main.go"); ok {
		t.Errorf("expected main.go to not be a lock file")
	}
}

func TestMerge_UnsupportedFormatReturnsNotOK(t *testing.T) {
	_, ok, err := Merge("main.go", "a", "b")
	if ok || err != nil {
		t.Errorf("expected unsupported format to return ok=false, err=nil, got ok=%v err=%v", ok, err)
	}
}

func TestMerge_PackageJSONUnionsDependencies(t *testing.T) {
	ours := `{"name": "x", "dependencies": {"a": "1.0.0"}}`
	theirs := `{"name": "x", "dependencies": {"b": "2.0.0"}}`

	merged, ok, err := Merge("package.json", ours, theirs)
	if err != nil || !ok {
		t.Fatalf("Merge() ok=%v err=%v", ok, err)
	}
	if !strings.Contains(merged, `"a": "1.0.0"`) || !strings.Contains(merged, `"b": "2.0.0"`) {
		t.Errorf("expected both dependencies present, got %s", merged)
	}
}

func TestMerge_PackageJSONOursWinsOnConflictingPin(t *testing.T) {
	ours := `{"dependencies": {"a": "1.0.0"}}`
	theirs := `{"dependencies": {"a": "2.0.0"}}`

	merged, _, err := Merge("package.json", ours, theirs)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if !strings.Contains(merged, `"a": "1.0.0"`) {
		t.Errorf("expected ours' pin to win, got %s", merged)
	}
}

func TestMerge_GoModUnionsRequires(t *testing.T) {
	ours := "module x\n\ngo 1.24\n\nrequire (\n\tgithub.com/a/a v1.0.0\n)\n"
	theirs := "module x\n\ngo 1.24\n\nrequire (\n\tgithub.com/b/b v2.0.0\n)\n"

	merged, ok, err := Merge("go.mod", ours, theirs)
	if err != nil || !ok {
		t.Fatalf("Merge() ok=%v err=%v", ok, err)
	}
	if !strings.Contains(merged, "github.com/a/a v1.0.0") {
		t.Errorf("expected ours' require to survive, got %s", merged)
	}
	if !strings.Contains(merged, "github.com/b/b v2.0.0") {
		t.Errorf("expected theirs' require to be added, got %s", merged)
	}
}

func TestMerge_GitignoreUnionsLinesPreservingOursOrder(t *testing.T) {
	ours := "node_modules\n*.log\n"
	theirs := "*.log\ndist/\n"

	merged, ok, err := Merge(".gitignore", ours, theirs)
	if err != nil || !ok {
		t.Fatalf("Merge() ok=%v err=%v", ok, err)
	}
	lines := strings.Split(strings.TrimSpace(merged), "\n")
	want := []string{"node_modules", "*.log", "dist/"}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %v", len(want), len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q want %q", i, lines[i], want[i])
		}
	}
}
