package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindGitRoot_WalksUpToGitDir(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := findGitRoot(nested)
	if err != nil {
		t.Fatalf("findGitRoot: %v", err)
	}
	if got != root {
		t.Errorf("findGitRoot() = %q, want %q", got, root)
	}
}

func TestFindGitRoot_NotAGitRepo(t *testing.T) {
	dir := t.TempDir()
	if _, err := findGitRoot(dir); err == nil {
		t.Error("expected an error outside a git repository")
	}
}

func TestWorktreeDir(t *testing.T) {
	got := worktreeDir("/proj", "T1")
	want := filepath.Join("/proj", ".worktrees", "T1")
	if got != want {
		t.Errorf("worktreeDir() = %q, want %q", got, want)
	}
}
