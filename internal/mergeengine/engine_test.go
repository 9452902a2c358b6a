package mergeengine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sean-esk/auto-claude/internal/transport"
	"github.com/sean-esk/auto-claude/internal/vcs"
)

// fakeVCS is an in-memory stand-in for vcs.Runner covering exactly what
// the engine exercises: two refs ("base" and a task branch) each with
// their own file set, name-status diffing between them, and a merge-tree
// conflict list supplied directly by the test.
type fakeVCS struct {
	vcs.Runner

	files     map[string]map[string]string // ref -> path -> content
	diff      []vcs.StatusEntry
	conflicts []string
	mergeBase string

	written map[string]string
	deleted map[string]bool
	staged  []string
	ran     [][]string
}

func newFakeVCS() *fakeVCS {
	return &fakeVCS{
		files:   map[string]map[string]string{},
		written: map[string]string{},
		deleted: map[string]bool{},
	}
}

func (f *fakeVCS) MergeBase(a, b string) (string, error) { return f.mergeBase, nil }

// MergeFile reports a conflict whenever the two sides differ, marking the
// body with the standard three-way markers, so conflicting-path tests can
// exercise the worker's native-merge step without shelling out to git.
func (f *fakeVCS) MergeFile(ours, base, theirs string) (string, bool, error) {
	if ours == theirs {
		return ours, false, nil
	}
	marked := "<<<<<<< HEAD\n" + ours + "=======\n" + theirs + ">>>>>>> task\n"
	return marked, true, nil
}

func (f *fakeVCS) Show(ref, path string) (string, error) {
	if m, ok := f.files[ref]; ok {
		if text, ok := m[path]; ok {
			return text, nil
		}
	}
	return "", vcs.ErrNotFound
}

func (f *fakeVCS) DiffNameStatus(a, b string) ([]vcs.StatusEntry, error) {
	return f.diff, nil
}

func (f *fakeVCS) MergeTree(base, ours, theirs string) (*vcs.MergeTreeResult, error) {
	return &vcs.MergeTreeResult{Clean: len(f.conflicts) == 0, PathsWithConflicts: f.conflicts}, nil
}

func (f *fakeVCS) WriteFile(path, text string) error {
	f.written[path] = text
	return nil
}

func (f *fakeVCS) DeleteFile(path string) error {
	f.deleted[path] = true
	return nil
}

func (f *fakeVCS) Stage(paths ...string) error {
	f.staged = append(f.staged, paths...)
	return nil
}

func (f *fakeVCS) Run(args ...string) (string, error) {
	f.ran = append(f.ran, args)
	return "deadbeef", nil
}

func mkWorktree(t *testing.T, projectRoot, taskID string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(projectRoot, ".worktrees", taskID), 0o755); err != nil {
		t.Fatal(err)
	}
}

func TestMerge_NoSuchBuild(t *testing.T) {
	root := t.TempDir()
	e := New(newFakeVCS(), transport.Unavailable, root, 2, time.Second, nil, true)

	_, err := e.Merge(context.Background(), "ghost", "main", Options{})
	var merr *MergeError
	if !asMergeError(err, &merr) || merr.Kind != KindNoSuchBuild {
		t.Fatalf("expected NoSuchBuild, got %v", err)
	}
}

func TestMerge_SimpleAddAppliedDirectly(t *testing.T) {
	root := t.TempDir()
	mkWorktree(t, root, "T1")

	f := newFakeVCS()
	f.files["auto-claude/T1"] = map[string]string{"new.go": "package a\n"}
	f.diff = []vcs.StatusEntry{{Path: "new.go", Status: vcs.StatusAdded}}

	e := New(f, transport.Unavailable, root, 2, time.Second, nil, true)
	result, err := e.Merge(context.Background(), "T1", "main", Options{})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if !result.Committed {
		t.Errorf("expected commit on full success")
	}
	if f.written["new.go"] != "package a\n" {
		t.Errorf("new.go not written: %v", f.written)
	}
}

func TestMerge_ConflictSurfacesWithoutCommit(t *testing.T) {
	root := t.TempDir()
	mkWorktree(t, root, "T2")

	f := newFakeVCS()
	f.mergeBase = "base-sha"
	f.files["main"] = map[string]string{"a.txt": "base\nours\n"}
	f.files["base-sha"] = map[string]string{"a.txt": "base\n"}
	f.files["auto-claude/T2"] = map[string]string{"a.txt": "base\ntheirs\n"}
	f.diff = []vcs.StatusEntry{{Path: "a.txt", Status: vcs.StatusModified}}
	f.conflicts = []string{"a.txt"}

	e := New(f, transport.Unavailable, root, 2, time.Second, nil, true)
	result, err := e.Merge(context.Background(), "T2", "main", Options{})

	var merr *MergeError
	if !asMergeError(err, &merr) || merr.Kind != KindDivergenceUnresolved {
		t.Fatalf("expected DivergenceUnresolved, got %v", err)
	}
	if result == nil || len(result.Conflicts) != 1 || result.Conflicts[0].Path != "a.txt" {
		t.Fatalf("expected one conflict for a.txt, got %+v", result)
	}
	if result.Committed {
		t.Errorf("must not commit on partial success")
	}
}

func asMergeError(err error, target **MergeError) bool {
	me, ok := err.(*MergeError)
	if ok {
		*target = me
	}
	return ok
}
