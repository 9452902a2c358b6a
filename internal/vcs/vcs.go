// Package vcs provides the thin synchronous wrapper over the repository's
// command-line interface that the merge engine builds on: branch resolution,
// merge-base computation, reading a file at a ref, name-status diffing
// between two refs, the two flavours of three-way merge (object-store-only
// and working-text), and staging.
package vcs

import "errors"

// ErrNotFound indicates a path does not exist at the given ref.
var ErrNotFound = errors.New("vcs: path not found at ref")

// ErrMissingBase indicates two refs have no common ancestor (unrelated
// histories). Callers must treat all overlapping paths as conflicting.
var ErrMissingBase = errors.New("vcs: no merge base (unrelated histories)")

// FileStatus classifies how a path changed between two refs.
type FileStatus string

const (
	StatusAdded    FileStatus = "added"
	StatusModified FileStatus = "modified"
	StatusDeleted  FileStatus = "deleted"
	StatusRenamed  FileStatus = "renamed"
)

// StatusEntry is one row of a name-status diff.
type StatusEntry struct {
	Path    string
	OldPath string // set only when Status == StatusRenamed
	Status  FileStatus
}

// Expand splits a StatusEntry into Deleted+Added entries when it represents
// a rename, since the merge engine treats renames that way. Non-rename
// entries are returned unchanged as a single-element slice.
func (e StatusEntry) Expand() []StatusEntry {
	if e.Status != StatusRenamed {
		return []StatusEntry{e}
	}
	return []StatusEntry{
		{Path: e.OldPath, Status: StatusDeleted},
		{Path: e.Path, Status: StatusAdded},
	}
}

// MergeTreeResult is the outcome of an object-store-only three-way merge.
type MergeTreeResult struct {
	Clean             bool
	PathsWithConflicts []string
	OutputText        string
}

// Runner is everything the merge engine needs from the version control
// system. Implementations must be safe to call concurrently for read
// operations; write operations (Stage, WriteFile, DeleteFile) are only
// ever called by the orchestrator after result collection, never by
// workers directly.
type Runner interface {
	// CurrentBranch returns the name of the current branch.
	CurrentBranch() (string, error)

	// MergeBase returns the common ancestor commit of a and b, or
	// ErrMissingBase if the histories are unrelated.
	MergeBase(a, b string) (string, error)

	// Show returns the content of path at ref, or ErrNotFound.
	Show(ref, path string) (string, error)

	// DiffNameStatus returns the three-dot diff (paths reachable from b
	// but not a) between a and b, with per-path status.
	DiffNameStatus(a, b string) ([]StatusEntry, error)

	// MergeTree performs a three-way merge entirely in the object store,
	// never touching the working tree or index.
	MergeTree(base, ours, theirs string) (*MergeTreeResult, error)

	// MergeFile performs a three-way content merge, producing conflict
	// markers when the sides disagree. hadConflicts reflects exit code 1;
	// any other non-zero exit is returned as err.
	MergeFile(oursText, baseText, theirsText string) (merged string, hadConflicts bool, err error)

	// Stage adds the given repo-relative paths to the index, including
	// deletions.
	Stage(paths ...string) error

	// WriteFile writes text to a repo-relative path on the working tree,
	// creating parent directories as needed.
	WriteFile(path, text string) error

	// DeleteFile removes a repo-relative path from the working tree.
	DeleteFile(path string) error

	// Run executes an arbitrary git command with the given arguments,
	// rooted at the repository, for operations this interface does not
	// name directly (e.g. commit, rev-parse).
	Run(args ...string) (string, error)
}
