// Package evolution persists the Evolution & Timeline Store: an append-
// only record of which task touched which file, the task's declared
// intent, and the merge commit that landed it. It persists plain JSON
// files, written with write-temp-then-rename so a crash mid-write never
// leaves a half-written file for the next process to read.
package evolution

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sean-esk/auto-claude/internal/vcs"
	"github.com/sean-esk/auto-claude/pkg/models"
)

// TaskSnapshot is one task's recorded touch of a single path. It is
// created when a refresh first observes the task touching the path and
// is mutated only to set CompletedAt, TaskIntent, MergeCommit, and
// SemanticChanges; it is never deleted.
type TaskSnapshot struct {
	TaskID         string             `json:"task_id"`
	StartedAt      time.Time          `json:"started_at"`
	CompletedAt    *time.Time         `json:"completed_at,omitempty"`
	TaskIntent     models.TaskIntent  `json:"task_intent"`
	SemanticChanges []string          `json:"semantic_changes,omitempty"`
	MergeCommit    string             `json:"merge_commit,omitempty"`
}

// FileEvolution is the append-only history of every task that has
// touched one path.
type FileEvolution struct {
	Path      string         `json:"path"`
	Snapshots []TaskSnapshot `json:"snapshots"`
}

// WorktreeState is captured at merge start and retained until the task is
// marked merged.
type WorktreeState struct {
	TaskID    string    `json:"task_id"`
	Branch    string    `json:"branch"`
	CapturedAt time.Time `json:"captured_at"`
	Paths     []string  `json:"paths"`
}

// MainBranchEvent is one commit that landed on the base branch after a
// task's BranchPoint, for a given path.
type MainBranchEvent struct {
	Commit  string    `json:"commit"`
	At      time.Time `json:"at"`
	Summary string    `json:"summary"`
}

// TaskFileView is the timeline perspective for one (task, path) pair: the
// mainline events since the task branched, and sibling tasks that have
// also touched the path but are not yet merged.
type TaskFileView struct {
	Path            string            `json:"path"`
	BranchPoint     string            `json:"branch_point"`
	MainlineEvents  []MainBranchEvent `json:"mainline_events,omitempty"`
	SiblingPending  []string          `json:"sibling_pending,omitempty"`
}

// MergeContext is what get_merge_context returns: everything the prompt
// builder needs about a path's recent history for one task.
type MergeContext struct {
	Path             string         `json:"path"`
	CurrentIntent    models.TaskIntent `json:"current_intent"`
	RecentCompleted  []TaskSnapshot `json:"recent_completed"`
	View             TaskFileView   `json:"view"`
}

// Store is the Evolution & Timeline Store. It assumes a single writer per
// project; callers serialise access through the merge lock.
type Store struct {
	evolutionDir string
	timelineDir  string
}

// New creates a Store rooted at <projectRoot>/.auto-claude/.
func New(projectRoot string) *Store {
	base := filepath.Join(projectRoot, ".auto-claude")
	return &Store{
		evolutionDir: filepath.Join(base, "evolution"),
		timelineDir:  filepath.Join(base, "timeline"),
	}
}

func evolutionFileName(path string) string {
	return sanitize(path) + ".json"
}

// sanitize maps a repo-relative path to a safe single filename component.
func sanitize(path string) string {
	out := make([]byte, 0, len(path))
	for i := 0; i < len(path); i++ {
		c := path[i]
		if c == '/' || c == '\\' {
			out = append(out, '_')
			continue
		}
		out = append(out, c)
	}
	return string(out)
}

// RefreshFromGit walks the diff between the task branch and the base
// branch, recording (or updating) a TaskSnapshot per changed path.
func (s *Store) RefreshFromGit(r vcs.Runner, taskID, baseRef, taskRef string, intent models.TaskIntent) error {
	changed, err := r.DiffNameStatus(baseRef, taskRef)
	if err != nil {
		return fmt.Errorf("refresh from git: %w", err)
	}

	now := time.Now()
	for _, entry := range changed {
		for _, e := range entry.Expand() {
			if err := s.recordTouch(e.Path, taskID, intent, now); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Store) recordTouch(path, taskID string, intent models.TaskIntent, at time.Time) error {
	ev, err := s.GetFileEvolution(path)
	if err != nil {
		return err
	}
	if ev == nil {
		ev = &FileEvolution{Path: path}
	}

	for i := range ev.Snapshots {
		if ev.Snapshots[i].TaskID == taskID {
			ev.Snapshots[i].TaskIntent = intent
			return s.writeEvolution(ev)
		}
	}

	ev.Snapshots = append(ev.Snapshots, TaskSnapshot{
		TaskID:     taskID,
		StartedAt:  at,
		TaskIntent: intent,
	})
	return s.writeEvolution(ev)
}

// GetFileEvolution returns the recorded evolution for path, or nil if none
// has been recorded yet.
func (s *Store) GetFileEvolution(path string) (*FileEvolution, error) {
	full := filepath.Join(s.evolutionDir, evolutionFileName(path))
	data, err := os.ReadFile(full)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read file evolution: %w", err)
	}
	var ev FileEvolution
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("unmarshal file evolution: %w", err)
	}
	return &ev, nil
}

// MarkTaskCompleted sets CompletedAt on every snapshot for taskID across
// all recorded files it touched.
func (s *Store) MarkTaskCompleted(taskID string) error {
	return s.forEachSnapshotOfTask(taskID, func(snap *TaskSnapshot) {
		now := time.Now()
		snap.CompletedAt = &now
	})
}

// OnTaskMerged records the merge commit on every snapshot for taskID.
func (s *Store) OnTaskMerged(taskID, mergeCommit string) error {
	return s.forEachSnapshotOfTask(taskID, func(snap *TaskSnapshot) {
		snap.MergeCommit = mergeCommit
	})
}

func (s *Store) forEachSnapshotOfTask(taskID string, mutate func(*TaskSnapshot)) error {
	entries, err := os.ReadDir(s.evolutionDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("list evolution directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		full := filepath.Join(s.evolutionDir, entry.Name())
		data, err := os.ReadFile(full)
		if err != nil {
			continue
		}
		var ev FileEvolution
		if err := json.Unmarshal(data, &ev); err != nil {
			continue
		}
		changed := false
		for i := range ev.Snapshots {
			if ev.Snapshots[i].TaskID == taskID {
				mutate(&ev.Snapshots[i])
				changed = true
			}
		}
		if changed {
			if err := s.writeEvolution(&ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// GetMergeContext assembles the prompt-facing merge context for one
// (task, path) pair: the current task's intent plus recently completed
// snapshots for the same path.
func (s *Store) GetMergeContext(taskID, path string, currentIntent models.TaskIntent) (*MergeContext, error) {
	ev, err := s.GetFileEvolution(path)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return &MergeContext{Path: path, CurrentIntent: currentIntent}, nil
	}

	var recent []TaskSnapshot
	for _, snap := range ev.Snapshots {
		if snap.TaskID != taskID && snap.CompletedAt != nil {
			recent = append(recent, snap)
		}
	}

	return &MergeContext{
		Path:            path,
		CurrentIntent:   currentIntent,
		RecentCompleted: recent,
	}, nil
}

// CaptureWorktreeState records the set of paths a task's worktree touches
// at the start of a merge attempt.
func (s *Store) CaptureWorktreeState(taskID, branch string, paths []string) error {
	state := WorktreeState{TaskID: taskID, Branch: branch, CapturedAt: time.Now(), Paths: paths}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal worktree state: %w", err)
	}
	path := filepath.Join(s.timelineDir, "worktree-"+sanitize(taskID)+".json")
	return writeAtomic(path, data)
}

func (s *Store) writeEvolution(ev *FileEvolution) error {
	if err := os.MkdirAll(s.evolutionDir, 0o755); err != nil {
		return fmt.Errorf("create evolution directory: %w", err)
	}
	data, err := json.MarshalIndent(ev, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal file evolution: %w", err)
	}
	return writeAtomic(filepath.Join(s.evolutionDir, evolutionFileName(ev.Path)), data)
}

// writeAtomic writes data to path by first writing to a sibling temp file
// in the same directory, then renaming over the destination, so a reader
// never observes a partially written file and a crash mid-write leaves
// the previous version intact.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
