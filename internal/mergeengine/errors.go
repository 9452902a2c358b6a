package mergeengine

import (
	"fmt"

	"github.com/sean-esk/auto-claude/pkg/models"
)

// ErrorKind classifies the orchestrator-level failures callers need to
// branch on, distinct from the per-file outcomes the worker produces.
type ErrorKind string

const (
	KindNoSuchBuild          ErrorKind = "no_such_build"
	KindBusy                 ErrorKind = "busy"
	KindVcsFailure           ErrorKind = "vcs_failure"
	KindDivergenceUnresolved ErrorKind = "divergence_unresolved"
	KindCancelled            ErrorKind = "cancelled"
)

// MergeError is the typed error surfaced by Merge. Callers branch on Kind
// with errors.As rather than string-matching the message.
type MergeError struct {
	Kind      ErrorKind
	TaskID    string
	Conflicts []models.ConflictReport
	Err       error
}

func (e *MergeError) Error() string {
	switch e.Kind {
	case KindNoSuchBuild:
		return fmt.Sprintf("no worktree for task %q", e.TaskID)
	case KindBusy:
		return fmt.Sprintf("task %q is already being merged", e.TaskID)
	case KindDivergenceUnresolved:
		return fmt.Sprintf("task %q has %d unresolved file(s)", e.TaskID, len(e.Conflicts))
	case KindCancelled:
		return fmt.Sprintf("merge of task %q was cancelled", e.TaskID)
	default:
		if e.Err != nil {
			return fmt.Sprintf("vcs failure merging task %q: %v", e.TaskID, e.Err)
		}
		return fmt.Sprintf("merge of task %q failed", e.TaskID)
	}
}

func (e *MergeError) Unwrap() error { return e.Err }

func errNoSuchBuild(taskID string) error {
	return &MergeError{Kind: KindNoSuchBuild, TaskID: taskID}
}

func errBusy(taskID string) error {
	return &MergeError{Kind: KindBusy, TaskID: taskID}
}

func errVcsFailure(taskID string, err error) error {
	return &MergeError{Kind: KindVcsFailure, TaskID: taskID, Err: err}
}

func errDivergenceUnresolved(taskID string, conflicts []models.ConflictReport) error {
	return &MergeError{Kind: KindDivergenceUnresolved, TaskID: taskID, Conflicts: conflicts}
}

func errCancelled(taskID string, err error) error {
	return &MergeError{Kind: KindCancelled, TaskID: taskID, Err: err}
}
