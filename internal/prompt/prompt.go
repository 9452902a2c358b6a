// Package prompt builds the text sent to the model for AI-assisted conflict
// resolution. It builds fmt.Sprintf section templates in three distinct
// shapes depending on how much context a conflict warrants, and
// enforces a length budget so a pathological file never blows the context
// window of the underlying model call.
package prompt

import (
	"fmt"
	"strings"

	"github.com/sean-esk/auto-claude/internal/conflict"
	"github.com/sean-esk/auto-claude/pkg/models"
)

// Budget caps the total size of a built prompt. When a prompt would exceed
// it, history entries are dropped oldest-first; hunks and the current
// task's intent are never dropped.
const Budget = 12000

// FileConflict is everything the builder needs to describe one conflicting
// file: its raw conflicted body plus whichever base/ours/theirs content is
// available for fuller shapes.
type FileConflict struct {
	Path        string
	Body        string
	Hunks       []conflict.Hunk
	BaseText    string
	OursText    string
	TheirsText  string
	HasBaseText bool
}

// HistoryEntry summarises one previously completed task, for timeline-aware
// prompts where prior work may explain the shape of the conflict.
type HistoryEntry struct {
	TaskID      string
	Intent      string
	FilesTouched []string
}

// Request carries everything a Build call needs.
type Request struct {
	TaskID   string
	Intent   models.TaskIntent
	Conflict FileConflict
	History  []HistoryEntry // ordered oldest-first
}

// ConflictOnly builds the smallest prompt shape: the file path, the task
// intent and the conflict-marked body, with no base/ours/theirs copies and
// no branch history. The body is included whole; the hunks are not
// extracted from it, and no language line is added.
func ConflictOnly(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Resolve merge conflict\n\n")
	fmt.Fprintf(&b, "File: %s\n", req.Conflict.Path)
	fmt.Fprintf(&b, "Task intent: %s\n\n", req.Intent.Summary())
	fmt.Fprintf(&b, "## Conflict\n```\n%s\n```\n\n", req.Conflict.Body)
	b.WriteString(instructions())
	return truncate(b.String())
}

// SimpleThreeWay builds a prompt including the full base/ours/theirs content
// for the file, for use when the conflict spans enough of the file that
// hunk-only context would be ambiguous.
func SimpleThreeWay(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Resolve merge conflict (three-way)\n\n")
	fmt.Fprintf(&b, "File: %s\n", req.Conflict.Path)
	fmt.Fprintf(&b, "Task intent: %s\n\n", req.Intent.Summary())

	if req.Conflict.HasBaseText {
		fmt.Fprintf(&b, "## Base\n```\n%s\n```\n\n", req.Conflict.BaseText)
	}
	fmt.Fprintf(&b, "## Ours (target branch)\n```\n%s\n```\n\n", req.Conflict.OursText)
	fmt.Fprintf(&b, "## Theirs (incoming task)\n```\n%s\n```\n\n", req.Conflict.TheirsText)
	fmt.Fprintf(&b, "## Conflict markers\n```\n%s\n```\n\n", req.Conflict.Body)
	b.WriteString(instructions())
	return truncate(b.String())
}

// Timeline builds the richest prompt shape, adding a summary of prior tasks
// that touched this file, oldest first. History is the first thing dropped
// to fit Budget; the conflict body and current intent never are.
func Timeline(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Resolve merge conflict (with history)\n\n")
	fmt.Fprintf(&b, "File: %s\n", req.Conflict.Path)
	fmt.Fprintf(&b, "Current task intent: %s\n\n", req.Intent.Summary())

	historyBlock := formatHistory(req.History)
	if historyBlock != "" {
		fmt.Fprintf(&b, "## Prior work on this file\n%s\n\n", historyBlock)
	}

	if req.Conflict.HasBaseText {
		fmt.Fprintf(&b, "## Base\n```\n%s\n```\n\n", req.Conflict.BaseText)
	}
	fmt.Fprintf(&b, "## Ours (target branch)\n```\n%s\n```\n\n", req.Conflict.OursText)
	fmt.Fprintf(&b, "## Theirs (incoming task)\n```\n%s\n```\n\n", req.Conflict.TheirsText)
	fmt.Fprintf(&b, "## Conflict markers\n```\n%s\n```\n\n", req.Conflict.Body)
	b.WriteString(instructions())

	built := b.String()
	if len(built) <= Budget {
		return built
	}

	// Over budget: drop history entries oldest-first and rebuild, rather
	// than truncating mid-section, which could cut a hunk or the intent.
	for n := len(req.History) - 1; n > 0; n-- {
		trimmed := req
		trimmed.History = req.History[len(req.History)-n:]
		candidate := Timeline(trimmed)
		if len(candidate) <= Budget {
			return candidate
		}
	}

	if len(req.History) == 0 {
		// Already has no history to drop; the content itself (base/ours/
		// theirs/conflict) exceeds Budget, so fall back to the mid-content
		// cut rather than recursing into this same branch forever.
		return truncate(built)
	}

	withoutHistory := req
	withoutHistory.History = nil
	return truncate(Timeline(withoutHistory))
}

func formatHistory(entries []HistoryEntry) string {
	if len(entries) == 0 {
		return ""
	}
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "- %s: %s (touched %s)\n", e.TaskID, e.Intent, strings.Join(e.FilesTouched, ", "))
	}
	return b.String()
}

func instructions() string {
	return `## Your task
Produce the fully merged content for this file with no conflict markers
remaining. Preserve the intent of both sides where they do not truly
contradict each other. Reply with only the merged file content.`
}

// truncate is the last-resort guard once history has already been dropped:
// it keeps the first two-thirds of Budget and the last part of the prompt,
// cutting what lies between. The path and intent header is written first
// and the conflict markers and instructions last, so those survive the cut
// as long as they fit in the kept head and tail; a longer section is cut
// like any other.
func truncate(s string) string {
	if len(s) <= Budget {
		return s
	}
	marker := "\n\n[... content truncated to fit length budget ...]\n\n"
	keepHead := Budget * 2 / 3
	keepTail := Budget - keepHead - len(marker)
	if keepTail < 0 {
		return s[:Budget]
	}
	return s[:keepHead] + marker + s[len(s)-keepTail:]
}
