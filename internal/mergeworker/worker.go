// Package mergeworker implements the per-file merge algorithm: native
// three-way merge first, then conflict-only model resolution, then
// full-file model resolution, then a line-diff heuristic, each step
// tried in order until one produces syntactically valid output.
package mergeworker

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/sean-esk/auto-claude/internal/conflict"
	"github.com/sean-esk/auto-claude/internal/prompt"
	"github.com/sean-esk/auto-claude/internal/syntaxcheck"
	"github.com/sean-esk/auto-claude/internal/transport"
	"github.com/sean-esk/auto-claude/internal/vcs"
	"github.com/sean-esk/auto-claude/pkg/models"
)

// MaxFileLines is the line-count ceiling above which a file is skipped
// rather than sent to the model, regardless of side.
const MaxFileLines = 5000

// BinaryExtensions lists extensions treated as opaque binary content,
// always skipped rather than merged or validated.
var BinaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".ico": true,
	".webp": true, ".bmp": true, ".svg": true,
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".ppt": true, ".pptx": true,
	".zip": true, ".tar": true, ".gz": true, ".rar": true, ".7z": true,
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".bin": true,
	".mp3": true, ".mp4": true, ".wav": true, ".avi": true, ".mov": true, ".mkv": true,
	".woff": true, ".woff2": true, ".ttf": true, ".otf": true, ".eot": true,
	".pyc": true, ".pyo": true, ".class": true, ".o": true, ".obj": true,
}

// Worker resolves one MergeTask at a time. It holds no state between
// calls to Resolve.
type Worker struct {
	vcs                     vcs.Runner
	call                    transport.Call
	validator               *syntaxcheck.Validator
	projectRoot             string
	preferTaskOnMissingBase bool
}

// New creates a Worker. call may be transport.Unavailable to force the
// heuristic fallback path. preferTaskOnMissingBase governs the heuristic
// fallback's behaviour when no common base is available: when true, the
// task's own content wins rather than the merge being reported Failed.
func New(runner vcs.Runner, call transport.Call, projectRoot string, preferTaskOnMissingBase bool) *Worker {
	return &Worker{
		vcs:                     runner,
		call:                    call,
		validator:               syntaxcheck.New(),
		projectRoot:             projectRoot,
		preferTaskOnMissingBase: preferTaskOnMissingBase,
	}
}

// Resolve runs the five-step algorithm for task and returns exactly one
// MergeResult.
func (w *Worker) Resolve(ctx context.Context, task models.MergeTask, intent models.TaskIntent) models.MergeResult {
	if res, done := w.preChecks(task); done {
		return res
	}

	ours := deref(task.OursText)
	theirs := deref(task.TheirsText)
	base := deref(task.BaseText)

	// Both sides made the identical edit (or neither changed this file at
	// all): no model call is ever warranted here, regardless of whether a
	// common base is available.
	if ours == theirs {
		return clean(task.Path, ours)
	}

	if task.BaseText != nil {
		merged, hadConflicts, err := w.vcs.MergeFile(ours, base, theirs)
		if err == nil {
			if !hadConflicts {
				if valid, _ := w.validator.Check(ctx, task.Path, merged, w.projectRoot); valid {
					return clean(task.Path, merged)
				}
			} else {
				if res, ok := w.conflictOnlyModelMerge(ctx, task, intent, merged); ok {
					return res
				}
			}
		}
	}

	if res, ok := w.fullFileModelMerge(ctx, task, intent); ok {
		return res
	}

	return w.heuristicFallback(task, base, ours, theirs)
}

func (w *Worker) preChecks(task models.MergeTask) (models.MergeResult, bool) {
	ext := strings.ToLower(filepath.Ext(task.Path))
	if BinaryExtensions[ext] {
		return skipped(task.Path, "binary"), true
	}

	if task.TheirsText == nil {
		return models.MergeResult{Path: task.Path, Outcome: models.OutcomeDeleted}, true
	}
	if task.OursText == nil {
		return clean(task.Path, *task.TheirsText), true
	}

	if countLines(*task.OursText) > MaxFileLines || countLines(*task.TheirsText) > MaxFileLines {
		return skipped(task.Path, "too large"), true
	}

	return models.MergeResult{}, false
}

func (w *Worker) conflictOnlyModelMerge(ctx context.Context, task models.MergeTask, intent models.TaskIntent, markedBody string) (models.MergeResult, bool) {
	hunks := conflict.Parse(markedBody)
	if len(hunks) == 0 {
		return models.MergeResult{}, false
	}

	req := prompt.Request{
		TaskID: task.TaskID,
		Intent: intent,
		Conflict: prompt.FileConflict{
			Path:  task.Path,
			Body:  markedBody,
			Hunks: hunks,
		},
	}
	text := prompt.ConflictOnly(req)

	response, err := w.call(ctx, "Resolve only the shown conflicts. Reply with exactly one resolution block per hunk, in order, each fenced in triple backticks.", text)
	if err != nil {
		return models.MergeResult{}, false
	}

	resolutions := extractHunkResolutions(response, len(hunks))
	if resolutions == nil {
		return models.MergeResult{}, false
	}

	merged := conflict.Reassemble(markedBody, hunks, resolutions)
	if valid, _ := w.validator.Check(ctx, task.Path, merged, w.projectRoot); !valid {
		return models.MergeResult{}, false
	}
	return aiMerged(task.Path, merged), true
}

func (w *Worker) fullFileModelMerge(ctx context.Context, task models.MergeTask, intent models.TaskIntent) (models.MergeResult, bool) {
	req := prompt.Request{
		TaskID: task.TaskID,
		Intent: intent,
		Conflict: prompt.FileConflict{
			Path:        task.Path,
			OursText:    deref(task.OursText),
			TheirsText:  deref(task.TheirsText),
			BaseText:    deref(task.BaseText),
			HasBaseText: task.BaseText != nil,
		},
	}

	// The timeline shape is chosen whenever a base version exists; the
	// number of commits between the task and the base is not consulted.
	behindBase := task.BaseText != nil
	var text string
	if behindBase {
		text = prompt.Timeline(req)
	} else {
		text = prompt.SimpleThreeWay(req)
	}

	system := "Produce the fully merged file content with no conflict markers. Reply with exactly one fenced code block containing the entire file."
	response, err := w.call(ctx, system, text)
	if err != nil {
		return models.MergeResult{}, false
	}

	body := extractCodeBlock(response)
	if valid, msg := w.validator.Check(ctx, task.Path, body, w.projectRoot); valid {
		return aiMerged(task.Path, body), true
	} else {
		retryPrompt := body + "\n\nValidator error: " + msg
		retryResponse, err := w.call(ctx, system, retryPrompt)
		if err != nil {
			return models.MergeResult{}, false
		}
		retryBody := extractCodeBlock(retryResponse)
		if valid, _ := w.validator.Check(ctx, task.Path, retryBody, w.projectRoot); valid {
			return aiMerged(task.Path, retryBody), true
		}
	}

	return models.MergeResult{}, false
}

func (w *Worker) heuristicFallback(task models.MergeTask, base, ours, theirs string) models.MergeResult {
	if task.BaseText == nil {
		if w.preferTaskOnMissingBase {
			return heuristic(task.Path, theirs)
		}
		return models.MergeResult{Path: task.Path, Outcome: models.OutcomeFailed, Error: "no common base for heuristic merge"}
	}

	oursDiffers := base != ours
	theirsDiffers := base != theirs

	switch {
	case !oursDiffers && theirsDiffers:
		return heuristic(task.Path, theirs)
	case oursDiffers && !theirsDiffers:
		return heuristic(task.Path, ours)
	default:
		return models.MergeResult{Path: task.Path, Outcome: models.OutcomeFailed, Error: "both sides changed and model resolution failed"}
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}

func clean(path, text string) models.MergeResult {
	return models.MergeResult{Path: path, MergedText: &text, Outcome: models.OutcomeClean}
}

func aiMerged(path, text string) models.MergeResult {
	return models.MergeResult{Path: path, MergedText: &text, Outcome: models.OutcomeAiMerged}
}

func heuristic(path, text string) models.MergeResult {
	return models.MergeResult{Path: path, MergedText: &text, Outcome: models.OutcomeHeuristic}
}

func skipped(path, reason string) models.MergeResult {
	return models.MergeResult{Path: path, Outcome: models.OutcomeSkipped, Error: reason}
}

// extractCodeBlock pulls the body out of the first fenced code block in
// text (``` optionally followed by a language tag), or returns text with
// surrounding whitespace trimmed if no fence is present, on the assumption a model asked for
// "just the file" sometimes omits the fence entirely.
func extractCodeBlock(text string) string {
	const fence = "```"
	start := strings.Index(text, fence)
	if start == -1 {
		return strings.TrimSpace(text)
	}
	afterFence := start + len(fence)
	lineEnd := strings.IndexByte(text[afterFence:], '\n')
	if lineEnd == -1 {
		return strings.TrimSpace(text)
	}
	bodyStart := afterFence + lineEnd + 1
	end := strings.Index(text[bodyStart:], fence)
	if end == -1 {
		return strings.TrimSpace(text[bodyStart:])
	}
	return text[bodyStart : bodyStart+end]
}

// extractHunkResolutions splits a model response expected to contain
// exactly count fenced code blocks, one resolution per hunk in order. It
// returns nil if the response does not contain exactly that many blocks,
// so the caller can fall back to the full-file merge step instead of
// reassembling a mismatched set of resolutions.
func extractHunkResolutions(text string, count int) []string {
	const fence = "```"
	var blocks []string
	rest := text
	for {
		start := strings.Index(rest, fence)
		if start == -1 {
			break
		}
		afterFence := start + len(fence)
		lineEnd := strings.IndexByte(rest[afterFence:], '\n')
		if lineEnd == -1 {
			break
		}
		bodyStart := afterFence + lineEnd + 1
		end := strings.Index(rest[bodyStart:], fence)
		if end == -1 {
			break
		}
		blocks = append(blocks, rest[bodyStart:bodyStart+end])
		rest = rest[bodyStart+end+len(fence):]
	}

	if len(blocks) != count {
		return nil
	}
	return blocks
}
