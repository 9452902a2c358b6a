// Package mergeengine wires together divergence detection, the evolution
// store, the smart-merge pre-pass, the AI merge worker, and the bounded
// scheduler into the single orchestrated operation a caller actually
// invokes: merge one task's worktree branch back into a base branch.
package mergeengine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/sean-esk/auto-claude/internal/clog"
	"github.com/sean-esk/auto-claude/internal/evolution"
	"github.com/sean-esk/auto-claude/internal/intent"
	"github.com/sean-esk/auto-claude/internal/mergelock"
	"github.com/sean-esk/auto-claude/internal/mergeworker"
	"github.com/sean-esk/auto-claude/internal/scheduler"
	"github.com/sean-esk/auto-claude/internal/smartmerge"
	"github.com/sean-esk/auto-claude/internal/syntaxcheck"
	"github.com/sean-esk/auto-claude/internal/transport"
	"github.com/sean-esk/auto-claude/internal/vcs"
	"github.com/sean-esk/auto-claude/pkg/models"
)

// BranchPrefix is prepended to a task id to form its branch name, per this
// core's worktree convention: a task's worktree lives at
// <project>/.worktrees/<task_id>/ checked out on auto-claude/<task_id>.
const BranchPrefix = "auto-claude/"

// Options controls one invocation of Merge.
type Options struct {
	// NoCommit leaves resolved changes staged rather than committing them.
	NoCommit bool
}

// Result summarises one merge attempt.
type Result struct {
	TaskID    string
	Conflicts []models.ConflictReport
	Committed bool
	CommitRef string
}

// Engine is the merge orchestrator. It holds no state between Merge calls
// beyond what the evolution store and lock directory persist to disk.
type Engine struct {
	vcs                     vcs.Runner
	call                    transport.Call
	store                   *evolution.Store
	validator               *syntaxcheck.Validator
	projectRoot             string
	concurrency             int
	modelCallTimeout        time.Duration
	log                     *clog.DebugLogger
	preferTaskOnMissingBase bool
}

// New builds an Engine rooted at projectRoot. call may be
// transport.Unavailable to force every conflicted file through the
// heuristic fallback path. preferTaskOnMissingBase is threaded through to
// every mergeworker.Worker this engine dispatches, per this repo's
// keep-behind-a-flag-rather-than-hard-code convention for the
// base-absent heuristic preference.
func New(runner vcs.Runner, call transport.Call, projectRoot string, concurrency int, modelCallTimeout time.Duration, log *clog.DebugLogger, preferTaskOnMissingBase bool) *Engine {
	if concurrency <= 0 {
		concurrency = scheduler.Concurrency
	}
	if log == nil {
		log = clog.NopLogger()
	}
	return &Engine{
		vcs:                     runner,
		call:                    call,
		store:                   evolution.New(projectRoot),
		validator:               syntaxcheck.New(),
		projectRoot:             projectRoot,
		concurrency:             concurrency,
		modelCallTimeout:        modelCallTimeout,
		log:                     log,
		preferTaskOnMissingBase: preferTaskOnMissingBase,
	}
}

// Merge runs the full pipeline for taskID against baseRef, per this
// engine's ten-step orchestration sequence: locate the worktree, acquire
// the per-task lock, capture and refresh evolution state, compute
// divergence, partition changed paths into simple applies and conflicted
// merges, dispatch the conflicted set through the scheduler (smart-merge
// pre-pass first, then the AI worker), apply results in new-files- before-
// modifications-before-deletions order, and commit on full success.
func (e *Engine) Merge(ctx context.Context, taskID, baseRef string, opts Options) (*Result, error) {
	runID := uuid.New().String()[:8]
	e.log.Log("run %s: merging task %s against %s", runID, taskID, baseRef)

	worktree := filepath.Join(e.projectRoot, ".worktrees", taskID)
	if _, err := os.Stat(worktree); err != nil {
		return nil, errNoSuchBuild(taskID)
	}

	lock, err := mergelock.Acquire(e.projectRoot, taskID)
	if err != nil {
		if errors.Is(err, mergelock.ErrBusy) {
			return nil, errBusy(taskID)
		}
		return nil, errVcsFailure(taskID, err)
	}
	defer lock.Release()

	taskRef := BranchPrefix + taskID

	taskIntent, err := intent.Load(e.projectRoot, taskID)
	if err != nil {
		return nil, errVcsFailure(taskID, err)
	}

	changed, err := e.vcs.DiffNameStatus(baseRef, taskRef)
	if err != nil {
		return nil, errVcsFailure(taskID, err)
	}
	var touchedPaths []string
	for _, entry := range changed {
		for _, exp := range entry.Expand() {
			touchedPaths = append(touchedPaths, exp.Path)
		}
	}
	if err := e.store.CaptureWorktreeState(taskID, taskRef, touchedPaths); err != nil {
		e.log.Log("capture worktree state failed for %s: %v", taskID, err)
	}
	if err := e.store.RefreshFromGit(e.vcs, taskID, baseRef, taskRef, taskIntent); err != nil {
		e.log.Log("refresh from git failed for %s: %v", taskID, err)
	}

	if ctx.Err() != nil {
		return nil, errCancelled(taskID, ctx.Err())
	}

	divergence, err := vcs.Diverge(e.vcs, baseRef, taskRef)
	if err != nil {
		return nil, errVcsFailure(taskID, err)
	}

	conflictingSet := make(map[string]bool, len(divergence.ConflictingPaths))
	for _, p := range divergence.ConflictingPaths {
		conflictingSet[p] = true
	}

	var simpleAdded, simpleModified, simpleDeleted []vcs.StatusEntry
	var mergeTasks []models.MergeTask
	for _, entry := range divergence.ChangedPaths {
		if conflictingSet[entry.Path] {
			task, buildErr := e.buildMergeTask(taskID, baseRef, taskRef, divergence.MergeBaseCommit, entry.Path)
			if buildErr != nil {
				return nil, errVcsFailure(taskID, buildErr)
			}
			mergeTasks = append(mergeTasks, task)
			continue
		}
		switch entry.Status {
		case vcs.StatusAdded:
			simpleAdded = append(simpleAdded, entry)
		case vcs.StatusDeleted:
			simpleDeleted = append(simpleDeleted, entry)
		default:
			simpleModified = append(simpleModified, entry)
		}
	}

	// New files land before modifications, matching this engine's
	// dependency-order guarantee (a new file may be imported by a
	// modified one).
	for _, entry := range simpleAdded {
		if err := e.applySimple(taskRef, entry); err != nil {
			return nil, errVcsFailure(taskID, err)
		}
	}
	for _, entry := range simpleModified {
		if err := e.applySimple(taskRef, entry); err != nil {
			return nil, errVcsFailure(taskID, err)
		}
	}

	e.log.Log("run %s: dispatching %d conflicted file(s) through the scheduler", runID, len(mergeTasks))
	results := e.dispatch(ctx, mergeTasks, taskIntent)

	if ctx.Err() != nil {
		return nil, errCancelled(taskID, ctx.Err())
	}

	var conflicts []models.ConflictReport
	var addedResults, modifiedResults, deletedResults []mergedItem
	for i, res := range results {
		item := mergedItem{task: mergeTasks[i], result: res}
		switch res.Outcome {
		case models.OutcomeFailed:
			conflicts = append(conflicts, models.ConflictReport{Path: res.Path, Reason: res.Error})
		case models.OutcomeSkipped:
			e.log.Log("skipped %s: %s", res.Path, res.Error)
		case models.OutcomeDeleted:
			deletedResults = append(deletedResults, item)
		default:
			if item.task.BaseText == nil {
				addedResults = append(addedResults, item)
			} else {
				modifiedResults = append(modifiedResults, item)
			}
		}
	}

	for _, item := range addedResults {
		if err := e.applyResult(item); err != nil {
			return nil, errVcsFailure(taskID, err)
		}
	}
	for _, item := range modifiedResults {
		if err := e.applyResult(item); err != nil {
			return nil, errVcsFailure(taskID, err)
		}
	}
	for _, entry := range simpleDeleted {
		if err := e.vcs.DeleteFile(entry.Path); err != nil {
			return nil, errVcsFailure(taskID, err)
		}
		if err := e.vcs.Stage(entry.Path); err != nil {
			return nil, errVcsFailure(taskID, err)
		}
	}
	for _, item := range deletedResults {
		if err := e.vcs.DeleteFile(item.task.Path); err != nil {
			return nil, errVcsFailure(taskID, err)
		}
		if err := e.vcs.Stage(item.task.Path); err != nil {
			return nil, errVcsFailure(taskID, err)
		}
	}

	result := &Result{TaskID: taskID, Conflicts: conflicts}

	if len(conflicts) > 0 {
		sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].Path < conflicts[j].Path })
		result.Conflicts = conflicts
		return result, errDivergenceUnresolved(taskID, conflicts)
	}

	head, err := e.vcs.Run("rev-parse", "HEAD")
	if err != nil {
		e.log.Log("rev-parse HEAD failed for %s: %v", taskID, err)
	} else if err := e.store.OnTaskMerged(taskID, head); err != nil {
		e.log.Log("on task merged failed for %s: %v", taskID, err)
	}

	if !opts.NoCommit {
		msg := fmt.Sprintf("merge: integrate %s", taskID)
		if _, err := e.vcs.Run("commit", "-m", msg); err != nil {
			return nil, errVcsFailure(taskID, err)
		}
		result.Committed = true
		result.CommitRef = head
	}

	if err := e.store.MarkTaskCompleted(taskID); err != nil {
		e.log.Log("mark task completed failed for %s: %v", taskID, err)
	}

	return result, nil
}

type mergedItem struct {
	task   models.MergeTask
	result models.MergeResult
}

func (e *Engine) buildMergeTask(taskID, baseRef, taskRef, mergeBase, path string) (models.MergeTask, error) {
	task := models.MergeTask{Path: path, TaskID: taskID}

	if ours, err := e.vcs.Show(baseRef, path); err == nil {
		task.OursText = &ours
	} else if !errors.Is(err, vcs.ErrNotFound) {
		return task, err
	}

	if theirs, err := e.vcs.Show(taskRef, path); err == nil {
		task.TheirsText = &theirs
	} else if !errors.Is(err, vcs.ErrNotFound) {
		return task, err
	}

	if mergeBase != "" {
		if base, err := e.vcs.Show(mergeBase, path); err == nil {
			task.BaseText = &base
		} else if !errors.Is(err, vcs.ErrNotFound) {
			return task, err
		}
	}

	return task, nil
}

func (e *Engine) applySimple(taskRef string, entry vcs.StatusEntry) error {
	text, err := e.vcs.Show(taskRef, entry.Path)
	if err != nil {
		return err
	}
	if err := e.vcs.WriteFile(entry.Path, text); err != nil {
		return err
	}
	return e.vcs.Stage(entry.Path)
}

func (e *Engine) applyResult(item mergedItem) error {
	if item.result.MergedText == nil {
		return fmt.Errorf("merge result for %s has no text for outcome %s", item.result.Path, item.result.Outcome)
	}
	if err := e.vcs.WriteFile(item.result.Path, *item.result.MergedText); err != nil {
		return err
	}
	return e.vcs.Stage(item.result.Path)
}

// dispatch runs the smart-merge pre-pass and AI worker for every
// conflicted merge task through the bounded scheduler. The semaphore
// gates only the model call within a worker's Resolve, not the whole
// worker, so pre-checks, native merges, and smart-merge all run with full
// parallelism.
func (e *Engine) dispatch(ctx context.Context, tasks []models.MergeTask, taskIntent models.TaskIntent) []models.MergeResult {
	items := make([]scheduler.Work, len(tasks))
	for i, task := range tasks {
		task := task
		items[i] = func(ctx context.Context, permits chan struct{}) models.MergeResult {
			if res, ok := e.trySmartMerge(ctx, task); ok {
				return res
			}

			gatedCall := func(callCtx context.Context, system, user string) (string, error) {
				release, err := scheduler.Acquire(callCtx, permits)
				if err != nil {
					return "", err
				}
				defer release()

				timeoutCtx, cancel := context.WithTimeout(callCtx, e.modelCallTimeout)
				defer cancel()
				return e.call(timeoutCtx, system, user)
			}

			worker := mergeworker.New(e.vcs, gatedCall, e.projectRoot, e.preferTaskOnMissingBase)
			return worker.Resolve(ctx, task, taskIntent)
		}
	}
	return scheduler.Run(ctx, e.concurrency, items)
}

// trySmartMerge applies the critical-file format-aware merge pre-pass.
// It only succeeds (ok=true) for recognised manifest files whose sides
// are both present and whose structural merge reports no residual
// conflict and produces syntactically valid output; anything else falls
// through to the general worker.
func (e *Engine) trySmartMerge(ctx context.Context, task models.MergeTask) (models.MergeResult, bool) {
	if !smartmerge.IsCritical(task.Path) {
		return models.MergeResult{}, false
	}
	if task.OursText == nil || task.TheirsText == nil {
		return models.MergeResult{}, false
	}

	merged, handled, err := smartmerge.Merge(task.Path, *task.OursText, *task.TheirsText)
	if !handled || err != nil {
		return models.MergeResult{}, false
	}

	if valid, _ := e.validator.Check(ctx, task.Path, merged, e.projectRoot); !valid {
		return models.MergeResult{}, false
	}

	return models.MergeResult{Path: task.Path, MergedText: &merged, Outcome: models.OutcomeClean}, true
}
