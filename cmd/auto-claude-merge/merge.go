package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sean-esk/auto-claude/internal/clog"
	"github.com/sean-esk/auto-claude/internal/mergeengine"
	"github.com/sean-esk/auto-claude/internal/vcs"
)

var (
	mergeNoCommit bool
	mergeBaseRef  string
)

var mergeCmd = &cobra.Command{
	Use:   "merge <task_id>",
	Short: "Merge a task's worktree branch into its base branch",
	Long: `merge integrates auto-claude/<task_id> back into the base branch:
native three-way merge first, then model-assisted resolution of any
residual conflicts, then a line-diff heuristic as a last resort.

Exit codes: 0 on success, 2 if the task has no worktree, 3 if the task
is already being merged, 4 if one or more files could not be resolved.`,
	Args: cobra.ExactArgs(1),
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().BoolVar(&mergeNoCommit, "no-commit", false, "leave resolved changes staged instead of committing")
	mergeCmd.Flags().StringVar(&mergeBaseRef, "base", "", "base branch to merge into (defaults to the current branch)")
}

func runMerge(cmd *cobra.Command, args []string) error {
	taskID := args[0]

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	projectRoot, err := findGitRoot(cwd)
	if err != nil {
		return fmt.Errorf("find git repository: %w", err)
	}

	engine, _, err := buildEngine(projectRoot)
	if err != nil {
		return err
	}

	baseRef := mergeBaseRef
	if baseRef == "" {
		baseRef, err = vcs.NewRunner(projectRoot).CurrentBranch()
		if err != nil {
			return fmt.Errorf("resolve base branch: %w", err)
		}
	}

	result, err := engine.Merge(context.Background(), taskID, baseRef, mergeengine.Options{NoCommit: mergeNoCommit})

	var merr *mergeengine.MergeError
	if errors.As(err, &merr) {
		switch merr.Kind {
		case mergeengine.KindNoSuchBuild:
			clog.Fail("no worktree found for task %s", taskID)
			os.Exit(2)
		case mergeengine.KindBusy:
			clog.Fail("task %s is already being merged", taskID)
			os.Exit(3)
		case mergeengine.KindDivergenceUnresolved:
			clog.Warn("merge of %s left %d file(s) unresolved:", taskID, len(merr.Conflicts))
			for _, c := range merr.Conflicts {
				fmt.Printf("  %s: %s\n", c.Path, c.Reason)
			}
			os.Exit(4)
		default:
			return merr
		}
	}
	if err != nil {
		return err
	}

	if result.Committed {
		clog.Success("merged %s (%s)", taskID, result.CommitRef)
	} else {
		clog.Success("merged %s (left staged, use --no-commit was set)", taskID)
	}
	return nil
}
