package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sean-esk/auto-claude/internal/vcs"
)

var reviewCmd = &cobra.Command{
	Use:   "review <task_id>",
	Short: "Print a summary of a task's pending merge",
	Long: `review prints the set of paths a task's branch has touched relative
to the current branch, without merging anything. Detailed conflict
resolution review is delegated to external tooling (a diff viewer, a
pull request); this command exists to tell an operator what merge
would be about to do.`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

func runReview(cmd *cobra.Command, args []string) error {
	taskID := args[0]

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	projectRoot, err := findGitRoot(cwd)
	if err != nil {
		return fmt.Errorf("find git repository: %w", err)
	}

	runner := vcs.NewRunner(projectRoot)
	baseRef, err := runner.CurrentBranch()
	if err != nil {
		return fmt.Errorf("resolve base branch: %w", err)
	}
	taskRef := "auto-claude/" + taskID

	report, err := vcs.Diverge(runner, baseRef, taskRef)
	if err != nil {
		return fmt.Errorf("compute divergence: %w", err)
	}

	conflicting := make(map[string]bool, len(report.ConflictingPaths))
	for _, p := range report.ConflictingPaths {
		conflicting[p] = true
	}

	fmt.Printf("task %s vs %s (merge base %s):\n", taskID, baseRef, report.MergeBaseCommit)
	for _, entry := range report.ChangedPaths {
		marker := " "
		if conflicting[entry.Path] {
			marker = "!"
		}
		fmt.Printf("  %s %-10s %s\n", marker, entry.Status, entry.Path)
	}
	if len(report.ConflictingPaths) == 0 {
		fmt.Println("no conflicting paths; merge would apply cleanly")
	} else {
		fmt.Printf("%d path(s) marked ! will require merge resolution\n", len(report.ConflictingPaths))
	}
	return nil
}
