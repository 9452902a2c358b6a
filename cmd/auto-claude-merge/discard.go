package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sean-esk/auto-claude/internal/clog"
	"github.com/sean-esk/auto-claude/internal/mergelock"
	"github.com/sean-esk/auto-claude/internal/vcs"
)

var discardForce bool

var discardCmd = &cobra.Command{
	Use:   "discard <task_id>",
	Short: "Discard a task's worktree and branch",
	Long: `discard removes a task's worktree and its auto-claude/<task_id>
branch without merging. This is destructive and irreversible, so it
requires typing the literal confirmation string "delete" unless --force
is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runDiscard,
}

func init() {
	discardCmd.Flags().BoolVarP(&discardForce, "force", "f", false, "skip the confirmation prompt")
}

func runDiscard(cmd *cobra.Command, args []string) error {
	taskID := args[0]

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	projectRoot, err := findGitRoot(cwd)
	if err != nil {
		return fmt.Errorf("find git repository: %w", err)
	}

	if !discardForce {
		fmt.Printf("This will permanently delete the worktree and branch for task %s.\n", taskID)
		fmt.Print("Type \"delete\" to confirm: ")
		reader := bufio.NewReader(os.Stdin)
		response, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read confirmation: %w", err)
		}
		if strings.TrimSpace(response) != "delete" {
			clog.Warn("discard of %s cancelled", taskID)
			return nil
		}
	}

	runner := vcs.NewRunner(projectRoot)
	worktreePath := worktreeDir(projectRoot, taskID)
	branch := "auto-claude/" + taskID

	if _, err := runner.Run("worktree", "remove", "--force", worktreePath); err != nil {
		clog.Warn("worktree remove reported: %v", err)
	}
	if _, err := runner.Run("branch", "-D", branch); err != nil {
		clog.Warn("branch delete reported: %v", err)
	}
	if lock, err := mergelock.Acquire(projectRoot, taskID); err == nil {
		lock.Release()
	}

	clog.Success("discarded %s", taskID)
	return nil
}
