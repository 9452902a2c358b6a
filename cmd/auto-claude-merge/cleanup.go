package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sean-esk/auto-claude/internal/clog"
	"github.com/sean-esk/auto-claude/internal/vcs"
)

var (
	cleanupForce  bool
	cleanupDryRun bool
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove orphaned task worktrees",
	Long: `cleanup removes every worktree under .worktrees/ whose
auto-claude/<task_id> branch has already been merged into the current
branch (a completed, landed task has no further use for its worktree),
then prunes git's own worktree bookkeeping.

Examples:
  auto-claude-merge cleanup              # interactive, asks to confirm
  auto-claude-merge cleanup --force      # skip confirmation
  auto-claude-merge cleanup --dry-run    # show what would be removed`,
	RunE: runCleanup,
}

func init() {
	cleanupCmd.Flags().BoolVarP(&cleanupForce, "force", "f", false, "skip confirmation prompt")
	cleanupCmd.Flags().BoolVar(&cleanupDryRun, "dry-run", false, "show what would be removed without removing")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	projectRoot, err := findGitRoot(cwd)
	if err != nil {
		return fmt.Errorf("find git repository: %w", err)
	}

	runner := vcs.NewRunner(projectRoot)
	currentBranch, err := runner.CurrentBranch()
	if err != nil {
		return fmt.Errorf("resolve current branch: %w", err)
	}

	worktreesDir := filepath.Join(projectRoot, ".worktrees")
	entries, err := os.ReadDir(worktreesDir)
	if os.IsNotExist(err) {
		fmt.Println("no task worktrees found.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("list worktrees: %w", err)
	}

	var orphans []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		taskID := e.Name()
		branch := "auto-claude/" + taskID
		if isMergedInto(runner, branch, currentBranch) {
			orphans = append(orphans, taskID)
		}
	}

	if len(orphans) == 0 {
		fmt.Println("no orphaned worktrees found.")
		return nil
	}

	fmt.Printf("found %d orphaned worktree(s):\n", len(orphans))
	for _, taskID := range orphans {
		fmt.Printf("  - %s\n", worktreeDir(projectRoot, taskID))
	}

	if cleanupDryRun {
		fmt.Println("dry run mode - no worktrees were removed.")
		return nil
	}

	if !cleanupForce {
		fmt.Print("Remove these worktrees? [y/N] ")
		reader := bufio.NewReader(os.Stdin)
		response, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read confirmation: %w", err)
		}
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			clog.Warn("cleanup cancelled")
			return nil
		}
	}

	removed := 0
	for _, taskID := range orphans {
		if _, err := runner.Run("worktree", "remove", "--force", worktreeDir(projectRoot, taskID)); err != nil {
			clog.Warn("remove worktree for %s: %v", taskID, err)
			continue
		}
		if _, err := runner.Run("branch", "-D", "auto-claude/"+taskID); err != nil {
			clog.Warn("delete branch for %s: %v", taskID, err)
		}
		removed++
	}
	if _, err := runner.Run("worktree", "prune"); err != nil {
		clog.Warn("worktree prune: %v", err)
	}

	clog.Success("removed %d orphaned worktree(s)", removed)
	return nil
}

// isMergedInto reports whether branch's commits are all reachable from
// target, i.e. the task has already landed and its worktree is safe to
// remove.
func isMergedInto(runner *vcs.ExecRunner, branch, target string) bool {
	out, err := runner.Run("branch", "--merged", target, "--list", branch)
	if err != nil {
		return false
	}
	return strings.TrimSpace(out) != ""
}
