package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"
)

// CheckGitCLI verifies that the 'git' CLI is available in PATH, since every
// command in this surface shells out to it via the vcs package.
func CheckGitCLI() error {
	_, err := exec.LookPath("git")
	if err != nil {
		return fmt.Errorf("git not found in PATH\n\n" +
			"auto-claude-merge drives git directly and cannot function without it")
	}
	return nil
}

var rootCmd = &cobra.Command{
	Use:   "auto-claude-merge",
	Short: "Intent-aware merge engine for parallel coding agents",
	Long: `auto-claude-merge integrates a finished task's worktree branch back
into its base branch: native three-way merge first, model-assisted
resolution of residual conflicts, and a durable per-task lock so two
merges of the same task can never race.

Available commands:
  merge      Merge a task's worktree branch into its base branch
  review     Print a summary of a task's pending merge
  discard    Discard a task's worktree and branch
  list       List task worktrees
  cleanup    Remove orphaned task worktrees

Use "auto-claude-merge [command] --help" for more information about a command.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(discardCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(cleanupCmd)
}
