package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/sean-esk/auto-claude/internal/clog"
)

var listWatch bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List task worktrees",
	Long: `list enumerates every task worktree under .worktrees/. With --watch
it stays running and reprints the list whenever a worktree is added or
removed, using a filesystem watch on .worktrees/ itself rather than the
individual task directories (so transient file churn during an
in-progress merge never triggers a refresh).`,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVarP(&listWatch, "watch", "w", false, "keep running and reprint on worktree changes")
}

func runList(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	projectRoot, err := findGitRoot(cwd)
	if err != nil {
		return fmt.Errorf("find git repository: %w", err)
	}

	worktreesDir := filepath.Join(projectRoot, ".worktrees")
	printWorktrees(worktreesDir)

	if !listWatch {
		return nil
	}

	if err := os.MkdirAll(worktreesDir, 0o755); err != nil {
		return fmt.Errorf("create worktrees directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(worktreesDir); err != nil {
		return fmt.Errorf("watch worktrees directory: %w", err)
	}

	clog.Info("watching %s for changes (ctrl-c to stop)", worktreesDir)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				printWorktrees(worktreesDir)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			clog.Warn("watch error: %v", err)
		}
	}
}

func printWorktrees(worktreesDir string) {
	entries, err := os.ReadDir(worktreesDir)
	if err != nil {
		fmt.Println("no task worktrees found")
		return
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	if len(names) == 0 {
		fmt.Println("no task worktrees found")
		return
	}
	for _, name := range names {
		fmt.Println(name)
	}
}
