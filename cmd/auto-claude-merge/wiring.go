package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/sean-esk/auto-claude/internal/appconfig"
	"github.com/sean-esk/auto-claude/internal/clog"
	"github.com/sean-esk/auto-claude/internal/mergeengine"
	"github.com/sean-esk/auto-claude/internal/transport"
	"github.com/sean-esk/auto-claude/internal/vcs"
)

// worktreeDir returns the path a task's worktree lives at, per this
// engine's layout convention.
func worktreeDir(projectRoot, taskID string) string {
	return filepath.Join(projectRoot, ".worktrees", taskID)
}

// findGitRoot walks up from startDir looking for a .git directory, the
// same lookup every command in this surface needs before it can build a
// vcs.Runner or locate .auto-claude state.
func findGitRoot(startDir string) (string, error) {
	dir := startDir
	for {
		gitDir := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a git repository")
		}
		dir = parent
	}
}

// buildEngine assembles a mergeengine.Engine from layered configuration
// and a real git-backed Runner, the wiring every subcommand that touches
// the merge pipeline shares.
func buildEngine(projectRoot string) (*mergeengine.Engine, *appconfig.Config, error) {
	cfg, err := appconfig.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	call, err := transport.NewAnthropic(anthropic.Model(cfg.Anthropic.Model))
	if err != nil {
		return nil, nil, fmt.Errorf("build model transport: %w", err)
	}

	runner := vcs.NewRunner(projectRoot)
	logger := clog.NewDebugLoggerForProject(projectRoot)

	engine := mergeengine.New(runner, call, projectRoot, cfg.Merge.Concurrency, cfg.Merge.ModelCallTimeout, logger, cfg.Merge.PreferTaskOnMissingBase)
	return engine, cfg, nil
}
