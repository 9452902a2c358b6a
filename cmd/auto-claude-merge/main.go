// Command auto-claude-merge is the CLI surface for the intent-aware merge
// engine: integrating a parallel coding agent's finished worktree branch
// back into its base branch.
package main

func main() {
	Execute()
}
