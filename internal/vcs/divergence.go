package vcs

// DivergenceReport summarises how a task branch has diverged from a base
// branch: the merge base, every path the task branch changed since the
// merge base, and the subset of paths that changed on both sides.
type DivergenceReport struct {
	BaseRef         string
	TaskRef         string
	MergeBaseCommit string
	ConflictingPaths []string
	ChangedPaths    []StatusEntry
}

// Diverge computes a DivergenceReport for a task branch against a base
// branch using merge_tree for conflict detection (so the working tree is
// never touched) and diff_name_status for the full changed-path list.
//
// When the two refs share no common ancestor, every path in the changed-
// path list is conservatively treated as conflicting, per this engine's
// rule for unrelated histories.
func Diverge(r Runner, baseRef, taskRef string) (*DivergenceReport, error) {
	report := &DivergenceReport{BaseRef: baseRef, TaskRef: taskRef}

	mergeBase, err := r.MergeBase(baseRef, taskRef)
	unrelated := err == ErrMissingBase
	if err != nil && !unrelated {
		return nil, err
	}
	report.MergeBaseCommit = mergeBase

	changed, err := r.DiffNameStatus(baseRef, taskRef)
	if err != nil {
		return nil, err
	}
	for _, entry := range changed {
		report.ChangedPaths = append(report.ChangedPaths, entry.Expand()...)
	}

	if unrelated {
		seen := make(map[string]bool)
		for _, e := range report.ChangedPaths {
			if !seen[e.Path] {
				seen[e.Path] = true
				report.ConflictingPaths = append(report.ConflictingPaths, e.Path)
			}
		}
		return report, nil
	}

	tree, err := r.MergeTree(mergeBase, baseRef, taskRef)
	if err != nil {
		return nil, err
	}
	report.ConflictingPaths = tree.PathsWithConflicts

	return report, nil
}
