// Package intent loads a task's declared TaskIntent from its implementation
// plan, the one piece of task metadata this engine treats as read-only
// input. It looks only in the main project's .auto-claude/specs/<taskID>/
// directory, never in the task's worktree, and extracts the title, the
// description, and the per-subtask status and files lifted out of
// phases[].subtasks[].
package intent

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sean-esk/auto-claude/pkg/models"
)

// planDoc mirrors the JSON shape of implementation_plan.json: a title and
// description at the top level, with subtasks nested under phases.
type planDoc struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Phases      []struct {
		Subtasks []struct {
			Title       string   `json:"title" yaml:"title"`
			Description string   `json:"description" yaml:"description"`
			Status      string   `json:"status" yaml:"status"`
			Files       []string `json:"files" yaml:"files"`
		} `json:"subtasks" yaml:"subtasks"`
	} `json:"phases" yaml:"phases"`
}

// Load reads the task intent for taskID from
// <projectRoot>/.auto-claude/specs/<taskID>/implementation_plan.json. If
// that file is absent, it falls back to a sibling implementation_plan.yaml
// (some tasks are planned directly in YAML rather than JSON). Whether or
// not a plan was found, a spec.md in the same directory, when present,
// supplies the one-paragraph SummaryParagraph. A missing plan of either
// kind is not an error: Load returns a TaskIntent with the title set to
// taskID (plus the spec.md summary, if any), since intent is read-only,
// best-effort context for prompts, never a requirement for merging.
func Load(projectRoot, taskID string) (models.TaskIntent, error) {
	dir := specDir(projectRoot, taskID)

	doc, err := loadPlanDoc(dir)
	if err != nil {
		return models.TaskIntent{}, err
	}

	result := models.TaskIntent{Title: taskID}
	if doc != nil {
		result.Title = firstNonEmpty(doc.Title, taskID)
		result.Description = doc.Description
		for _, phase := range doc.Phases {
			for _, st := range phase.Subtasks {
				result.Subtasks = append(result.Subtasks, models.Subtask{
					Title:       st.Title,
					Description: st.Description,
					Status:      models.SubtaskStatus(normalizeStatus(st.Status)),
				})
				result.PlannedPaths = append(result.PlannedPaths, st.Files...)
			}
		}
	}

	if summary := readSpecSummary(dir); summary != "" {
		result.SummaryParagraph = summary
	}

	return result, nil
}

// specDir returns the directory implementation_plan.json/.yaml and spec.md
// live in for a task, under the project's own .auto-claude state
// directory (this core's merge lock and evolution store live alongside
// it, not under the task's worktree, since the merge always runs from the
// main project checkout).
func specDir(projectRoot, taskID string) string {
	return filepath.Join(projectRoot, ".auto-claude", "specs", taskID)
}

func loadPlanDoc(dir string) (*planDoc, error) {
	jsonPath := filepath.Join(dir, "implementation_plan.json")
	if data, err := os.ReadFile(jsonPath); err == nil {
		var doc planDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		return &doc, nil
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	yamlPath := filepath.Join(dir, "implementation_plan.yaml")
	if data, err := os.ReadFile(yamlPath); err == nil {
		var doc planDoc
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		return &doc, nil
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	return nil, nil
}

// readSpecSummary extracts the first content paragraph of a sibling
// spec.md as a fallback summary, matching the original implementation's
// "first paragraph after the title" heuristic.
func readSpecSummary(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, "spec.md"))
	if err != nil {
		return ""
	}
	paragraphs := strings.Split(string(data), "\n\n")
	if len(paragraphs) < 2 {
		return ""
	}
	summary := strings.TrimSpace(paragraphs[1])
	const maxLen = 500
	if len(summary) > maxLen {
		summary = summary[:maxLen]
	}
	return summary
}

func normalizeStatus(s string) string {
	if s == "" {
		return string(models.TaskStatusPending)
	}
	return s
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
