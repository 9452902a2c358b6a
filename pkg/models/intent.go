package models

// SubtaskStatus mirrors TaskStatus for the smaller units of work a task
// intent decomposes into.
type SubtaskStatus = TaskStatus

// Subtask is one planned unit of work within a task, as read from the
// task's implementation plan.
type Subtask struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Status      SubtaskStatus `json:"status"`
}

// TaskIntent is the declared purpose of a task: what it set out to do, read
// from its implementation plan and surfaced to the model when building
// merge prompts. It is read-only to the merge engine.
type TaskIntent struct {
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	PlannedPaths     []string   `json:"planned_paths,omitempty"`
	Subtasks         []Subtask  `json:"subtasks,omitempty"`
	SummaryParagraph string     `json:"summary_paragraph,omitempty"`
}

// Summary returns a short, one- or two-sentence description of the intent
// suitable for a prompt header: the summary paragraph if one was recorded,
// otherwise the first sentence of the description, otherwise the title.
func (t TaskIntent) Summary() string {
	if t.SummaryParagraph != "" {
		return t.SummaryParagraph
	}
	if t.Description == "" {
		return t.Title
	}
	return firstSentence(t.Description)
}

func firstSentence(text string) string {
	const maxLen = 100
	for i, r := range text {
		if r == '.' || r == '\n' {
			return text[:i+1]
		}
	}
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}
