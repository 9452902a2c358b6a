package intent

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writePlan(t *testing.T, dir string, doc map[string]interface{}) {
	t.Helper()
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "implementation_plan.json"), data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_JSONPlan(t *testing.T) {
	root := t.TempDir()
	dir := specDir(root, "T1")
	writePlan(t, dir, map[string]interface{}{
		"title":       "Add retry logic",
		"description": "Retries flaky network calls.",
		"phases": []map[string]interface{}{
			{
				"subtasks": []map[string]interface{}{
					{"title": "add backoff", "description": "exponential backoff", "status": "done", "files": []string{"retry.go"}},
				},
			},
		},
	})

	got, err := Load(root, "T1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Title != "Add retry logic" {
		t.Errorf("Title = %q", got.Title)
	}
	if len(got.Subtasks) != 1 || got.Subtasks[0].Title != "add backoff" {
		t.Errorf("Subtasks = %+v", got.Subtasks)
	}
	if len(got.PlannedPaths) != 1 || got.PlannedPaths[0] != "retry.go" {
		t.Errorf("PlannedPaths = %v", got.PlannedPaths)
	}
}

func TestLoad_YAMLFallback(t *testing.T) {
	root := t.TempDir()
	dir := specDir(root, "T2")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	yamlDoc := "title: YAML plan\ndescription: described in yaml\n"
	if err := os.WriteFile(filepath.Join(dir, "implementation_plan.yaml"), []byte(yamlDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Load(root, "T2")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Title != "YAML plan" {
		t.Errorf("Title = %q", got.Title)
	}
}

func TestLoad_MissingPlanIsNotAnError(t *testing.T) {
	root := t.TempDir()
	got, err := Load(root, "ghost-task")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Title != "ghost-task" {
		t.Errorf("Title = %q, want fallback to task id", got.Title)
	}
}

func TestLoad_SpecSummaryFallback(t *testing.T) {
	root := t.TempDir()
	dir := specDir(root, "T3")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	spec := "# Title\n\nThis is the summary paragraph.\n\nMore text after."
	if err := os.WriteFile(filepath.Join(dir, "spec.md"), []byte(spec), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Load(root, "T3")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.SummaryParagraph != "This is the summary paragraph." {
		t.Errorf("SummaryParagraph = %q", got.SummaryParagraph)
	}
}
