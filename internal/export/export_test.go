package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sdlcwizard/internal/steps"
	"sdlcwizard/internal/workflow"
)

var fixedNow = time.Date(2024, 5, 6, 7, 8, 9, 123000000, time.UTC)

func exportState() workflow.State {
	return workflow.State{
		ProjectDescription: "Build a todo app with sharing",
		CurrentStep:        "code_review",
		Records: map[string]workflow.StepRecord{
			"roadmap":         {Content: "# Roadmap", Approved: true},
			"code_generation": {Content: "<html></html>"},
			"user_stories":    {Feedback: "pending"},
		},
	}
}

func TestBuildWorkflow(t *testing.T) {
	w := BuildWorkflow(steps.Default(), exportState(), fixedNow)

	assert.Equal(t, "Build a todo app with sharing", w.Project)
	assert.Equal(t, "2024-05-06T07:08:09.123Z", w.DownloadDate)
	assert.Equal(t, map[string]StepExport{
		"roadmap":         {Label: "Road Map", Content: "# Roadmap", IsApproved: true},
		"code_generation": {Label: "Code Generation", Content: "<html></html>"},
	}, w.Steps)
}

func TestFilename(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		project string
		want    string
	}{
		{name: "truncated", prefix: "full_workflow", project: "Build a todo app with sharing", want: "full_workflow_Build_a_todo_app_wit_2024-05-06T07-08-09-123Z"},
		{name: "short", prefix: "roadmap", project: "CRM", want: "roadmap_CRM_2024-05-06T07-08-09-123Z"},
		{name: "empty project", prefix: "roadmap", project: "", want: "roadmap_project_2024-05-06T07-08-09-123Z"},
		{name: "path separators", prefix: "roadmap", project: "a/b\\c", want: "roadmap_a_b_c_2024-05-06T07-08-09-123Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Filename(tt.prefix, tt.project, fixedNow))
		})
	}
}

func TestStepArtifact(t *testing.T) {
	ext, mime := StepArtifact("code_generation")
	assert.Equal(t, ".html", ext)
	assert.Equal(t, "text/html", mime)

	ext, mime = StepArtifact("roadmap")
	assert.Equal(t, ".md", ext)
	assert.Equal(t, "text/markdown", mime)
}

func TestWriteWorkflow(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	path, err := WriteWorkflow(dir, steps.Default(), exportState(), true, fixedNow)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "final_workflow_Build_a_todo_app_wit_2024-05-06T07-08-09-123Z.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got Workflow
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Len(t, got.Steps, 2)
	assert.True(t, got.Steps["roadmap"].IsApproved)
}

func TestWriteStep(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteStep(dir, exportState(), "code_generation", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, ".html", filepath.Ext(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(data))

	_, err = WriteStep(dir, exportState(), "user_stories", fixedNow)
	assert.ErrorIs(t, err, workflow.ErrNoContent)
}
