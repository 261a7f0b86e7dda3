// Package export writes wizard artifacts to disk.
//
// A workflow export is a JSON document holding every step that has content;
// a step export is the raw artifact, HTML for code generation and Markdown
// for everything else.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"sdlcwizard/internal/steps"
	"sdlcwizard/internal/workflow"
)

// Filename prefixes for workflow exports.
const (
	PrefixFull  = "full_workflow"
	PrefixFinal = "final_workflow"
)

// codeStepID is the step whose artifact is an HTML document.
const codeStepID = "code_generation"

// projectNameLength caps how much of the description goes into file names.
const projectNameLength = 20

// StepExport is one step in a workflow export.
type StepExport struct {
	Label      string `json:"label"`
	Content    string `json:"content"`
	IsApproved bool   `json:"is_approved"`
}

// Workflow is the JSON export document.
type Workflow struct {
	Project      string                `json:"project"`
	DownloadDate string                `json:"download_date"`
	Steps        map[string]StepExport `json:"steps"`
}

// BuildWorkflow collects every step of state that has content.
func BuildWorkflow(reg *steps.Registry, state workflow.State, now time.Time) Workflow {
	w := Workflow{
		Project:      state.ProjectDescription,
		DownloadDate: now.UTC().Format("2006-01-02T15:04:05.000Z"),
		Steps:        make(map[string]StepExport),
	}
	for _, s := range reg.Steps() {
		r := state.Record(s.ID)
		if r.Content == "" {
			continue
		}
		w.Steps[s.ID] = StepExport{Label: s.Label, Content: r.Content, IsApproved: r.Approved}
	}
	return w
}

// Filename returns "<prefix>_<project>_<timestamp>" without an extension.
// The project part is the first characters of the description with
// whitespace and path separators replaced by underscores.
func Filename(prefix, project string, now time.Time) string {
	name := "project"
	if project != "" {
		r := []rune(project)
		if len(r) > projectNameLength {
			r = r[:projectNameLength]
		}
		name = strings.Map(func(c rune) rune {
			if unicode.IsSpace(c) || c == '/' || c == '\\' {
				return '_'
			}
			return c
		}, string(r))
	}

	stamp := now.UTC().Format("2006-01-02T15:04:05.000Z")
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return fmt.Sprintf("%s_%s_%s", prefix, name, stamp)
}

// StepArtifact returns the file extension and MIME type for a step export.
func StepArtifact(stepID string) (ext, mimeType string) {
	if stepID == codeStepID {
		return ".html", "text/html"
	}
	return ".md", "text/markdown"
}

// WriteWorkflow writes the workflow export into dir and returns its path.
func WriteWorkflow(dir string, reg *steps.Registry, state workflow.State, final bool, now time.Time) (string, error) {
	prefix := PrefixFull
	if final {
		prefix = PrefixFinal
	}

	data, err := json.MarshalIndent(BuildWorkflow(reg, state, now), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal workflow: %w", err)
	}
	return writeFile(dir, Filename(prefix, state.ProjectDescription, now)+".json", data)
}

// WriteStep writes the artifact of one step into dir and returns its path.
func WriteStep(dir string, state workflow.State, stepID string, now time.Time) (string, error) {
	content := state.Record(stepID).Content
	if content == "" {
		return "", fmt.Errorf("export %q: %w", stepID, workflow.ErrNoContent)
	}

	ext, _ := StepArtifact(stepID)
	return writeFile(dir, Filename(stepID, state.ProjectDescription, now)+ext, []byte(content))
}

func writeFile(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	return path, nil
}
