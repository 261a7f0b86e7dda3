package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sdlcwizard/internal/steps"
	"sdlcwizard/internal/workflow"
)

func testState() workflow.State {
	return workflow.State{
		Credential:         "k1",
		ProjectDescription: "Build a todo app",
		CurrentStep:        "design_docs",
		Records: map[string]workflow.StepRecord{
			"user_stories": {Content: "As a user I want lists"},
			"roadmap":      {Content: strings.Repeat("r", 600), Approved: true},
			"design_docs":  {Feedback: "pending"},
		},
	}
}

func TestBuildContext(t *testing.T) {
	got := BuildContext(steps.Default(), testState())

	assert.True(t, strings.HasPrefix(got, "Project Description: Build a todo app\n\nCurrent Step: Design Docs\n\n"))
	assert.Contains(t, got, "Generated Project Content:\n")
	assert.Contains(t, got, "Road Map:\n"+strings.Repeat("r", 500)+"...\n\n")
	assert.Contains(t, got, "User Stories:\nAs a user I want lists\n\n")
	assert.Less(t, strings.Index(got, "Road Map"), strings.Index(got, "User Stories"), "artifacts follow workflow order")
	assert.NotContains(t, got, "Design Docs:\n")
}

func TestBuildContext_Empty(t *testing.T) {
	assert.Equal(t, "", BuildContext(steps.Default(), workflow.State{}))
}

func TestAsk(t *testing.T) {
	mock := &MockCompleter{Reply: "  Use a REST API.  "}
	a := New(mock, steps.Default())

	reply, err := a.Ask(context.Background(), "Which API style?", testState())

	require.NoError(t, err)
	assert.Equal(t, "Use a REST API.", reply)
	require.Len(t, mock.Prompts, 1)
	prompt := mock.Prompts[0]
	assert.True(t, strings.HasPrefix(prompt, "You are a project assistant"))
	assert.Contains(t, prompt, "\n\nProject Context:\nProject Description: Build a todo app")
	assert.True(t, strings.HasSuffix(prompt, "\nUser Question: Which API style?"))
}

func TestAsk_Errors(t *testing.T) {
	tests := []struct {
		name     string
		question string
		state    workflow.State
		mockErr  error
		wantErr  error
	}{
		{name: "no credential", question: "q", state: workflow.State{}, wantErr: ErrNoCredential},
		{name: "blank question", question: "  ", state: testState(), wantErr: ErrEmptyQuestion},
		{name: "completer failure", question: "q", state: testState(), mockErr: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockCompleter{Err: tt.mockErr}
			_, err := New(mock, steps.Default()).Ask(context.Background(), tt.question, tt.state)

			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, mock.Prompts)
				return
			}
			assert.ErrorIs(t, err, tt.mockErr)
			assert.Contains(t, err.Error(), "could not generate response")
		})
	}
}
