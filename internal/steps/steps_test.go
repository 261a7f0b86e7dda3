package steps

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sdlcwizard/internal/manifest"
)

func TestDefault_Order(t *testing.T) {
	r := Default()

	var ids []string
	for _, s := range r.Steps() {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{
		"api_input", "roadmap", "user_stories", "design_docs", "code_generation",
		"code_review", "security_review", "test_cases", "qa_testing", "deployment", "monitoring",
	}, ids)
	assert.Equal(t, "roadmap", r.First().ID)
}

func TestDefault_TemplatesUsePromptPlaceholder(t *testing.T) {
	for _, s := range Default().Steps() {
		if s.ID == IntakeID {
			assert.False(t, s.HasTemplate())
			continue
		}
		assert.Contains(t, s.PromptTemplate, PromptPlaceholder, "step %s", s.ID)
	}

	review, ok := Default().StepAt("code_review")
	require.True(t, ok)
	assert.Equal(t, "code_generation", review.DependsOn)
	assert.Contains(t, review.PromptTemplate, ArtifactPlaceholder)
}

func TestRegistry_Lookup(t *testing.T) {
	r := Default()

	tests := []struct {
		name      string
		id        string
		wantIndex int
		wantFound bool
		wantNext  string
	}{
		{name: "intake", id: IntakeID, wantIndex: 0, wantFound: true, wantNext: "roadmap"},
		{name: "middle step", id: "code_generation", wantIndex: 4, wantFound: true, wantNext: "code_review"},
		{name: "last step", id: "monitoring", wantIndex: 10, wantFound: true, wantNext: TerminalID},
		{name: "terminal is not listed", id: TerminalID, wantIndex: -1, wantFound: false, wantNext: TerminalID},
		{name: "unknown", id: "nope", wantIndex: -1, wantFound: false, wantNext: TerminalID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, found := r.StepAt(tt.id)
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.wantIndex, r.IndexOf(tt.id))
			assert.Equal(t, tt.wantNext, r.NextID(tt.id))
		})
	}
}

func TestRegistry_NextReportsTerminal(t *testing.T) {
	r := Default()

	_, ok := r.Next("monitoring")
	assert.False(t, ok)

	next, ok := r.Next("roadmap")
	require.True(t, ok)
	assert.Equal(t, "user_stories", next.ID)
}

func TestRegistry_StepsIsACopy(t *testing.T) {
	r := Default()
	listing := r.Steps()
	listing[1].Label = "mutated"

	s, _ := r.StepAt("roadmap")
	assert.Equal(t, "Road Map", s.Label)
}

func TestRegistry_IsValidState(t *testing.T) {
	r := Default()

	assert.True(t, r.IsValidState(IntakeID))
	assert.True(t, r.IsValidState(TerminalID))
	assert.True(t, r.IsValidState("deployment"))
	assert.False(t, r.IsValidState(""))
	assert.False(t, r.IsValidState("step99"))
}

func TestRegistry_Label(t *testing.T) {
	r := Default()

	assert.Equal(t, "Deployment Plan", r.Label("deployment"))
	assert.Equal(t, "Completion", r.Label(TerminalID))
	assert.Equal(t, "mystery", r.Label("mystery"))
}

func TestNewRegistry_Validation(t *testing.T) {
	intake := Step{ID: IntakeID, Label: "Getting Started"}

	tests := []struct {
		name    string
		defs    []Step
		wantErr string
	}{
		{name: "empty", defs: nil, wantErr: "must start with"},
		{name: "missing intake", defs: []Step{{ID: "a", Label: "A"}}, wantErr: "must start with"},
		{name: "intake only", defs: []Step{intake}, wantErr: "at least one step"},
		{name: "empty id", defs: []Step{intake, {Label: "A"}}, wantErr: "has no id"},
		{name: "reserved id", defs: []Step{intake, {ID: TerminalID, Label: "Done"}}, wantErr: "reserved"},
		{name: "empty label", defs: []Step{intake, {ID: "a"}}, wantErr: "has no label"},
		{name: "duplicate", defs: []Step{intake, {ID: "a", Label: "A"}, {ID: "a", Label: "B"}}, wantErr: "duplicate"},
		{name: "forward dependency", defs: []Step{intake, {ID: "a", Label: "A", DependsOn: "b"}, {ID: "b", Label: "B"}}, wantErr: "not an earlier step"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRegistry(tt.defs)
			require.Error(t, err)
			assert.Nil(t, r)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWithOverrides(t *testing.T) {
	defs, err := WithOverrides(DefaultSteps(), map[string]Override{
		"roadmap": {Label: "Plan", PromptTemplate: "Plan {prompt}"},
		"deployment": {Label: "Ship It"},
	})
	require.NoError(t, err)

	r, err := NewRegistry(defs)
	require.NoError(t, err)

	roadmap, _ := r.StepAt("roadmap")
	assert.Equal(t, "Plan", roadmap.Label)
	assert.Equal(t, "Plan {prompt}", roadmap.PromptTemplate)

	deploy, _ := r.StepAt("deployment")
	assert.Equal(t, "Ship It", deploy.Label)
	assert.Contains(t, deploy.PromptTemplate, "deployment plan")

	// Defaults are untouched
	original, _ := Default().StepAt("roadmap")
	assert.Equal(t, "Road Map", original.Label)
}

func TestWithOverrides_UnknownStep(t *testing.T) {
	_, err := WithOverrides(DefaultSteps(), map[string]Override{"nope": {Label: "x"}})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownStep))
}

func TestNewRegistryFromCatalog(t *testing.T) {
	c, err := manifest.ReadFromString(`id,label,prompt_template,depends_on
build,Build,"Build {prompt}",
review,Review,"Review {artifact}",build
`)
	require.NoError(t, err)

	r, err := NewRegistryFromCatalog(c)
	require.NoError(t, err)

	steps := r.Steps()
	require.Len(t, steps, 3)
	assert.Equal(t, IntakeID, steps[0].ID)
	assert.Equal(t, "build", r.First().ID)
	assert.Equal(t, TerminalID, r.NextID("review"))

	review, _ := r.StepAt("review")
	assert.Equal(t, "build", review.DependsOn)
}

func TestNewRegistryFromCatalog_BadDependency(t *testing.T) {
	c, err := manifest.ReadFromString("id,label,depends_on\nreview,Review,build\n")
	require.NoError(t, err)

	_, err = NewRegistryFromCatalog(c)
	assert.Error(t, err)
}
