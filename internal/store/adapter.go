package store

import (
	"context"
	"encoding/json"
	"log/slog"

	"sdlcwizard/internal/steps"
)

// Persisted field keys.
const (
	KeyCredential         = "sdlc_api_key"
	KeyProjectDescription = "sdlc_project_prompt"
	KeyCurrentStep        = "sdlc_current_step"
	KeyApproved           = "sdlc_approved_states"
	KeyFeedback           = "sdlc_feedback_states"
	KeyGeneratedContent   = "sdlc_generated_content"
)

// AllKeys lists every persisted field.
var AllKeys = []string{
	KeyCredential,
	KeyProjectDescription,
	KeyCurrentStep,
	KeyApproved,
	KeyFeedback,
	KeyGeneratedContent,
}

// Adapter provides typed access to the persisted session fields.
//
// Reads that fail or find corrupt data return the field's default (empty
// string, empty map, or the intake step id). Writes that fail are dropped.
// Both are logged at WARN.
type Adapter struct {
	backend Backend
	logger  *slog.Logger
}

// NewAdapter wraps a backend. A nil logger discards warnings.
func NewAdapter(backend Backend, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{backend: backend, logger: logger}
}

// Credential returns the stored API credential, or "".
func (a *Adapter) Credential(ctx context.Context) string {
	return a.getString(ctx, KeyCredential, "")
}

// SetCredential stores the API credential.
func (a *Adapter) SetCredential(ctx context.Context, v string) {
	a.set(ctx, KeyCredential, v)
}

// ProjectDescription returns the stored project description, or "".
func (a *Adapter) ProjectDescription(ctx context.Context) string {
	return a.getString(ctx, KeyProjectDescription, "")
}

// SetProjectDescription stores the project description.
func (a *Adapter) SetProjectDescription(ctx context.Context, v string) {
	a.set(ctx, KeyProjectDescription, v)
}

// CurrentStep returns the stored step id, or the intake id when absent.
func (a *Adapter) CurrentStep(ctx context.Context) string {
	return a.getString(ctx, KeyCurrentStep, steps.IntakeID)
}

// SetCurrentStep stores the current step id.
func (a *Adapter) SetCurrentStep(ctx context.Context, id string) {
	a.set(ctx, KeyCurrentStep, id)
}

// Approved returns the approval map. Never nil.
func (a *Adapter) Approved(ctx context.Context) map[string]bool {
	m := make(map[string]bool)
	if !a.getJSON(ctx, KeyApproved, &m) || m == nil {
		return make(map[string]bool)
	}
	return m
}

// SetApproved stores the approval map.
func (a *Adapter) SetApproved(ctx context.Context, m map[string]bool) {
	a.setJSON(ctx, KeyApproved, m)
}

// Feedback returns pending feedback per step. Cleared entries are omitted.
// Never nil.
func (a *Adapter) Feedback(ctx context.Context) map[string]string {
	var raw map[string]*string
	out := make(map[string]string)
	if !a.getJSON(ctx, KeyFeedback, &raw) {
		return out
	}
	for id, v := range raw {
		if v != nil && *v != "" {
			out[id] = *v
		}
	}
	return out
}

// SetFeedback stores pending feedback. Empty strings are written as null.
func (a *Adapter) SetFeedback(ctx context.Context, m map[string]string) {
	raw := make(map[string]*string, len(m))
	for id, v := range m {
		if v == "" {
			raw[id] = nil
			continue
		}
		text := v
		raw[id] = &text
	}
	a.setJSON(ctx, KeyFeedback, raw)
}

// GeneratedContent returns the generated artifact per step. Never nil.
func (a *Adapter) GeneratedContent(ctx context.Context) map[string]string {
	m := make(map[string]string)
	if !a.getJSON(ctx, KeyGeneratedContent, &m) || m == nil {
		return make(map[string]string)
	}
	return m
}

// SetGeneratedContent stores the whole content map.
func (a *Adapter) SetGeneratedContent(ctx context.Context, m map[string]string) {
	a.setJSON(ctx, KeyGeneratedContent, m)
}

// SaveGeneratedContent stores content for one step, keeping the others.
func (a *Adapter) SaveGeneratedContent(ctx context.Context, stepID, content string) {
	m := a.GeneratedContent(ctx)
	m[stepID] = content
	a.SetGeneratedContent(ctx, m)
}

// RemoveGeneratedContent drops the content entry for one step.
func (a *Adapter) RemoveGeneratedContent(ctx context.Context, stepID string) {
	m := a.GeneratedContent(ctx)
	if _, ok := m[stepID]; !ok {
		return
	}
	delete(m, stepID)
	a.SetGeneratedContent(ctx, m)
}

// HasContentFor reports whether non-empty content is stored for stepID.
func (a *Adapter) HasContentFor(ctx context.Context, stepID string) bool {
	return a.GeneratedContent(ctx)[stepID] != ""
}

// ClearAll deletes every persisted field.
func (a *Adapter) ClearAll(ctx context.Context) {
	if err := a.backend.Delete(ctx, AllKeys...); err != nil {
		a.logger.Warn("failed to clear session storage", "error", err)
	}
}

func (a *Adapter) getString(ctx context.Context, key, def string) string {
	v, found, err := a.backend.Get(ctx, key)
	if err != nil {
		a.logger.Warn("failed to read session field", "key", key, "error", err)
		return def
	}
	if !found {
		return def
	}
	return v
}

// getJSON decodes the field into dst. It returns false when the field is
// missing or unreadable, in which case dst must not be trusted.
func (a *Adapter) getJSON(ctx context.Context, key string, dst any) bool {
	v, found, err := a.backend.Get(ctx, key)
	if err != nil {
		a.logger.Warn("failed to read session field", "key", key, "error", err)
		return false
	}
	if !found || v == "" {
		return false
	}
	if err := json.Unmarshal([]byte(v), dst); err != nil {
		a.logger.Warn("corrupt session field, using default", "key", key, "error", err)
		return false
	}
	return true
}

func (a *Adapter) set(ctx context.Context, key, value string) {
	if err := a.backend.Set(ctx, key, value); err != nil {
		a.logger.Warn("failed to write session field", "key", key, "error", err)
	}
}

func (a *Adapter) setJSON(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		a.logger.Warn("failed to encode session field", "key", key, "error", err)
		return
	}
	a.set(ctx, key, string(data))
}
