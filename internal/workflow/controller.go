package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"sdlcwizard/internal/steps"
	"sdlcwizard/internal/store"
)

// Sentinel errors returned by [Controller] operations.
var (
	// ErrInvalidIntake indicates a missing credential or project description.
	ErrInvalidIntake = errors.New("invalid intake")

	// ErrNoContent indicates an operation that needs generated content on a
	// step that has none.
	ErrNoContent = errors.New("step has no content")

	// ErrNavigationDenied indicates a jump to a step that is not reachable yet.
	ErrNavigationDenied = errors.New("navigation denied")

	// ErrEmptyFeedback indicates feedback with no text.
	ErrEmptyFeedback = errors.New("feedback is empty")
)

// Ticket identifies the state a generation was started against.
//
// [Controller.Reset] advances the epoch and [Controller.SubmitFeedback] or
// [Controller.UpdateContent] advance the step's revision. A result carrying
// an older ticket is discarded.
type Ticket struct {
	Epoch    uint64
	Step     string
	Revision uint64
}

// Option configures a Controller.
type Option func(*Controller)

// WithNotifier sets where user-visible notifications go.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) {
		c.notifier = n
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// Controller owns the workflow state of one session.
//
// All methods are safe for concurrent use. Each mutating operation persists
// the fields it changed before returning.
type Controller struct {
	mu        sync.Mutex
	reg       *steps.Registry
	store     *store.Adapter
	notifier  Notifier
	logger    *slog.Logger
	state     State
	epoch     uint64
	revisions map[string]uint64
}

// NewController creates a controller and rehydrates it from the store.
func NewController(ctx context.Context, reg *steps.Registry, adapter *store.Adapter, opts ...Option) *Controller {
	c := &Controller{
		reg:       reg,
		store:     adapter,
		notifier:  discardNotifier{},
		logger:    slog.New(slog.DiscardHandler),
		state:     newState(),
		revisions: make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.load(ctx)
	return c
}

// Registry returns the step registry the controller was built with.
func (c *Controller) Registry() *steps.Registry {
	return c.reg
}

// load replaces in-memory state with what the store holds. Entries for
// unknown steps are ignored and an approval without content is dropped.
func (c *Controller) load(ctx context.Context) {
	s := newState()
	s.Credential = c.store.Credential(ctx)
	s.ProjectDescription = c.store.ProjectDescription(ctx)
	s.CurrentStep = c.store.CurrentStep(ctx)
	if !c.reg.IsValidState(s.CurrentStep) {
		c.logger.Warn("stored current step is not valid, returning to intake", "step", s.CurrentStep)
		s.CurrentStep = steps.IntakeID
	}

	content := c.store.GeneratedContent(ctx)
	feedback := c.store.Feedback(ctx)
	for id, approved := range c.store.Approved(ctx) {
		if !approved {
			continue
		}
		if strings.TrimSpace(content[id]) == "" {
			c.logger.Warn("dropping stored approval for step without content", "step", id)
			continue
		}
		c.setRecord(&s, id, func(r *StepRecord) { r.Approved = true })
	}
	for id, text := range content {
		c.setRecord(&s, id, func(r *StepRecord) { r.Content = text })
	}
	for id, text := range feedback {
		c.setRecord(&s, id, func(r *StepRecord) { r.Feedback = text })
	}

	c.state = s
}

func (c *Controller) setRecord(s *State, id string, fn func(*StepRecord)) {
	if _, ok := c.reg.StepAt(id); !ok {
		c.logger.Debug("ignoring stored entry for unknown step", "step", id)
		return
	}
	r := s.Records[id]
	fn(&r)
	s.Records[id] = r
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state.Clone()
}

// ValidateIntake checks the intake form. It is called before [Controller.Start].
func ValidateIntake(credential, description string) error {
	if strings.TrimSpace(credential) == "" {
		return fmt.Errorf("%w: API key is required", ErrInvalidIntake)
	}
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("%w: project description is required", ErrInvalidIntake)
	}
	return nil
}

// Start records the credential and project description and moves to the
// first step. Inputs are assumed valid; see [ValidateIntake].
func (c *Controller) Start(ctx context.Context, credential, description string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Credential = credential
	c.state.ProjectDescription = description
	c.state.CurrentStep = c.reg.First().ID

	c.store.SetCredential(ctx, credential)
	c.store.SetProjectDescription(ctx, description)
	c.store.SetCurrentStep(ctx, c.state.CurrentStep)

	c.logger.Info("workflow started", "step", c.state.CurrentStep)
}

// Approve marks id approved and advances to the following step, or to the
// terminal state after the last one. A step without content cannot be
// approved and the state is left unchanged.
func (c *Controller) Approve(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkStep(id); err != nil {
		return err
	}
	r := c.state.Records[id]
	if !c.state.HasContent(id) {
		return fmt.Errorf("cannot approve %q: %w", id, ErrNoContent)
	}

	r.Approved = true
	c.state.Records[id] = r
	c.state.CurrentStep = c.reg.NextID(id)

	c.store.SetApproved(ctx, c.approvedMap())
	c.store.SetCurrentStep(ctx, c.state.CurrentStep)

	c.logger.Info("step approved", "step", id, "next", c.state.CurrentStep)
	return nil
}

// SubmitFeedback stores revision notes for id, clearing its approval and
// content so the step is generated again with the feedback included.
func (c *Controller) SubmitFeedback(ctx context.Context, id, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkStep(id); err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmptyFeedback
	}

	c.state.Records[id] = StepRecord{Feedback: text}
	c.revisions[id]++

	c.store.SetFeedback(ctx, c.feedbackMap())
	c.store.SetApproved(ctx, c.approvedMap())
	c.store.RemoveGeneratedContent(ctx, id)

	c.logger.Info("feedback submitted", "step", id, "revision", c.revisions[id])
	return nil
}

// NavigateTo makes id the current step. Intake is always reachable; any
// other step must have content, be approved, or already be current.
// A refused jump notifies the user and returns [ErrNavigationDenied].
func (c *Controller) NavigateTo(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.canNavigate(id) {
		c.notifier.Notify(LevelError, fmt.Sprintf("Complete the previous steps to access %s", c.reg.Label(id)))
		return fmt.Errorf("%w: %s", ErrNavigationDenied, id)
	}

	c.state.CurrentStep = id
	c.store.SetCurrentStep(ctx, id)

	if c.state.HasContent(id) {
		c.notifier.Notify(LevelSuccess, fmt.Sprintf("Navigated to %s", c.reg.Label(id)))
	}
	return nil
}

func (c *Controller) canNavigate(id string) bool {
	if steps.IsIntake(id) || id == c.state.CurrentStep {
		return true
	}
	if _, ok := c.reg.StepAt(id); !ok {
		return false
	}
	return c.state.HasContent(id) || c.state.IsApproved(id)
}

// Reset discards the whole session, credential included, and returns to
// intake. In-flight generations started before the reset are discarded when
// they complete.
func (c *Controller) Reset(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = newState()
	c.epoch++
	c.revisions = make(map[string]uint64)
	c.store.ClearAll(ctx)

	c.logger.Info("workflow reset", "epoch", c.epoch)
}

// UpdateContent replaces the content of a step that already has some, as
// when the user edits a generated artifact by hand. Approval is kept.
func (c *Controller) UpdateContent(ctx context.Context, id, content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkStep(id); err != nil {
		return err
	}
	r := c.state.Records[id]
	if !c.state.HasContent(id) || strings.TrimSpace(content) == "" {
		return fmt.Errorf("cannot edit %q: %w", id, ErrNoContent)
	}

	r.Content = content
	c.state.Records[id] = r
	c.revisions[id]++
	c.store.SaveGeneratedContent(ctx, id, content)

	c.notifier.Notify(LevelSuccess, fmt.Sprintf("%s updated", c.reg.Label(id)))
	return nil
}

// ConsumeFeedback removes and returns the pending feedback for id together
// with the ticket a generation for id must present to
// [Controller.RecordGeneration].
func (c *Controller) ConsumeFeedback(ctx context.Context, id string) (string, Ticket) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := c.state.Records[id]
	text := r.Feedback
	if text != "" {
		r.Feedback = ""
		c.state.Records[id] = r

		m := c.feedbackMap()
		m[id] = ""
		c.store.SetFeedback(ctx, m)
	}
	return text, c.ticketLocked(id)
}

// Ticket returns the current ticket for id.
func (c *Controller) Ticket(id string) Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.ticketLocked(id)
}

func (c *Controller) ticketLocked(id string) Ticket {
	return Ticket{Epoch: c.epoch, Step: id, Revision: c.revisions[id]}
}

// RecordGeneration stores generated content for the ticket's step. It
// returns false, leaving state untouched, when the ticket is stale.
//
// The write is keyed by step, so a result lands on its step even when the
// user has navigated elsewhere in the meantime.
func (c *Controller) RecordGeneration(ctx context.Context, t Ticket, content string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t != c.ticketLocked(t.Step) {
		c.logger.Warn("discarding stale generation result",
			"step", t.Step, "epoch", t.Epoch, "revision", t.Revision,
			"current_epoch", c.epoch, "current_revision", c.revisions[t.Step])
		return false
	}
	if _, ok := c.reg.StepAt(t.Step); !ok || steps.IsIntake(t.Step) {
		c.logger.Warn("discarding generation result for non-generating step", "step", t.Step)
		return false
	}

	r := c.state.Records[t.Step]
	r.Content = content
	c.state.Records[t.Step] = r
	c.store.SaveGeneratedContent(ctx, t.Step, content)
	return true
}

// checkStep rejects ids that are unknown or are the intake/terminal
// sentinels.
func (c *Controller) checkStep(id string) error {
	if _, ok := c.reg.StepAt(id); !ok || steps.IsIntake(id) {
		return fmt.Errorf("%w: %q", steps.ErrUnknownStep, id)
	}
	return nil
}

func (c *Controller) approvedMap() map[string]bool {
	m := make(map[string]bool)
	for id, r := range c.state.Records {
		if r.Approved {
			m[id] = true
		}
	}
	return m
}

func (c *Controller) feedbackMap() map[string]string {
	m := make(map[string]string)
	for id, r := range c.state.Records {
		if r.Feedback != "" {
			m[id] = r.Feedback
		}
	}
	return m
}
