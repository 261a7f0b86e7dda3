// Package output renders wizard state for the terminal.
//
// [Printer] is used by every CLI command. It also implements
// workflow.Notifier so controller notifications appear as status lines.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"sdlcwizard/internal/steps"
	"sdlcwizard/internal/workflow"
)

// Default preview limits used when none are configured.
const (
	DefaultTruncateLines  = 20
	DefaultTruncateLength = 100
)

// Step status markers.
const (
	MarkApproved = "✓"
	MarkContent  = "●"
	MarkFeedback = "✎"
	MarkPending  = "○"
	MarkCurrent  = "▶"
)

// Printer writes formatted output to a writer.
type Printer struct {
	out            io.Writer
	truncateLines  int
	truncateLength int
}

// NewPrinter returns a printer writing to stdout.
func NewPrinter() *Printer {
	return NewPrinterWithWriter(os.Stdout)
}

// NewPrinterWithWriter returns a printer writing to w. Tests pass a buffer.
func NewPrinterWithWriter(w io.Writer) *Printer {
	return &Printer{
		out:            w,
		truncateLines:  DefaultTruncateLines,
		truncateLength: DefaultTruncateLength,
	}
}

// SetTruncation changes the limits used by [Printer.Preview]. Non-positive
// values keep the current limit.
func (p *Printer) SetTruncation(lines, length int) {
	if lines > 0 {
		p.truncateLines = lines
	}
	if length > 0 {
		p.truncateLength = length
	}
}

// Notify implements workflow.Notifier.
func (p *Printer) Notify(level workflow.Level, message string) {
	switch level {
	case workflow.LevelSuccess:
		fmt.Fprintln(p.out, SuccessStyle.Render("✓ "+message))
	case workflow.LevelWarning:
		fmt.Fprintln(p.out, WarningStyle.Render("! "+message))
	case workflow.LevelError:
		fmt.Fprintln(p.out, ErrorStyle.Render("✗ "+message))
	default:
		fmt.Fprintln(p.out, InfoStyle.Render("● "+message))
	}
}

// Success prints a success line.
func (p *Printer) Success(format string, args ...any) {
	p.Notify(workflow.LevelSuccess, fmt.Sprintf(format, args...))
}

// Error prints an error line.
func (p *Printer) Error(format string, args ...any) {
	p.Notify(workflow.LevelError, fmt.Sprintf(format, args...))
}

// Info prints a neutral line.
func (p *Printer) Info(format string, args ...any) {
	p.Notify(workflow.LevelInfo, fmt.Sprintf(format, args...))
}

// Text prints s verbatim followed by a newline.
func (p *Printer) Text(s string) {
	fmt.Fprintln(p.out, s)
}

// Header prints the session summary shown above the step list.
func (p *Printer) Header(reg *steps.Registry, session string, s workflow.State) {
	fmt.Fprintln(p.out, TitleStyle.Render("SDLC Wizard"))
	fmt.Fprintf(p.out, "  Session: %s\n", session)
	if s.ProjectDescription != "" {
		fmt.Fprintf(p.out, "  Project: %s\n", truncate(oneLine(s.ProjectDescription), p.truncateLength))
	}
	fmt.Fprintf(p.out, "  Current: %s\n\n", reg.Label(s.CurrentStep))
}

// StepList prints every step with its status marker. Steps the user cannot
// navigate to yet are shown as locked.
func (p *Printer) StepList(reg *steps.Registry, s workflow.State) {
	for i, step := range reg.Steps() {
		cursor := " "
		if step.ID == s.CurrentStep {
			cursor = MarkCurrent
		}
		line := fmt.Sprintf("%s %s %2d. %-18s %s", cursor, StepMarker(s, step.ID), i, step.ID, step.Label)

		switch {
		case step.ID == s.CurrentStep:
			line = CurrentStyle.Render(line)
		case !workflow.IsAccessible(reg, s, step.ID):
			line = MutedStyle.Render(line + "  (locked)")
		case s.IsApproved(step.ID):
			line = SuccessStyle.Render(line)
		case s.Record(step.ID).Feedback != "":
			line = WarningStyle.Render(line)
		}
		fmt.Fprintln(p.out, line)
	}
	if steps.IsTerminal(s.CurrentStep) {
		fmt.Fprintln(p.out, SuccessStyle.Render("\n"+MarkApproved+" All steps approved"))
	}
}

// StepMarker returns the status marker for id.
func StepMarker(s workflow.State, id string) string {
	r := s.Record(id)
	switch {
	case r.Approved:
		return MarkApproved
	case r.Feedback != "":
		return MarkFeedback
	case r.Content != "":
		return MarkContent
	default:
		return MarkPending
	}
}

// StepContent prints the full content of a step inside a box.
func (p *Printer) StepContent(label, content string) {
	fmt.Fprintln(p.out, BoxStyle.Render(TitleStyle.Render(label)+"\n\n"+content))
}

// Preview prints a step's content truncated to the configured number of
// lines and line length. Long content keeps its head and tail.
func (p *Printer) Preview(label, content string) {
	fmt.Fprintln(p.out, TitleStyle.Render(label))
	fmt.Fprintln(p.out, Truncate(content, p.truncateLines, p.truncateLength))
}

// Truncate shortens content to at most maxLines lines, keeping the first and
// last halves with an omission marker between them. Each line is cut to
// maxLength runes.
func Truncate(content string, maxLines, maxLength int) string {
	lines := strings.Split(content, "\n")
	if maxLines > 0 && len(lines) > maxLines {
		head := maxLines / 2
		tail := maxLines - head
		omitted := len(lines) - maxLines
		kept := make([]string, 0, maxLines+1)
		kept = append(kept, lines[:head]...)
		kept = append(kept, fmt.Sprintf("  ... (%d lines omitted) ...", omitted))
		kept = append(kept, lines[len(lines)-tail:]...)
		lines = kept
	}
	for i, l := range lines {
		lines[i] = truncate(l, maxLength)
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 3 || len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
