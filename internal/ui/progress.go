package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/mtcap-allowlist/internal/allowlist"
)

// StepStatus represents the current state of a step
type StepStatus int

const (
	StepPending  StepStatus = iota // Not yet started
	StepRunning                    // Currently executing
	StepComplete                   // Successfully completed
	StepFailed                     // Failed
)

// Step represents a single step in a multi-step operation
type Step struct {
	Name    string
	Status  StepStatus
	Message string // Optional note, e.g. "3 sessions"
}

// Progress tracks a reconciler operation from its progress events.
// Steps are appended as they are announced; the running one is always last.
type Progress struct {
	Label   string
	Steps   []Step
	Done    int
	Total   int
	Width   int
	ShowBar bool
	bar     progress.Model
}

// NewProgress creates a new progress display
func NewProgress(label string) *Progress {
	p := &Progress{
		Label:   label,
		ShowBar: true,
	}
	p.SetWidth(GetTerminalWidth())
	return p
}

// SetWidth sets the terminal width for responsive rendering
func (p *Progress) SetWidth(width int) *Progress {
	p.Width = width
	barWidth := width - 20 // Leave room for percentage and step count
	if barWidth < 20 {
		barWidth = 20
	}
	if barWidth > 50 {
		barWidth = 50
	}
	p.bar = progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(barWidth),
	)
	return p
}

// Apply records an event: the previous running step completes and the event's
// step starts. An event with Done == Total finishes the operation.
func (p *Progress) Apply(ev allowlist.Event) {
	if n := len(p.Steps); n > 0 && p.Steps[n-1].Status == StepRunning {
		p.Steps[n-1].Status = StepComplete
	}

	p.Done = ev.Done
	p.Total = ev.Total

	status := StepRunning
	if ev.Total > 0 && ev.Done >= ev.Total {
		status = StepComplete
	}
	p.Steps = append(p.Steps, Step{Name: ev.Step, Status: status})
}

// Fail marks the running step as failed
func (p *Progress) Fail(message string) {
	if n := len(p.Steps); n > 0 && p.Steps[n-1].Status == StepRunning {
		p.Steps[n-1].Status = StepFailed
		p.Steps[n-1].Message = message
	}
}

// Percent is the completed fraction in [0, 1]
func (p *Progress) Percent() float64 {
	if p.Total <= 0 {
		return 0
	}
	pct := float64(p.Done) / float64(p.Total)
	if pct > 1 {
		return 1
	}
	return pct
}

// Render returns the styled progress display as a string
func (p *Progress) Render() string {
	var b strings.Builder

	if p.Label != "" {
		b.WriteString(ProgressLabelStyle.Render(p.Label))
		b.WriteString("\n\n")
	}

	if p.ShowBar {
		b.WriteString(p.renderProgressBar())
		b.WriteString("\n\n")
	}

	lines := make([]string, 0, len(p.Steps))
	for _, step := range p.Steps {
		lines = append(lines, renderStepLine(step))
	}
	b.WriteString(strings.Join(lines, "\n"))

	return b.String()
}

func (p *Progress) renderProgressBar() string {
	return lipgloss.NewStyle().
		PaddingLeft(2).
		Render(fmt.Sprintf("%s  %3.0f%%  [%d/%d]", p.bar.ViewAs(p.Percent()), p.Percent()*100, p.Done, p.Total))
}

// renderStepLine renders a single step with its marker in a fixed column
func renderStepLine(step Step) string {
	var marker string
	var style lipgloss.Style

	switch step.Status {
	case StepComplete:
		marker, style = StepMarkerComplete, StepCompleteStyle
	case StepRunning:
		marker, style = StepMarkerRunning, StepRunningStyle
	case StepFailed:
		marker, style = FailureMarker, ErrorTitleStyle
	default:
		marker, style = StepMarkerPending, StepPendingStyle
	}

	padding := 45 - lipgloss.Width(step.Name)
	if padding < 1 {
		padding = 1
	}

	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(style.Render(step.Name))
	b.WriteString(strings.Repeat(" ", padding))
	b.WriteString(style.Render(marker))
	if step.Message != "" {
		b.WriteString("  ")
		b.WriteString(StepNoteStyle.Render("(" + step.Message + ")"))
	}
	return b.String()
}

// String implements fmt.Stringer
func (p *Progress) String() string {
	return p.Render()
}
