package ui

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/mtcap-allowlist/internal/allowlist"
)

// Operation is a gateway operation that reports progress through observer.
type Operation func(observer allowlist.Observer) error

type eventMsg allowlist.Event

type operationDoneMsg struct{ err error }

// progressModel is a Bubble Tea model that redraws a Progress while an
// Operation runs in the background and exits when it returns.
type progressModel struct {
	progress *Progress
	spinner  spinner.Model
	err      error
	done     bool
}

func newProgressModel(p *Progress) progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = StepRunningStyle
	return progressModel{progress: p, spinner: s}
}

// Init implements tea.Model
func (m progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		m.progress.Apply(allowlist.Event(msg))
		return m, nil
	case operationDoneMsg:
		m.err = msg.err
		m.done = true
		if msg.err != nil {
			m.progress.Fail("failed")
		}
		return m, tea.Quit
	case tea.WindowSizeMsg:
		width := msg.Width
		if width > MaxContentWidth {
			width = MaxContentWidth
		}
		m.progress.SetWidth(width)
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model
func (m progressModel) View() string {
	view := m.progress.Render()
	if !m.done {
		view += "\n" + m.spinner.View() + "\n"
	} else {
		view += "\n"
	}
	return view
}

// RunWithProgress runs op while rendering its progress events. On a terminal
// the display is redrawn in place by Bubble Tea; elsewhere every step is
// written as a plain line so logs and pipes stay readable.
func RunWithProgress(out io.Writer, label string, op Operation) error {
	if out == nil {
		out = os.Stdout
	}
	p := NewProgress(label)

	if out != os.Stdout || !IsTerminal() {
		return runPlain(out, p, op)
	}

	program := tea.NewProgram(newProgressModel(p), tea.WithOutput(out), tea.WithInput(nil))

	go func() {
		err := op(func(ev allowlist.Event) {
			program.Send(eventMsg(ev))
		})
		program.Send(operationDoneMsg{err: err})
	}()

	final, err := program.Run()
	if err != nil {
		return fmt.Errorf("progress display: %w", err)
	}
	return final.(progressModel).err
}

// runPlain prints one line per announced step
func runPlain(out io.Writer, p *Progress, op Operation) error {
	start := time.Now()
	err := op(func(ev allowlist.Event) {
		p.Apply(ev)
		_, _ = fmt.Fprintf(out, "  [%d/%d] %s\n", ev.Done, ev.Total, ev.Step)
	})
	if err != nil {
		p.Fail(err.Error())
		return err
	}
	_, _ = fmt.Fprintf(out, "  done in %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}
