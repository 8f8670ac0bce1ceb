package ui

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrPromptCancelled is returned when the user aborts a prompt
var ErrPromptCancelled = errors.New("prompt cancelled")

type passwordKeyMap struct {
	Submit key.Binding
	Cancel key.Binding
}

var passwordKeys = passwordKeyMap{
	Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
	Cancel: key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "cancel")),
}

// passwordModel reads one masked line
type passwordModel struct {
	input     textinput.Model
	submitted bool
	cancelled bool
}

func newPasswordModel(prompt string) passwordModel {
	ti := textinput.New()
	ti.Prompt = prompt
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.PromptStyle = HeaderParamKeyStyle
	ti.Focus()
	return passwordModel{input: ti}
}

// Init implements tea.Model
func (m passwordModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model
func (m passwordModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, passwordKeys.Submit):
			m.submitted = true
			return m, tea.Quit
		case key.Matches(msg, passwordKeys.Cancel):
			m.cancelled = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model
func (m passwordModel) View() string {
	if m.submitted || m.cancelled {
		return ""
	}
	return m.input.View() + "\n"
}

// PromptPassword asks for a password on the terminal without echoing it.
func PromptPassword(prompt string) (string, error) {
	return promptPassword(os.Stdin, os.Stdout, prompt)
}

func promptPassword(in io.Reader, out io.Writer, prompt string) (string, error) {
	program := tea.NewProgram(newPasswordModel(prompt), tea.WithInput(in), tea.WithOutput(out))
	final, err := program.Run()
	if err != nil {
		return "", fmt.Errorf("password prompt: %w", err)
	}

	m := final.(passwordModel)
	if m.cancelled || !m.submitted {
		return "", ErrPromptCancelled
	}
	return m.input.Value(), nil
}
