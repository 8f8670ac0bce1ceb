package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/mtcap-allowlist/internal/allowlist"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"exact phrase", "CLEAR\n", true},
		{"phrase with spaces", "  CLEAR  \n", true},
		{"phrase without newline", "CLEAR", true},
		{"wrong case", "clear\n", false},
		{"empty answer", "\n", false},
		{"closed input", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got := Confirm(strings.NewReader(tt.input), &out, ClearConfirmation("192.168.2.1", 3))
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "CLEAR ALLOWLIST")
			if !tt.want && tt.input != "" {
				assert.Contains(t, out.String(), "Operation cancelled.")
			}
		})
	}
}

func TestClearConfirmation(t *testing.T) {
	c := ClearConfirmation("mtcap.local", 12)
	assert.Equal(t, "CLEAR", c.Phrase)
	require.NotEmpty(t, c.Warnings)
	assert.Contains(t, c.Warnings[0], "12")
	assert.Contains(t, c.Warnings[0], "mtcap.local")
}

func TestHeader_RenderSortsParams(t *testing.T) {
	out := NewHeader("Allowlist Sync", "mtcap-cfg sync", map[string]string{
		"Gateway": "10.0.0.1",
		"Devices": "4",
	}).SetWidth(80).Render()

	assert.Contains(t, out, "ALLOWLIST SYNC")
	assert.Less(t, strings.Index(out, "Devices:"), strings.Index(out, "Gateway:"))
}

func TestResult_Render(t *testing.T) {
	success := NewSuccessResult("Sync complete", map[string]string{"Added": "2"}).SetWidth(80).Render()
	assert.Contains(t, success, "SUCCESS")
	assert.Contains(t, success, "Added:")

	failure := NewFailureResult("Sync failed", errors.New("boom"), []string{"Check the gateway"}).SetWidth(80).Render()
	assert.Contains(t, failure, "FAILED")
	assert.Contains(t, failure, "boom")
	assert.Contains(t, failure, "Troubleshooting:")

	warning := NewWarningResult("Nothing to do", nil).SetWidth(80).Render()
	assert.Contains(t, warning, "WARNING")
}

func TestRenderTable(t *testing.T) {
	out := RenderTable([]string{"DEVEUI", "CLASS"}, [][]string{
		{"00-80-00-00-00-01-5b-2c", "A"},
	})
	assert.Contains(t, out, "DEVEUI")
	assert.Contains(t, out, "00-80-00-00-00-01-5b-2c")
}

func TestRunWithProgress_Plain(t *testing.T) {
	var out bytes.Buffer
	err := RunWithProgress(&out, "", func(observe allowlist.Observer) error {
		observe(allowlist.Event{Step: "Fetching allowlist", Done: 0, Total: 2})
		observe(allowlist.Event{Step: "Committing", Done: 1, Total: 2})
		return nil
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "[0/2] Fetching allowlist")
	assert.Contains(t, out.String(), "[1/2] Committing")
	assert.Contains(t, out.String(), "done in")
}

func TestRunWithProgress_Error(t *testing.T) {
	var out bytes.Buffer
	want := errors.New("commit failed")
	err := RunWithProgress(&out, "", func(observe allowlist.Observer) error {
		observe(allowlist.Event{Step: "Committing", Done: 0, Total: 1})
		return want
	})
	assert.ErrorIs(t, err, want)
	assert.NotContains(t, out.String(), "done in")
}

func TestRunner_Run(t *testing.T) {
	var out bytes.Buffer
	runner := NewRunner(RunnerConfig{
		Title:   "Allowlist Add",
		Command: "mtcap-cfg add devices.yaml",
		Output:  &out,
	})

	err := runner.Run(func(observe allowlist.Observer) error {
		observe(allowlist.Event{Step: "Adding devices", Done: 0, Total: 1})
		return nil
	}, func() map[string]string { return map[string]string{"Added": "1"} })

	require.NoError(t, err)
	assert.Contains(t, out.String(), "ALLOWLIST ADD")
	assert.Contains(t, out.String(), "Allowlist Add complete")
	assert.Contains(t, out.String(), "Duration:")
}

func TestPasswordModel(t *testing.T) {
	var m tea.Model = newPasswordModel("Password: ")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s3cret")})

	view := m.View()
	assert.NotContains(t, view, "s3cret")
	assert.Contains(t, view, "••••••")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	pm := m.(passwordModel)
	assert.True(t, pm.submitted)
	assert.Equal(t, "s3cret", pm.input.Value())
	assert.Empty(t, pm.View())
}

func TestPasswordModel_Cancel(t *testing.T) {
	var m tea.Model = newPasswordModel("Password: ")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	pm := m.(passwordModel)
	assert.True(t, pm.cancelled)
	assert.False(t, pm.submitted)
}
