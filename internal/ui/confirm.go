package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Confirmation describes a destructive operation the user has to acknowledge
// by typing Phrase.
type Confirmation struct {
	Title    string
	Warnings []string
	Note     string
	Phrase   string
}

// ConfirmDangerousOperation displays the warning box on stdout and reads the
// answer from stdin. Returns true only if the user typed the phrase.
func ConfirmDangerousOperation(c Confirmation) bool {
	return Confirm(os.Stdin, os.Stdout, c)
}

// Confirm is ConfirmDangerousOperation with explicit streams
func Confirm(in io.Reader, out io.Writer, c Confirmation) bool {
	width := GetTerminalWidth()

	lines := []string{
		"",
		lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true).
			Render(fmt.Sprintf("   %s  WARNING  ─  %s", WarningMarker, c.Title)),
		"",
	}

	bulletStyle := lipgloss.NewStyle().Foreground(TextColor)
	for _, warning := range c.Warnings {
		lines = append(lines, bulletStyle.Render("   • "+warning))
	}
	lines = append(lines, "")

	if c.Note != "" {
		noteStyle := lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true).
			Width(width - 12).
			PaddingLeft(3)
		lines = append(lines, noteStyle.Render(c.Note), "")
	}

	_, _ = fmt.Fprintln(out, resultBoxStyle(width, WarningColor).Render(strings.Join(lines, "\n")))
	_, _ = fmt.Fprintln(out)

	promptStyle := lipgloss.NewStyle().
		Foreground(WarningColor).
		Bold(true)
	_, _ = fmt.Fprint(out, promptStyle.Render(fmt.Sprintf("To proceed, type %q and press Enter: ", c.Phrase)))

	input, err := bufio.NewReader(in).ReadString('\n')
	_, _ = fmt.Fprintln(out)
	if err != nil && input == "" {
		return false
	}

	if strings.TrimSpace(input) == c.Phrase {
		return true
	}

	_, _ = fmt.Fprintln(out, lipgloss.NewStyle().Foreground(MutedColor).Render("  Operation cancelled."))
	_, _ = fmt.Fprintln(out)
	return false
}

// ClearConfirmation is the preset shown before emptying a gateway allowlist
func ClearConfirmation(host string, entries int) Confirmation {
	return Confirmation{
		Title: "CLEAR ALLOWLIST",
		Warnings: []string{
			fmt.Sprintf("All %d allowlist entries on %s will be deleted", entries, host),
			"Every active device session will be evicted",
			"Devices must be re-added before they can join again",
		},
		Note:   "The change is committed to the gateway immediately and cannot be undone from this tool.",
		Phrase: "CLEAR",
	}
}

// PruneConfirmation is the preset shown before removing stale devices
func PruneConfirmation(host string, devices int, cutoff string) Confirmation {
	return Confirmation{
		Title: "PRUNE ALLOWLIST",
		Warnings: []string{
			fmt.Sprintf("%d devices on %s not seen since %s will be removed", devices, host, cutoff),
			"Their active sessions will be evicted",
		},
		Phrase: "PRUNE",
	}
}
