package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/muurk/mtcap-allowlist/internal/allowlist"
	"github.com/muurk/mtcap-allowlist/internal/config"
	"github.com/muurk/mtcap-allowlist/internal/ui"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// format resolves --format, then the registry preference
func format() string {
	if outputFmt != "" {
		return outputFmt
	}
	if registry, err := config.LoadRegistry(); err == nil && registry.Preferences != nil {
		switch registry.Preferences.OutputFormat {
		case formatJSON, formatYAML:
			return registry.Preferences.OutputFormat
		}
	}
	return formatText
}

// printStructured writes v as JSON or YAML and reports whether it did.
// In text format it does nothing.
func printStructured(v any) (bool, error) {
	switch format() {
	case formatJSON:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	default:
		return false, nil
	}
}

// shownError marks an error already rendered in a failure box
type shownError struct{ err error }

func (e *shownError) Error() string { return e.err.Error() }
func (e *shownError) Unwrap() error { return e.err }

func resultShown(err error) bool {
	var shown *shownError
	return errors.As(err, &shown)
}

// runOperation renders a mutating operation with header, progress and result.
// Structured formats skip the decoration and run op silently.
func runOperation(s *session, title, command string, params map[string]string, op ui.Operation, details func() map[string]string) error {
	if format() != formatText {
		return op(nil)
	}

	if params == nil {
		params = map[string]string{}
	}
	params["Gateway"] = s.target.host

	runner := ui.NewRunner(ui.RunnerConfig{
		Title:   title,
		Command: command,
		Params:  params,
	})
	if err := runner.Run(op, details); err != nil {
		return &shownError{err: err}
	}
	return nil
}

// singleStep adapts a one-shot reconciler call to a reported Operation
func singleStep(step string, fn func() error) ui.Operation {
	return func(observe allowlist.Observer) error {
		if observe != nil {
			observe(allowlist.Event{Step: step, Done: 0, Total: 1})
		}
		if err := fn(); err != nil {
			return err
		}
		if observe != nil {
			observe(allowlist.Event{Step: "Committed", Done: 1, Total: 1})
		}
		return nil
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	if strings.HasSuffix(word, "y") {
		return fmt.Sprintf("%d %sies", n, strings.TrimSuffix(word, "y"))
	}
	return fmt.Sprintf("%d %ss", n, word)
}
