package ui

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/muurk/mtcap-allowlist/internal/gateway"
)

// RunnerConfig holds configuration for one gateway operation
type RunnerConfig struct {
	Title   string            // e.g., "Allowlist Sync"
	Command string            // e.g., "mtcap-cfg sync devices.yaml"
	Params  map[string]string // Parameters to display in header
	Output  io.Writer         // Output writer (default: os.Stdout)
}

// Runner orchestrates the header, progress and result output of a gateway
// operation.
type Runner struct {
	config RunnerConfig
	output io.Writer
	width  int
}

// NewRunner creates a new runner
func NewRunner(config RunnerConfig) *Runner {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	return &Runner{
		config: config,
		output: config.Output,
		width:  GetTerminalWidth(),
	}
}

// Run executes the operation. details, when non-nil, is called after success
// to fill the result box.
func (r *Runner) Run(op Operation, details func() map[string]string) error {
	start := time.Now()

	header := NewHeader(r.config.Title, r.config.Command, r.config.Params).SetWidth(r.width)
	_, _ = fmt.Fprintln(r.output, header.Render())
	_, _ = fmt.Fprintln(r.output)

	err := RunWithProgress(r.output, "", op)
	duration := time.Since(start).Round(time.Millisecond).String()

	_, _ = fmt.Fprintln(r.output)
	if err != nil {
		result := NewFailureResult(r.config.Title+" failed", err, gateway.TroubleshootingHint(err))
		result.AddDetail("Duration", duration)
		_, _ = fmt.Fprintln(r.output, result.SetWidth(r.width).Render())
		return err
	}

	var d map[string]string
	if details != nil {
		d = details()
	}
	result := NewSuccessResult(r.config.Title+" complete", d).AddDetail("Duration", duration)
	_, _ = fmt.Fprintln(r.output, result.SetWidth(r.width).Render())
	return nil
}
