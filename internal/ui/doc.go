// Package ui renders the terminal output of the mtcap-cfg CLI.
//
// Components are built with Lipgloss and follow a "run once and exit"
// pattern:
//
//   - Header: banner showing the operation and its parameters
//   - Progress: bar and step list fed by allowlist progress events
//   - Result: success, warning or failure box, with troubleshooting tips
//   - Table: device and profile listings
//
// Runner ties them together for a gateway operation:
//
//	runner := ui.NewRunner(ui.RunnerConfig{
//	    Title:   "Allowlist Sync",
//	    Command: "mtcap-cfg sync devices.yaml",
//	    Params:  map[string]string{"Gateway": host},
//	})
//	err := runner.Run(func(observe allowlist.Observer) error {
//	    rec.Observer = observe
//	    report, err = rec.Sync(devices)
//	    return err
//	}, nil)
//
// On a terminal the progress display is a Bubble Tea program redrawn in
// place. When stdout is redirected each step is printed as a plain line.
//
// Interactive input (the destructive-operation confirmation and the masked
// password prompt) also lives here.
//
// Logging is controlled by MTCAP_LOG_LEVEL. When unset, zap stays silent so
// the rendered output is not interleaved with log lines.
package ui
