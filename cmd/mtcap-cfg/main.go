// Mtcap-cfg manages the device allowlist of MultiTech Conduit LoRaWAN gateways.
//
// It logs in to the gateway's HTTPS management API, reconciles the allowlist
// against a YAML device manifest, removes devices and their sessions, and
// commits every change with save_apply.
//
// Usage:
//
//	mtcap-cfg [command] [flags]
//
// The gateway is taken from --gateway, MTCAP_GATEWAY, --profile, the default
// profile, or mDNS discovery, in that order. See 'mtcap-cfg --help'.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/mtcap-allowlist/internal/config"
	"github.com/muurk/mtcap-allowlist/internal/gateway"
	"github.com/muurk/mtcap-allowlist/internal/logging"
	"github.com/muurk/mtcap-allowlist/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if hints := gateway.TroubleshootingHint(err); len(hints) > 0 && !resultShown(err) {
			fmt.Fprintln(os.Stderr, "\nTroubleshooting:")
			for _, hint := range hints {
				fmt.Fprintf(os.Stderr, "  - %s\n", hint)
			}
		}
		os.Exit(1)
	}
}

// Global flags
var (
	gatewayHost string
	profileName string
	username    string
	password    string
	outputFmt   string
	logLevel    string
	timeoutFlag string
	retries     int
	insecure    bool

	env *config.Env
)

var rootCmd = &cobra.Command{
	Use:   "mtcap-cfg",
	Short: "MultiTech Conduit allowlist manager",
	Long: `Manage the LoRaWAN device allowlist of a MultiTech Conduit gateway.

Devices are declared in a YAML manifest and pushed to the gateway's
allowlist. Removed devices also lose their active network sessions.
Every change is committed with save_apply before the command returns.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(); err != nil {
			return err
		}

		loaded, err := config.LoadEnv()
		if err != nil {
			return err
		}
		env = loaded

		level := logLevel
		if level == "" {
			level = env.LogLevel
		}
		if err := logging.Initialize(level); err != nil {
			return err
		}

		switch outputFmt {
		case "", formatText, formatJSON, formatYAML:
		default:
			return fmt.Errorf("unknown output format %q (want text, json or yaml)", outputFmt)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&gatewayHost, "gateway", "g", "", "Gateway address, host[:port] (env MTCAP_GATEWAY)")
	flags.StringVarP(&profileName, "profile", "p", "", "Saved gateway profile to use")
	flags.StringVarP(&username, "username", "u", "", "Management API user (env MTCAP_USERNAME)")
	flags.StringVar(&password, "password", "", "Management API password (env MTCAP_PASSWORD, prompted when unset)")
	flags.StringVar(&outputFmt, "format", "", "Output format: text, json or yaml")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (env MTCAP_LOG_LEVEL)")
	flags.StringVar(&timeoutFlag, "timeout", "", "HTTP request timeout, e.g. 45s (env MTCAP_TIMEOUT)")
	flags.IntVar(&retries, "retries", gateway.DefaultMaxRetries, "Retry attempts for failed reads; writes are never retried")
	flags.BoolVar(&insecure, "insecure", true, "Skip TLS certificate verification (env MTCAP_INSECURE)")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("mtcap-cfg " + version.Full())
	},
}
