package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/mtcap-allowlist/internal/gateway"
	"github.com/muurk/mtcap-allowlist/internal/ui"
)

func init() {
	queueCmd.AddCommand(queueListCmd)
	queueCmd.AddCommand(queueClearCmd)
	rootCmd.AddCommand(queueCmd)
	rootCmd.AddCommand(modeCmd)
}

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect or flush queued downlinks",
}

// packetView is the printed form of a queued downlink
type packetView struct {
	DevEUI string `json:"deveui" yaml:"deveui"`
	Port   uint8  `json:"port" yaml:"port"`
	Data   string `json:"data" yaml:"data"`
}

var queueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List downlinks waiting on the gateway",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(s *session) error {
			packets, err := s.client.ListQueue()
			if err != nil {
				return err
			}

			views := make([]packetView, 0, len(packets))
			for _, p := range packets {
				views = append(views, packetView{DevEUI: p.DevEUI.String(), Port: p.Port, Data: p.Data})
			}
			if ok, err := printStructured(views); ok {
				return err
			}

			if len(views) == 0 {
				fmt.Printf("No downlinks queued on %s.\n", s.target.host)
				return nil
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				rows = append(rows, []string{v.DevEUI, fmt.Sprint(v.Port), v.Data})
			}
			ui.NewPrinter(os.Stdout).PrintTable([]string{"DEVEUI", "PORT", "DATA"}, rows)
			return nil
		})
	},
}

var queueClearCmd = &cobra.Command{
	Use:   "clear <deveui>...",
	Short: "Drop the queued downlinks of the given devices",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		euis, err := parseDevEUIs(args)
		if err != nil {
			return err
		}
		return withSession(func(s *session) error {
			return runOperation(s, "Queue Clear", "mtcap-cfg queue clear",
				map[string]string{"Devices": strings.Join(args, ", ")},
				singleStep("Deleting queued downlinks", func() error { return s.client.ClearQueue(euis) }),
				nil)
		})
	},
}

var modeCmd = &cobra.Command{
	Use:   "mode [network-server|packet-forwarder|disabled]",
	Short: "Show or set the LoRa network mode",
	Long: `Without an argument, print the gateway's LoRa operating mode.
With one, switch the gateway to that mode and commit.

Switching to packet-forwarder stops the embedded network server, after
which the allowlist is no longer enforced by this gateway.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"network-server", "packet-forwarder", "disabled"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return withSession(func(s *session) error {
				mode, err := s.client.Mode()
				if err != nil {
					return err
				}
				if ok, err := printStructured(map[string]string{"gateway": s.target.host, "mode": mode.String()}); ok {
					return err
				}
				fmt.Println(mode)
				return nil
			})
		}

		mode, err := gateway.ParseMode(args[0])
		if err != nil {
			return err
		}
		return withSession(func(s *session) error {
			return runOperation(s, "Network Mode", "mtcap-cfg mode "+mode.String(),
				map[string]string{"Mode": mode.String()},
				singleStep("Updating LoRa settings", func() error { return s.client.SetMode(mode) }),
				nil)
		})
	},
}
