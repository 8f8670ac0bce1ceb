package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/mtcap-allowlist/internal/config"
	"github.com/muurk/mtcap-allowlist/internal/discovery"
	"github.com/muurk/mtcap-allowlist/internal/ui"
)

// Profile and scan flags
var (
	profileUser     string
	profileSecure   bool
	profileDefault  bool
	scanTimeout     int
	scanSaveProfile bool
)

func init() {
	profileCmd.AddCommand(profileAddCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileRemoveCmd)
	profileCmd.AddCommand(profileDefaultCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(scanCmd)

	profileAddCmd.Flags().StringVar(&profileUser, "user", "", "Username stored with the profile")
	profileAddCmd.Flags().BoolVar(&profileSecure, "verify-tls", false, "Verify the gateway's TLS certificate")
	profileAddCmd.Flags().BoolVar(&profileDefault, "default", false, "Make this the default profile")

	scanCmd.Flags().IntVar(&scanTimeout, "scan-timeout", 0, "Scan timeout in seconds (default from preferences)")
	scanCmd.Flags().BoolVar(&scanSaveProfile, "save", false, "Save every gateway found as a profile")
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage saved gateway profiles",
	Long: `Profiles store a gateway address, username and TLS setting under a
name. Passwords are never stored; they come from MTCAP_PASSWORD, the
--password flag or a prompt.`,
}

var profileAddCmd = &cobra.Command{
	Use:   "add <name> <host>",
	Short: "Save a gateway profile",
	Example: `  mtcap-cfg profile add site-a 10.1.0.1 --default
  mtcap-cfg profile add lab mtcap-21983422.local --user operator`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := config.LoadRegistry()
		if err != nil {
			return err
		}

		name, host := args[0], args[1]
		gw := &config.Gateway{
			Host:     host,
			Username: profileUser,
			Insecure: !profileSecure,
		}
		if old := registry.GetGateway(name); old != nil {
			gw.Serial = old.Serial
			gw.LastUsed = old.LastUsed
		}
		registry.SetGateway(name, gw)
		if profileDefault {
			registry.Default = name
		}

		if err := config.SaveGlobal(); err != nil {
			return err
		}
		fmt.Printf("Saved profile %s (%s)\n", name, host)
		return nil
	},
}

// profileView is the printed form of a profile
type profileView struct {
	Name     string `json:"name" yaml:"name"`
	Host     string `json:"host" yaml:"host"`
	Username string `json:"username" yaml:"username"`
	Insecure bool   `json:"insecure" yaml:"insecure"`
	Default  bool   `json:"default" yaml:"default"`
	LastUsed string `json:"last_used,omitempty" yaml:"last_used,omitempty"`
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved gateway profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := config.LoadRegistry()
		if err != nil {
			return err
		}

		views := make([]profileView, 0, len(registry.Gateways))
		for _, name := range registry.GatewayNames() {
			gw := registry.GetGateway(name)
			v := profileView{
				Name:     name,
				Host:     gw.Host,
				Username: registry.UsernameFor(gw),
				Insecure: gw.Insecure,
				Default:  name == registry.Default,
			}
			if !gw.LastUsed.IsZero() {
				v.LastUsed = gw.LastUsed.Format(time.RFC3339)
			}
			views = append(views, v)
		}
		if ok, err := printStructured(views); ok {
			return err
		}

		if len(views) == 0 {
			fmt.Println("No profiles saved. Use 'mtcap-cfg profile add' or 'mtcap-cfg scan --save'.")
			return nil
		}
		rows := make([][]string, 0, len(views))
		for _, v := range views {
			name := v.Name
			if v.Default {
				name += " *"
			}
			tls := "verified"
			if v.Insecure {
				tls = "unverified"
			}
			lastUsed := v.LastUsed
			if lastUsed == "" {
				lastUsed = "never"
			}
			rows = append(rows, []string{name, v.Host, v.Username, tls, lastUsed})
		}
		ui.NewPrinter(os.Stdout).PrintTable([]string{"PROFILE", "HOST", "USER", "TLS", "LAST USED"}, rows)
		return nil
	},
}

var profileRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Delete a saved gateway profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := config.LoadRegistry()
		if err != nil {
			return err
		}
		if !registry.RemoveGateway(args[0]) {
			return fmt.Errorf("no profile named %q", args[0])
		}
		if err := config.SaveGlobal(); err != nil {
			return err
		}
		fmt.Printf("Removed profile %s\n", args[0])
		return nil
	},
}

var profileDefaultCmd = &cobra.Command{
	Use:   "default <name>",
	Short: "Make a profile the default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := config.LoadRegistry()
		if err != nil {
			return err
		}
		if registry.GetGateway(args[0]) == nil {
			return fmt.Errorf("no profile named %q", args[0])
		}
		registry.Default = args[0]
		return config.SaveGlobal()
	},
}

// scanCmd discovers gateways on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Find Conduit gateways on the local network",
	Long: `Browse mDNS for Conduit gateways (mtcap, mtcdt, mtcdtip) advertising
their HTTPS management interface.`,
	Example: `  mtcap-cfg scan
  mtcap-cfg scan --scan-timeout 15 --save`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := config.LoadRegistry()
		if err != nil {
			return err
		}

		timeout := scanTimeout
		if timeout <= 0 && registry.Preferences != nil {
			timeout = registry.Preferences.DiscoverTimeout
		}
		if timeout <= 0 {
			timeout = int(discovery.DefaultScanTimeout / time.Second)
		}

		if format() == formatText {
			fmt.Printf("Scanning for gateways (timeout: %ds)...\n\n", timeout)
		}
		gateways, err := discovery.Scan(context.Background(), time.Duration(timeout)*time.Second)
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}

		if ok, err := printStructured(gateways); ok {
			return err
		}

		if len(gateways) == 0 {
			fmt.Println("No gateways found.")
			fmt.Println("\nTroubleshooting:")
			fmt.Println("  - Ensure this machine is on the same network segment as the gateway")
			fmt.Println("  - Check that multicast (UDP 5353) is not filtered")
			fmt.Println("  - Try increasing --scan-timeout")
			fmt.Println("  - Use --gateway to give the address directly")
			return nil
		}

		rows := make([][]string, 0, len(gateways))
		for _, gw := range gateways {
			rows = append(rows, []string{gw.ProfileName(), gw.Hostname, gw.Address()})
		}
		ui.NewPrinter(os.Stdout).PrintTable([]string{"NAME", "HOSTNAME", "ADDRESS"}, rows)

		if !scanSaveProfile {
			fmt.Println("\nUse 'mtcap-cfg profile add <name> <address>' or 'scan --save' to keep them.")
			return nil
		}
		return saveDiscovered(registry, gateways)
	},
}

func saveDiscovered(registry *config.Registry, gateways []*discovery.Gateway) error {
	var saved int
	for _, gw := range gateways {
		name := gw.ProfileName()
		if registry.GetGateway(name) != nil {
			continue
		}
		registry.SetGateway(name, &config.Gateway{
			Host:     gw.Address(),
			Insecure: true,
			Serial:   gw.Serial,
		})
		saved++
	}
	if saved == 0 {
		fmt.Println("Every gateway found already has a profile.")
		return nil
	}
	if err := config.SaveGlobal(); err != nil {
		return err
	}
	fmt.Printf("Saved %s\n", plural(saved, "profile"))
	return nil
}
