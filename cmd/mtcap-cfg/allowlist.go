package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/mtcap-allowlist/internal/allowlist"
	"github.com/muurk/mtcap-allowlist/internal/config"
	"github.com/muurk/mtcap-allowlist/internal/lorawan"
	"github.com/muurk/mtcap-allowlist/internal/ui"
)

// Allowlist command flags
var (
	showKeys   bool
	exportKeys bool
	assumeYes  bool
	olderThan  string
	pruneDays  int
	dryRun     bool
	verifySync bool
	exportPath string
)

func init() {
	rootCmd.AddCommand(countCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(activeCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(enableCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(clearCmd)

	listCmd.Flags().BoolVar(&showKeys, "show-keys", false, "Print AppKeys in full instead of masked")
	exportCmd.Flags().StringVarP(&exportPath, "output", "o", "", "Write the manifest to a file instead of stdout")
	exportCmd.Flags().BoolVar(&exportKeys, "keys", true, "Include AppKeys in the manifest")
	syncCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only validate the manifest")
	syncCmd.Flags().BoolVar(&verifySync, "verify", false, "Re-read the allowlist afterwards and compare it with the manifest")

	pruneCmd.Flags().StringVar(&olderThan, "older-than", "", "Remove devices last seen before this date (YYYY-MM-DD)")
	pruneCmd.Flags().IntVar(&pruneDays, "days", 0, "Remove devices not seen for this many days")
	pruneCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
	pruneCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only list the devices that would be removed")
	pruneCmd.MarkFlagsMutuallyExclusive("older-than", "days")
	pruneCmd.MarkFlagsOneRequired("older-than", "days")

	clearCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
}

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of allowlist entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(s *session) error {
			n, err := s.reconciler().Count()
			if err != nil {
				return err
			}
			if ok, err := printStructured(map[string]any{"gateway": s.target.host, "count": n}); ok {
				return err
			}
			fmt.Printf("%s on %s\n", plural(n, "allowlist entry"), s.target.host)
			return nil
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List allowlist entries",
	Long: `List the devices on the gateway allowlist.

AppKeys are masked unless --show-keys is given. Entries the gateway
returns with fields this tool does not manage are shown as stored.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(s *session) error {
			entries, err := s.reconciler().List()
			if err != nil {
				return err
			}
			if !showKeys {
				for i := range entries {
					entries[i].AppKey = maskKey(entries[i].AppKey)
				}
			}
			if ok, err := printStructured(entries); ok {
				return err
			}

			if len(entries) == 0 {
				fmt.Printf("The allowlist on %s is empty.\n", s.target.host)
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					e.DevEUI,
					e.AppEUI,
					e.Class,
					strings.TrimPrefix(e.DeviceProfileID, lorawan.DeviceProfilePrefix),
					strings.TrimPrefix(e.NetworkProfileID, lorawan.NetworkProfilePrefix),
					e.AppKey,
				})
			}
			ui.NewPrinter(os.Stdout).PrintTable(
				[]string{"DEVEUI", "JOINEUI", "CLASS", "REGION", "PROFILE", "APPKEY"}, rows)
			fmt.Println(plural(len(entries), "entry"))
			return nil
		})
	},
}

// maskKey masks a wire key, leaving unparsable values untouched
func maskKey(wire string) string {
	key, err := lorawan.ParseAppKey(wire)
	if err != nil {
		return wire
	}
	return key.Masked()
}

var activeCmd = &cobra.Command{
	Use:   "active",
	Short: "List devices with an active network session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(s *session) error {
			active, err := s.reconciler().ActiveDevices()
			if err != nil {
				return err
			}
			if ok, err := printStructured(active); ok {
				return err
			}

			if len(active) == 0 {
				fmt.Printf("No active sessions on %s.\n", s.target.host)
				return nil
			}
			rows := make([][]string, 0, len(active))
			for _, a := range active {
				rows = append(rows, []string{a.DevEUI, rawText(a.LastSeen), rawText(a.CreatedAt)})
			}
			ui.NewPrinter(os.Stdout).PrintTable([]string{"DEVEUI", "LAST SEEN", "CREATED"}, rows)
			return nil
		})
	},
}

// rawText renders a JSON scalar for display
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return "-"
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the current allowlist as a device manifest",
	Example: `  # Back up the allowlist before a sync
  mtcap-cfg export -o devices.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(s *session) error {
			entries, err := s.reconciler().List()
			if err != nil {
				return err
			}

			var m config.Manifest
			for _, e := range entries {
				entry := config.EntryFromWire(e)
				if !exportKeys {
					entry.AppKey = ""
				}
				m.Devices = append(m.Devices, entry)
			}

			if exportPath == "" {
				return config.WriteManifest(os.Stdout, m)
			}
			f, err := os.Create(exportPath)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", exportPath, err)
			}
			if err := config.WriteManifest(f, m); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Wrote %s to %s\n", plural(len(m.Devices), "device"), exportPath)
			return nil
		})
	},
}

var enableCmd = &cobra.Command{
	Use:   "enable <manifest>",
	Short: "Replace the allowlist with the manifest devices and enable it",
	Long: `Replace the whole allowlist with the devices in the manifest and
switch allowlist enforcement on. Entries not in the manifest are dropped
without evicting their sessions; use 'sync' to evict them as well.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := config.LoadManifest(args[0])
		if err != nil {
			return err
		}
		return withSession(func(s *session) error {
			rec := s.reconciler()
			return runOperation(s, "Allowlist Enable", "mtcap-cfg enable "+args[0],
				map[string]string{"Devices": fmt.Sprint(len(devices))},
				singleStep("Replacing allowlist", func() error { return rec.Enable(devices) }),
				nil)
		})
	},
}

var addCmd = &cobra.Command{
	Use:   "add <manifest>",
	Short: "Add or update the manifest devices",
	Long: `Add the devices in the manifest to the allowlist. Devices already
present are updated in place; other entries are left alone.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := config.LoadManifest(args[0])
		if err != nil {
			return err
		}
		return withSession(func(s *session) error {
			rec := s.reconciler()
			return runOperation(s, "Allowlist Add", "mtcap-cfg add "+args[0],
				map[string]string{"Devices": fmt.Sprint(len(devices))},
				singleStep("Adding devices", func() error { return rec.AddOrUpdate(devices) }),
				nil)
		})
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync <manifest>",
	Short: "Make the allowlist match the manifest",
	Long: `Make the allowlist hold exactly the devices in the manifest.

New devices are added and changed ones updated. Entries missing from the
manifest are removed and their active sessions evicted. All changes are
written in a single update and committed once; nothing is written when the
allowlist already matches.`,
	Example: `  mtcap-cfg sync devices.yaml --gateway 192.168.2.1

  # Validate a manifest without touching the gateway
  mtcap-cfg sync devices.yaml --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := config.LoadManifest(args[0])
		if err != nil {
			return err
		}
		if dryRun {
			for _, d := range devices {
				fmt.Println(d)
			}
			fmt.Printf("%s OK\n", plural(len(devices), "device"))
			return nil
		}

		return withSession(func(s *session) error {
			rec := s.reconciler()
			var report allowlist.SyncReport
			err := runOperation(s, "Allowlist Sync", "mtcap-cfg sync "+args[0],
				map[string]string{"Devices": fmt.Sprint(len(devices))},
				func(observe allowlist.Observer) error {
					rec.Observer = observe
					var err error
					report, err = rec.Sync(devices)
					return err
				},
				func() map[string]string { return syncDetails(report) })
			if err != nil {
				return err
			}
			if _, err := printStructured(syncReportView(report)); err != nil {
				return err
			}
			if verifySync {
				return verifyAgainst(s, devices)
			}
			return nil
		})
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify <manifest>",
	Short: "Compare the allowlist with a manifest without changing it",
	Long: `Read the allowlist and report devices missing from it, entries not in
the manifest, and entries whose fields differ. Exits non-zero when the
allowlist does not match. AppKey differences are reported without the keys.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := config.LoadManifest(args[0])
		if err != nil {
			return err
		}
		return withSession(func(s *session) error {
			return verifyAgainst(s, devices)
		})
	},
}

func verifyAgainst(s *session, devices []lorawan.Device) error {
	result, err := s.reconciler().Verify(devices)
	if err != nil {
		return err
	}

	if format() == formatText {
		if result.OK() {
			fmt.Printf("Allowlist on %s matches (%s)\n", s.target.host, plural(len(devices), "device"))
			return nil
		}
		for _, eui := range result.Missing {
			fmt.Printf("  missing     %s\n", eui)
		}
		for _, eui := range result.Unexpected {
			fmt.Printf("  unexpected  %s\n", eui)
		}
		for _, m := range result.Mismatches {
			fmt.Printf("  mismatch    %s\n", m)
		}
	} else if _, err := printStructured(verifyView(result)); err != nil {
		return err
	}

	return fmt.Errorf("allowlist differs from manifest: %s", result)
}

// verifyView is the structured form of a VerifyResult
func verifyView(r allowlist.VerifyResult) map[string][]string {
	view := map[string][]string{
		"missing":    {},
		"unexpected": {},
		"mismatches": {},
	}
	for _, eui := range r.Missing {
		view["missing"] = append(view["missing"], eui.String())
	}
	for _, eui := range r.Unexpected {
		view["unexpected"] = append(view["unexpected"], eui.String())
	}
	for _, m := range r.Mismatches {
		view["mismatches"] = append(view["mismatches"], m.String())
	}
	return view
}

func syncDetails(r allowlist.SyncReport) map[string]string {
	return map[string]string{
		"Added":     fmt.Sprint(len(r.Added)),
		"Updated":   fmt.Sprint(len(r.Updated)),
		"Unchanged": fmt.Sprint(len(r.Unchanged)),
		"Removed":   fmt.Sprint(len(r.Removed)),
		"Evicted":   fmt.Sprint(len(r.Evicted)),
	}
}

// syncReportView is the structured form of a SyncReport
func syncReportView(r allowlist.SyncReport) map[string][]string {
	view := make(map[string][]string, 5)
	for name, euis := range map[string][]lorawan.DevEUI{
		"added":     r.Added,
		"updated":   r.Updated,
		"unchanged": r.Unchanged,
		"removed":   r.Removed,
		"evicted":   r.Evicted,
	} {
		list := make([]string, 0, len(euis))
		for _, eui := range euis {
			list = append(list, eui.String())
		}
		view[name] = list
	}
	return view
}

var removeCmd = &cobra.Command{
	Use:   "remove <deveui>...",
	Short: "Remove devices and evict their sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		euis, err := parseDevEUIs(args)
		if err != nil {
			return err
		}
		return withSession(func(s *session) error {
			rec := s.reconciler()
			return runOperation(s, "Allowlist Remove", "mtcap-cfg remove",
				map[string]string{"Devices": strings.Join(args, ", ")},
				singleStep("Removing devices", func() error { return rec.Remove(euis) }),
				nil)
		})
	},
}

func parseDevEUIs(args []string) ([]lorawan.DevEUI, error) {
	euis := make([]lorawan.DevEUI, 0, len(args))
	for _, arg := range args {
		eui, err := lorawan.ParseDevEUI(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid deveui %q: %w", arg, err)
		}
		euis = append(euis, eui)
	}
	return euis, nil
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove devices that have not been seen recently",
	Long: `Remove devices whose last activity predates a cutoff date.

The date of last_seen is used, or of created_at when last_seen is missing.
Devices the gateway reports without a usable timestamp are kept.`,
	Example: `  mtcap-cfg prune --older-than 2024-01-01
  mtcap-cfg prune --days 90 --yes`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cutoff, err := pruneCutoff(time.Now())
		if err != nil {
			return err
		}
		label := cutoff.Format(time.DateOnly)

		return withSession(func(s *session) error {
			rec := s.reconciler()

			if assumeYes && !dryRun {
				return runOperation(s, "Allowlist Prune", "mtcap-cfg prune",
					map[string]string{"Cutoff": label},
					singleStep("Removing stale devices", func() error { return rec.RemoveOld(cutoff) }),
					nil)
			}

			old, err := rec.SelectOld(cutoff)
			if err != nil {
				return err
			}
			if dryRun {
				if ok, err := printStructured(old); ok {
					return err
				}
				for _, eui := range old {
					fmt.Println(eui)
				}
				fmt.Printf("%s not seen since %s\n", plural(len(old), "device"), label)
				return nil
			}
			if len(old) == 0 {
				fmt.Printf("No devices idle since before %s.\n", label)
				return nil
			}
			if !ui.ConfirmDangerousOperation(ui.PruneConfirmation(s.target.host, len(old), label)) {
				return errors.New("prune cancelled")
			}
			return runOperation(s, "Allowlist Prune", "mtcap-cfg prune",
				map[string]string{"Cutoff": label, "Devices": fmt.Sprint(len(old))},
				singleStep("Removing stale devices", func() error { return rec.Remove(old) }),
				nil)
		})
	},
}

// pruneCutoff resolves --older-than or --days against now
func pruneCutoff(now time.Time) (time.Time, error) {
	if olderThan != "" {
		cutoff, err := time.Parse(time.DateOnly, olderThan)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --older-than %q (want YYYY-MM-DD)", olderThan)
		}
		return cutoff, nil
	}
	if pruneDays <= 0 {
		return time.Time{}, fmt.Errorf("--days must be positive, got %d", pruneDays)
	}
	return now.UTC().AddDate(0, 0, -pruneDays), nil
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the allowlist and evict every session",
	Long: `Remove every device from the allowlist and evict every active
session on the gateway. Enforcement stays enabled, so no device can join
until it is added again.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(func(s *session) error {
			rec := s.reconciler()

			if !assumeYes {
				n, err := rec.Count()
				if err != nil {
					return err
				}
				if !ui.ConfirmDangerousOperation(ui.ClearConfirmation(s.target.host, n)) {
					return errors.New("clear cancelled")
				}
			}

			return runOperation(s, "Allowlist Clear", "mtcap-cfg clear", nil,
				singleStep("Clearing allowlist", rec.Clear),
				nil)
		})
	},
}
