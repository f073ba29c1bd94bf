// Package cmd implements the nexus CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/chiptspb/biohacker-nexus/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Data directory: %s\n", cfg.DataDir())
	fmt.Printf("    Schedule days:  %d\n", cfg.General.ScheduleDays)
	fmt.Printf("    Default time:   %s\n", cfg.General.DefaultTime)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level:    %s\n", cfg.Log.Level)
	fmt.Printf("    Encoding: %s\n", cfg.Log.Encoding)
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:       %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval:      %ds\n", cfg.Daemon.IntervalSec)
	fmt.Printf("    Events buffer: %d\n", cfg.Daemon.EventsBuffer)
	fmt.Println()

	var overrides []string
	for _, k := range []string{config.EnvDataDir, config.EnvLogLevel, config.EnvDaemon, config.EnvDays} {
		if v, ok := os.LookupEnv(k); ok {
			overrides = append(overrides, fmt.Sprintf("%s=%s", k, v))
		}
	}
	if len(overrides) > 0 {
		fmt.Println("  [Environment]")
		for _, o := range overrides {
			fmt.Printf("    %s\n", o)
		}
		fmt.Println()
	}

	ent := config.DetectEntitlement(cfg.DataDir())
	if ent.Found {
		fmt.Printf("  Entitlement: %s (%s)\n\n", ent.Tier, expiry(ent))
	}

	fmt.Println("  Run `nexus setup` to reconfigure.")
	return nil
}
