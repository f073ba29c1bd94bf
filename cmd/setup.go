package cmd

import (
	"context"
	"fmt"

	"github.com/chiptspb/biohacker-nexus/internal/config"
	"github.com/chiptspb/biohacker-nexus/internal/tui"

	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup: disclaimer, profile, and theme",
	Args:  cobra.NoArgs,
	RunE:  withEnv(runSetup),
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(ctx context.Context, e *env, _ *cobra.Command, _ []string) error {
	if err := tui.RunSetup(ctx, e.store, e.cfg); err != nil {
		return fmt.Errorf("setup: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Add your first product with `nexus product add`.")
	fmt.Println("  Run `nexus setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
