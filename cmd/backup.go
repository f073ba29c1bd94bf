package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/chiptspb/biohacker-nexus/internal/cli"
	"github.com/chiptspb/biohacker-nexus/internal/premium"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var flagExportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all data as JSON (premium)",
	Args:  cobra.NoArgs,
	RunE:  withEnv(runExport),
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Restore data from an export file",
	Long:  "Replaces every collection present in the file. Collections missing from the file are left as they are.",
	Args:  cobra.ExactArgs(1),
	RunE:  withEnv(runImport),
}

func init() {
	exportCmd.Flags().StringVarP(&flagExportOut, "out", "o", "", "Write to a file instead of stdout")
	rootCmd.AddCommand(exportCmd, importCmd)
}

func runExport(ctx context.Context, e *env, _ *cobra.Command, _ []string) error {
	p, ok, err := e.store.Profile(ctx)
	if err != nil {
		return err
	}
	profile := &p
	if !ok {
		profile = nil
	}
	if err := premium.Require(profile, premium.FeatureExport); err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if flagExportOut != "" {
		f, err := os.OpenFile(flagExportOut, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
		if err != nil {
			return fmt.Errorf("creating %s: %w", flagExportOut, err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	if err := e.store.Export(ctx, w); err != nil {
		return err
	}
	if flagExportOut != "" {
		e.log.Info("exported", zap.String("path", flagExportOut))
		fmt.Fprintln(os.Stderr, "  "+cli.RenderOK("Exported to "+flagExportOut))
	}
	return nil
}

func runImport(ctx context.Context, e *env, _ *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := e.store.Import(ctx, f); err != nil {
		return err
	}
	e.log.Info("imported", zap.String("path", args[0]))
	fmt.Println("  " + cli.RenderOK("Imported "+args[0]))
	return nil
}
