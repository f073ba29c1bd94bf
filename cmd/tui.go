package cmd

import (
	"context"
	"fmt"

	"github.com/chiptspb/biohacker-nexus/internal/tui"
	"github.com/chiptspb/biohacker-nexus/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:     "tui",
	Aliases: []string{"dash"},
	Short:   "Launch interactive TUI dashboard",
	RunE:    withEnv(runTUI),
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ context.Context, e *env, _ *cobra.Command, _ []string) error {
	theme.SetActive(e.cfg.Appearance.Theme)

	// Force TrueColor so background fills always produce ANSI codes.
	lipgloss.SetColorProfile(termenv.TrueColor)

	app := tui.NewApp(e.store, e.cfg)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
