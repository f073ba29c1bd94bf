package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/chiptspb/biohacker-nexus/internal/cli"
	"github.com/chiptspb/biohacker-nexus/internal/config"
	"github.com/chiptspb/biohacker-nexus/internal/premium"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var flagPremiumForce bool

var premiumCmd = &cobra.Command{
	Use:   "premium",
	Short: "Show or change the premium entitlement",
	RunE:  withEnv(runPremiumStatus),
}

var premiumStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show tier, limits, and any detected entitlement",
	Args:  cobra.NoArgs,
	RunE:  withEnv(runPremiumStatus),
}

var premiumEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Enable premium from a validated entitlement",
	Long: "Reads " + config.EntitlementFile + " from the data directory, which the purchase " +
		"validator writes, and turns premium on when it is active.",
	Args: cobra.NoArgs,
	RunE: withEnv(runPremiumEnable),
}

var premiumDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Return to the free tier",
	Args:  cobra.NoArgs,
	RunE:  withEnv(runPremiumDisable),
}

func init() {
	premiumEnableCmd.Flags().BoolVar(&flagPremiumForce, "force", false, "Enable without an entitlement file")
	premiumCmd.AddCommand(premiumStatusCmd, premiumEnableCmd, premiumDisableCmd)
	rootCmd.AddCommand(premiumCmd)
}

func runPremiumStatus(ctx context.Context, e *env, _ *cobra.Command, _ []string) error {
	snap, err := e.store.Load(ctx)
	if err != nil {
		return err
	}
	p := snap.Profile

	tier := "free"
	if premium.IsPremium(p) {
		tier = "premium"
	}
	products := fmt.Sprintf("%d of %d", len(snap.Products), premium.FreeProductLimit)
	if left := premium.RemainingProducts(p, len(snap.Products)); left < 0 {
		products = fmt.Sprintf("%d (unlimited)", len(snap.Products))
	}
	history := fmt.Sprintf("last %d days", premium.FreeHistoryDays)
	if premium.Allows(p, premium.FeatureHistoryUnlimited) {
		history = "unlimited"
	}

	rows := [][]string{
		{"Tier", tier},
		{"Products", products},
		{"History", history},
	}
	for _, f := range premium.Features {
		state := "locked"
		if premium.Allows(p, f) {
			state = "yes"
		}
		rows = append(rows, []string{string(f), state})
	}

	ent := config.DetectEntitlement(e.cfg.DataDir())
	switch {
	case !ent.Found:
		rows = append(rows, []string{"Entitlement", "none"})
	case ent.Active(time.Now()):
		rows = append(rows, []string{"Entitlement", fmt.Sprintf("%s (%s)", ent.Tier, expiry(ent))})
	default:
		rows = append(rows, []string{"Entitlement", fmt.Sprintf("%s, inactive (%s)", ent.Tier, expiry(ent))})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{Title: "Premium", Rows: rows, LeftCols: 2}))
	return nil
}

func expiry(ent config.Entitlement) string {
	if ent.ExpiresAt.IsZero() {
		return "no expiry"
	}
	return "expires " + ent.ExpiresAt.Local().Format("2006-01-02")
}

func runPremiumEnable(ctx context.Context, e *env, _ *cobra.Command, _ []string) error {
	ent := config.DetectEntitlement(e.cfg.DataDir())
	if !ent.Active(time.Now()) && !flagPremiumForce {
		return fmt.Errorf("no active entitlement in %s: %w", e.cfg.DataDir(), premium.ErrPremiumRequired)
	}
	return setPremium(ctx, e, true)
}

func runPremiumDisable(ctx context.Context, e *env, _ *cobra.Command, _ []string) error {
	return setPremium(ctx, e, false)
}

func setPremium(ctx context.Context, e *env, on bool) error {
	p, _, err := e.store.Profile(ctx)
	if err != nil {
		return err
	}
	p.Premium = on
	if _, err := e.store.SaveProfile(ctx, p); err != nil {
		return err
	}
	e.log.Info("premium changed", zap.Bool("premium", on))

	if on {
		fmt.Println("  " + cli.RenderOK("Premium enabled"))
	} else {
		fmt.Println("  " + cli.RenderOK("Back on the free tier"))
	}
	return nil
}
