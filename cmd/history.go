package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/chiptspb/biohacker-nexus/internal/cli"
	"github.com/chiptspb/biohacker-nexus/internal/model"
	"github.com/chiptspb/biohacker-nexus/internal/premium"
	"github.com/chiptspb/biohacker-nexus/internal/projection"

	"github.com/spf13/cobra"
)

var (
	flagHistoryProduct string
	flagHistoryLimit   int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show logged doses, newest first",
	Args:  cobra.NoArgs,
	RunE:  withEnv(runHistory),
}

func init() {
	historyCmd.Flags().StringVarP(&flagHistoryProduct, "product", "p", "", "Only show one product")
	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 50, "Maximum rows (0 for all)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(ctx context.Context, e *env, _ *cobra.Command, _ []string) error {
	snap, err := e.store.Load(ctx)
	if err != nil {
		return err
	}

	logs := snap.DoseLogs
	if flagHistoryProduct != "" {
		p, err := findProduct(snap.Products, flagHistoryProduct)
		if err != nil {
			return err
		}
		logs = filterLogs(logs, p.ID)
	}

	now := time.Now()
	since := premium.HistorySince(snap.Profile, now)
	shown := projection.History(logs, since)
	hidden := len(projection.History(logs, time.Time{})) - len(shown)

	if len(shown) == 0 {
		fmt.Println("\n  No doses logged yet.")
		return nil
	}

	names := make(map[string]string, len(snap.Products))
	for _, p := range snap.Products {
		names[p.ID] = p.Name
	}

	limit := len(shown)
	if flagHistoryLimit > 0 && flagHistoryLimit < limit {
		limit = flagHistoryLimit
	}
	rows := make([][]string, 0, limit)
	for _, l := range shown[:limit] {
		name := names[l.ProductID]
		if name == "" {
			name = shortID(l.ProductID)
		}
		rows = append(rows, []string{
			l.Date,
			l.Time,
			name,
			cli.FormatQuantity(l.Amount, l.Unit),
			string(l.Route),
			l.Site,
			l.SideEffects,
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    fmt.Sprintf("Dose History (%d)", len(shown)),
		Headers:  []string{"Date", "Time", "Product", "Amount", "Route", "Site", "Side effects"},
		Rows:     rows,
		LeftCols: 3,
	}))

	counts := projection.DailyCounts(logs, now, 14)
	info("\n  Last 14 days  %s\n", cli.RenderSparkline(counts))
	if limit < len(shown) {
		info("  %s\n", cli.RenderMuted(fmt.Sprintf("%d older entries not shown (use --limit 0)", len(shown)-limit)))
	}
	if hidden > 0 {
		fmt.Printf("  %s\n", cli.RenderWarning(fmt.Sprintf(
			"%d entries older than %d days need premium", hidden, premium.FreeHistoryDays)))
	}
	return nil
}

func filterLogs(logs []model.DoseLog, productID string) []model.DoseLog {
	var out []model.DoseLog
	for _, l := range logs {
		if l.ProductID == productID {
			out = append(out, l)
		}
	}
	return out
}
