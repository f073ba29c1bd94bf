package cmd

import (
	"context"
	"fmt"

	"github.com/chiptspb/biohacker-nexus/internal/cli"
	"github.com/chiptspb/biohacker-nexus/internal/projection"

	"github.com/spf13/cobra"
)

var flagStockLow bool

var stockCmd = &cobra.Command{
	Use:   "stock",
	Short: "Project months of supply per product",
	RunE:  withEnv(runStock),
}

func init() {
	stockCmd.Flags().BoolVar(&flagStockLow, "low", false, "Only show products under the 3-month reorder threshold")
	rootCmd.AddCommand(stockCmd)
}

func runStock(ctx context.Context, e *env, _ *cobra.Command, _ []string) error {
	snap, err := e.store.Load(ctx)
	if err != nil {
		return err
	}

	stock := projection.Project(snap.Products, snap.Inventory)
	if flagStockLow {
		stock = projection.DashboardAlerts(stock)
	}
	if len(stock) == 0 {
		if flagStockLow {
			fmt.Println("\n  " + cli.RenderOK("No products are running low."))
		} else {
			fmt.Println("\n  No inventory recorded. Use `nexus inventory set <product> <quantity>`.")
		}
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("SUPPLY"))
	fmt.Println()

	rows := make([][]string, 0, len(stock))
	for _, s := range stock {
		consuming := s.Consuming()
		flag := ""
		switch {
		case projection.IsInventoryWarning(s):
			flag = cli.RenderAlert("reorder now")
		case consuming && s.MonthsOfSupply < projection.DashboardThresholdMonths:
			flag = cli.RenderWarning("low")
		}
		rows = append(rows, []string{
			s.ProductName,
			cli.FormatQuantity(s.CurrentStock, s.Unit),
			cli.FormatQuantity(s.MonthlyConsumption, s.Unit),
			cli.FormatMonths(s.MonthsOfSupply, consuming),
			cli.FormatDays(s.DaysRemaining, consuming),
			flag,
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Product", "Stock", "Per Month", "Supply", "Days", ""},
		Rows:    rows,
	}))

	if !flagStockLow {
		fmt.Println()
		for _, s := range stock {
			if !s.Consuming() {
				continue
			}
			fmt.Printf("  %-20s %s\n", s.ProductName, cli.RenderSupplyBar(s.MonthsOfSupply, 6,
				projection.InventoryThresholdMonths, projection.DashboardThresholdMonths, 20))
		}
	}
	return nil
}
