package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/chiptspb/biohacker-nexus/internal/cli"
	"github.com/chiptspb/biohacker-nexus/internal/projection"

	"github.com/spf13/cobra"
)

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show doses due today and low-stock alerts",
	RunE:  runToday,
}

func init() {
	rootCmd.AddCommand(todayCmd)
}

func runToday(cmd *cobra.Command, args []string) error {
	return withEnv(showToday)(cmd, args)
}

func showToday(ctx context.Context, e *env, _ *cobra.Command, _ []string) error {
	snap, err := e.store.Load(ctx)
	if err != nil {
		return err
	}

	if len(snap.Products) == 0 {
		fmt.Println("\n  No products yet.")
		fmt.Println("  Add one with `nexus product add --name ... --dose ... --unit ... --freq Daily`.")
		return nil
	}

	now := time.Now()
	due := projection.DueToday(snap.Schedule, now)

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("TODAY  %s", now.Format("Mon Jan 2"))))
	fmt.Println()

	if len(due.Doses) == 0 {
		fmt.Println("  " + cli.RenderOK("Nothing due today."))
	} else {
		rows := make([][]string, 0, len(due.Doses))
		for _, d := range due.Doses {
			status := cli.RenderMuted(cli.FormatRelative(d.At, now))
			switch {
			case !d.TimeValid:
				status = cli.RenderMuted("any time")
			case d.Overdue:
				status = cli.RenderAlert("overdue " + cli.FormatRelative(d.At, now))
			}
			rows = append(rows, []string{
				d.Time,
				d.ProductName,
				cli.FormatQuantity(d.DoseAmount, d.DoseUnit),
				string(d.Route),
				status,
				shortID(d.ID),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:    fmt.Sprintf("Due %s  (%d overdue, %d upcoming)", due.Date, due.Overdue, due.Upcoming),
			Headers:  []string{"Time", "Product", "Dose", "Route", "Status", "ID"},
			Rows:     rows,
			LeftCols: 6,
		}))
	}

	alerts := projection.DashboardAlerts(projection.Project(snap.Products, snap.Inventory))
	if len(alerts) > 0 {
		fmt.Println()
		for _, s := range alerts {
			fmt.Println("  " + cli.RenderWarning(fmt.Sprintf("%s: %s of supply left (%s)",
				s.ProductName,
				cli.FormatMonths(s.MonthsOfSupply, s.Consuming()),
				cli.FormatDays(s.DaysRemaining, s.Consuming()))))
		}
	}

	if len(due.Doses) > 0 {
		fmt.Println()
		info("  Log a dose with `nexus log <product>` or `nexus log --scheduled <id>`.\n")
	}
	return nil
}
