package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/chiptspb/biohacker-nexus/internal/cli"
	"github.com/chiptspb/biohacker-nexus/internal/model"
	"github.com/chiptspb/biohacker-nexus/internal/schedule"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagRegenDays int
	flagRegenFrom string
	flagListDays  int
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Inspect and regenerate scheduled doses",
}

var scheduleListCmd = &cobra.Command{
	Use:   "list [product]",
	Short: "List upcoming scheduled doses",
	Args:  cobra.MaximumNArgs(1),
	RunE:  withEnv(runScheduleList),
}

var scheduleRegenCmd = &cobra.Command{
	Use:   "regen [product]",
	Short: "Regenerate scheduled doses for one or all products",
	Long: "Expands each product's protocol into concrete doses from --from for --days days. " +
		"Doses already completed in that window keep their completion.",
	Args: cobra.MaximumNArgs(1),
	RunE: withEnv(runScheduleRegen),
}

func init() {
	scheduleRegenCmd.Flags().IntVar(&flagRegenDays, "days", 0, "Days to generate (default from config)")
	scheduleRegenCmd.Flags().StringVar(&flagRegenFrom, "from", "", "First day YYYY-MM-DD (default today)")
	scheduleListCmd.Flags().IntVar(&flagListDays, "days", 7, "Days ahead to list")

	scheduleCmd.AddCommand(scheduleListCmd, scheduleRegenCmd)
	rootCmd.AddCommand(scheduleCmd)
}

// regenerate rebuilds the schedule of one product and returns how many doses
// were written.
func regenerate(ctx context.Context, e *env, p model.Product, from time.Time, days int) (int, error) {
	if days <= 0 {
		days = schedule.DefaultDays
	}
	doses, err := schedule.ExpandChecked(p, from, days)
	if err != nil {
		return 0, fmt.Errorf("expanding %s: %w", p.Name, err)
	}
	if err := e.store.ReplaceSchedule(ctx, p.ID, doses); err != nil {
		return 0, err
	}
	e.log.Debug("schedule regenerated",
		zap.String("product", p.ID),
		zap.Int("doses", len(doses)),
		zap.Int("days", days))
	return len(doses), nil
}

func runScheduleRegen(ctx context.Context, e *env, _ *cobra.Command, args []string) error {
	products, err := e.store.Products(ctx)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		p, err := findProduct(products, args[0])
		if err != nil {
			return err
		}
		products = []model.Product{p}
	}

	from := time.Now()
	if flagRegenFrom != "" {
		from, err = model.ParseDate(flagRegenFrom, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --from %q: %w", flagRegenFrom, err)
		}
	}
	days := flagRegenDays
	if days <= 0 {
		days = e.cfg.General.ScheduleDays
	}

	total := 0
	for _, p := range products {
		n, err := regenerate(ctx, e, p, from, days)
		if err != nil {
			return err
		}
		info("  %-24s %d doses\n", p.Name, n)
		total += n
	}
	fmt.Println("  " + cli.RenderOK(fmt.Sprintf("Scheduled %d doses for %d products from %s", total, len(products), model.DateString(from))))
	return nil
}

func runScheduleList(ctx context.Context, e *env, _ *cobra.Command, args []string) error {
	snap, err := e.store.Load(ctx)
	if err != nil {
		return err
	}
	productID := ""
	if len(args) == 1 {
		p, err := findProduct(snap.Products, args[0])
		if err != nil {
			return err
		}
		productID = p.ID
	}

	now := time.Now()
	first := model.DateString(now)
	last := model.DateString(now.AddDate(0, 0, max(flagListDays, 1)-1))

	var rows [][]string
	for _, d := range snap.Schedule {
		if productID != "" && d.ProductID != productID {
			continue
		}
		if d.Date < first || d.Date > last {
			continue
		}
		status := ""
		if d.Completed {
			status = "done"
		}
		rows = append(rows, []string{
			d.Date,
			d.Time,
			d.ProductName,
			cli.FormatQuantity(d.DoseAmount, d.DoseUnit),
			status,
			shortID(d.ID),
		})
	}
	if len(rows) == 0 {
		fmt.Println("\n  Nothing scheduled. Run `nexus schedule regen`.")
		return nil
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    fmt.Sprintf("Schedule %s to %s", first, last),
		Headers:  []string{"Date", "Time", "Product", "Dose", "Status", "ID"},
		Rows:     rows,
		LeftCols: 3,
	}))
	return nil
}
