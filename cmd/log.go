package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/chiptspb/biohacker-nexus/internal/cli"
	"github.com/chiptspb/biohacker-nexus/internal/model"
	"github.com/chiptspb/biohacker-nexus/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagLogAmount      float64
	flagLogUnit        string
	flagLogDate        string
	flagLogTime        string
	flagLogRoute       string
	flagLogSite        string
	flagLogSideEffects string
	flagLogScheduled   string
)

var logCmd = &cobra.Command{
	Use:   "log [product]",
	Short: "Log a dose as taken",
	Long: "Records a dose, marks the matching scheduled dose done, and depletes inventory.\n" +
		"Without --date/--time the dose is logged now. Use --scheduled to log a specific scheduled dose by ID.",
	Example: "  nexus log bpc-157\n" +
		"  nexus log bpc-157 --amount 5 --site abdomen\n" +
		"  nexus log --scheduled 3f9a1c2e",
	Args: cobra.MaximumNArgs(1),
	RunE: withEnv(runLog),
}

func init() {
	fs := logCmd.Flags()
	fs.Float64Var(&flagLogAmount, "amount", 0, "Amount taken (default the product dose)")
	fs.StringVar(&flagLogUnit, "unit", "", "Unit (default the product unit)")
	fs.StringVar(&flagLogDate, "date", "", "Date YYYY-MM-DD (default today)")
	fs.StringVar(&flagLogTime, "time", "", "Time, e.g. 08:00 or 8pm (default now)")
	fs.StringVar(&flagLogRoute, "route", "", "Route (default the product route)")
	fs.StringVar(&flagLogSite, "site", "", "Injection or application site")
	fs.StringVar(&flagLogSideEffects, "side-effects", "", "Observed side effects")
	fs.StringVar(&flagLogScheduled, "scheduled", "", "Scheduled dose ID (or unique prefix) to log")
	rootCmd.AddCommand(logCmd)
}

func runLog(ctx context.Context, e *env, _ *cobra.Command, args []string) error {
	var (
		res store.LogResult
		err error
	)
	switch {
	case flagLogScheduled != "":
		id, err := resolveScheduled(ctx, e, flagLogScheduled)
		if err != nil {
			return err
		}
		res, err = e.store.LogScheduled(ctx, id)
		if err != nil {
			return err
		}
	case len(args) == 1:
		res, err = logProduct(ctx, e, args[0])
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("name a product or pass --scheduled")
	}

	e.log.Info("dose logged",
		zap.String("product", res.Log.ProductID),
		zap.String("date", res.Log.Date),
		zap.String("time", res.Log.Time),
		zap.Float64("amount", res.Log.Amount))

	name := res.Log.ProductID
	if p, err := e.store.Product(ctx, res.Log.ProductID); err == nil {
		name = p.Name
	}
	fmt.Println("  " + cli.RenderOK(fmt.Sprintf("Logged %s of %s at %s %s",
		cli.FormatQuantity(res.Log.Amount, res.Log.Unit), name, res.Log.Date, res.Log.Time)))
	if res.Completed != nil {
		info("  Completed scheduled dose %s %s\n", res.Completed.Date, res.Completed.Time)
	}
	if res.Inventory != nil {
		line := fmt.Sprintf("  %s remaining", cli.FormatQuantity(res.Inventory.Quantity, res.Inventory.Unit))
		if res.NegativeStock {
			fmt.Println(cli.RenderWarning(line + ": stock is below zero, update it with `nexus inventory set`"))
		} else {
			info("%s\n", line)
		}
	}
	return nil
}

func logProduct(ctx context.Context, e *env, ref string) (store.LogResult, error) {
	products, err := e.store.Products(ctx)
	if err != nil {
		return store.LogResult{}, err
	}
	p, err := findProduct(products, ref)
	if err != nil {
		return store.LogResult{}, err
	}

	entry := model.DoseLog{
		ProductID:   p.ID,
		Date:        flagLogDate,
		Amount:      flagLogAmount,
		Unit:        flagLogUnit,
		Site:        flagLogSite,
		SideEffects: flagLogSideEffects,
	}
	if flagLogTime != "" {
		h, m, err := model.ParseDoseTime(flagLogTime)
		if err != nil {
			return store.LogResult{}, err
		}
		entry.Time = fmt.Sprintf("%02d:%02d", h, m)
	}
	if flagLogDate != "" {
		if _, err := model.ParseDate(flagLogDate, time.Local); err != nil {
			return store.LogResult{}, err
		}
	}
	if flagLogRoute != "" {
		r, ok := model.ParseRoute(flagLogRoute)
		if !ok {
			return store.LogResult{}, fmt.Errorf("unknown route %q", flagLogRoute)
		}
		entry.Route = r
	}
	if entry.Amount < 0 {
		return store.LogResult{}, fmt.Errorf("amount must not be negative")
	}
	return e.store.LogDose(ctx, entry)
}

// resolveScheduled expands a scheduled dose ID prefix to the full ID.
func resolveScheduled(ctx context.Context, e *env, ref string) (string, error) {
	sched, err := e.store.Schedule(ctx)
	if err != nil {
		return "", err
	}
	return matchScheduledID(sched, ref)
}

func matchScheduledID(sched []model.ScheduledDose, ref string) (string, error) {
	var found []string
	for _, d := range sched {
		if d.ID == ref {
			return d.ID, nil
		}
		if len(ref) > 0 && len(d.ID) >= len(ref) && d.ID[:len(ref)] == ref {
			found = append(found, d.ID)
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("scheduled dose %q: %w", ref, store.ErrNotFound)
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("%w: %q matches %d scheduled doses", errAmbiguous, ref, len(found))
	}
}
