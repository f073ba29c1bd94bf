package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chiptspb/biohacker-nexus/internal/cli"
	"github.com/chiptspb/biohacker-nexus/internal/model"
	"github.com/chiptspb/biohacker-nexus/internal/premium"
	"github.com/chiptspb/biohacker-nexus/internal/projection"
	"github.com/chiptspb/biohacker-nexus/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// productFlags are shared by `product add` and `product edit`.
type productFlags struct {
	name       string
	category   string
	dose       float64
	unit       string
	freqs      []string
	days       []string
	start      string
	route      string
	times      []string
	notes      string
	stock      float64
	noSchedule bool
}

var (
	addFlags  productFlags
	editFlags productFlags
)

var productCmd = &cobra.Command{
	Use:     "product",
	Aliases: []string{"products"},
	Short:   "Manage tracked products",
}

var productAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a product and generate its schedule",
	Args:  cobra.NoArgs,
	RunE:  withEnv(runProductAdd),
}

var productListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List products",
	Args:    cobra.NoArgs,
	RunE:    withEnv(runProductList),
}

var productShowCmd = &cobra.Command{
	Use:   "show <product>",
	Short: "Show one product with its upcoming doses",
	Args:  cobra.ExactArgs(1),
	RunE:  withEnv(runProductShow),
}

var productEditCmd = &cobra.Command{
	Use:   "edit <product>",
	Short: "Change a product and regenerate its schedule",
	Args:  cobra.ExactArgs(1),
	RunE:  withEnv(runProductEdit),
}

var productRmCmd = &cobra.Command{
	Use:     "rm <product>",
	Aliases: []string{"remove", "delete"},
	Short:   "Delete a product with its schedule, logs, and inventory",
	Args:    cobra.ExactArgs(1),
	RunE:    withEnv(runProductRm),
}

func init() {
	bindProductFlags(productAddCmd, &addFlags)
	bindProductFlags(productEditCmd, &editFlags)
	_ = productAddCmd.MarkFlagRequired("name")
	_ = productAddCmd.MarkFlagRequired("freq")
	productAddCmd.Flags().Float64Var(&addFlags.stock, "stock", -1, "Initial inventory quantity in the dose unit")

	productCmd.AddCommand(productAddCmd, productListCmd, productShowCmd, productEditCmd, productRmCmd)
	rootCmd.AddCommand(productCmd)
}

func bindProductFlags(c *cobra.Command, f *productFlags) {
	fs := c.Flags()
	fs.StringVar(&f.name, "name", "", "Product name")
	fs.StringVar(&f.category, "category", "", "Category, e.g. peptide or supplement")
	fs.Float64Var(&f.dose, "dose", 0, "Dose amount per administration")
	fs.StringVar(&f.unit, "unit", "mg", "Dose unit")
	fs.StringSliceVar(&f.freqs, "freq", nil, "Frequency, repeatable (Daily, AM Daily, PM Daily, Every Other Day, Every 3 Days, Weekly, Bi-Weekly, Monthly, As Needed)")
	fs.StringSliceVar(&f.days, "days", nil, "Weekdays for weekly schedules, e.g. Mon,Thu")
	fs.StringVar(&f.start, "start", "", "Start date YYYY-MM-DD (default today)")
	fs.StringVar(&f.route, "route", string(model.RouteSubQ), "Route of administration")
	fs.StringSliceVar(&f.times, "time", nil, "Dose time, repeatable (08:00, 8pm, AM, PM)")
	fs.StringVar(&f.notes, "notes", "", "Free-form notes")
	fs.BoolVar(&f.noSchedule, "no-schedule", false, "Do not regenerate scheduled doses")
}

// apply copies the flags the user set onto p. With all=true every flag is
// applied, which is what `add` wants.
func (f productFlags) apply(c *cobra.Command, p *model.Product, all bool) error {
	changed := func(name string) bool { return all || c.Flags().Changed(name) }

	if changed("name") {
		p.Name = strings.TrimSpace(f.name)
	}
	if changed("category") {
		p.Category = f.category
	}
	if changed("dose") {
		p.DoseAmount = f.dose
	}
	if changed("unit") {
		p.DoseUnit = f.unit
	}
	if changed("freq") {
		freqs := make([]model.Frequency, 0, len(f.freqs))
		for _, s := range f.freqs {
			fr, ok := model.ParseFrequency(s)
			if !ok {
				return fmt.Errorf("unknown frequency %q", s)
			}
			freqs = append(freqs, fr)
		}
		p.Frequencies = freqs
	}
	if changed("days") {
		p.DaysOfWeek = f.days
	}
	if changed("start") && f.start != "" {
		if _, err := model.ParseDate(f.start, time.Local); err != nil {
			return fmt.Errorf("invalid start date %q: %w", f.start, err)
		}
		p.StartDate = f.start
	}
	if changed("route") {
		r, ok := model.ParseRoute(f.route)
		if !ok {
			return fmt.Errorf("unknown route %q", f.route)
		}
		p.Route = r
	}
	if changed("time") {
		times := make([]string, 0, len(f.times))
		for _, s := range f.times {
			h, m, err := model.ParseDoseTime(s)
			if err != nil {
				return err
			}
			times = append(times, fmt.Sprintf("%02d:%02d", h, m))
		}
		p.Times = times
	}
	if changed("notes") {
		p.Notes = f.notes
	}
	return nil
}

func runProductAdd(ctx context.Context, e *env, c *cobra.Command, _ []string) error {
	snap, err := e.store.Load(ctx)
	if err != nil {
		return err
	}
	if err := premium.CheckAddProduct(snap.Profile, len(snap.Products)); err != nil {
		return fmt.Errorf("%w (see `nexus premium status`)", err)
	}

	p := model.Product{StartDate: model.DateString(time.Now())}
	if err := addFlags.apply(c, &p, true); err != nil {
		return err
	}
	if len(p.Times) == 0 && e.cfg.General.DefaultTime != "" {
		p.Times = []string{e.cfg.General.DefaultTime}
	}

	p, err = e.store.AddProduct(ctx, p)
	if err != nil {
		return err
	}
	e.log.Info("product added", zap.String("id", p.ID), zap.String("name", p.Name))

	if addFlags.stock >= 0 {
		if _, err := e.store.SetInventory(ctx, model.Inventory{ProductID: p.ID, Quantity: addFlags.stock}); err != nil {
			return err
		}
	}

	fmt.Println("  " + cli.RenderOK(fmt.Sprintf("Added %s (%s)", p.Name, shortID(p.ID))))
	fmt.Printf("  Protocol: %s, %s %s\n", projection.ProtocolString(p), cli.FormatQuantity(p.DoseAmount, p.DoseUnit), p.Route)

	if !addFlags.noSchedule {
		n, err := regenerate(ctx, e, p, time.Now(), e.cfg.General.ScheduleDays)
		if err != nil {
			return err
		}
		info("  Scheduled %d doses over the next %d days\n", n, e.cfg.General.ScheduleDays)
	}
	return nil
}

func runProductList(ctx context.Context, e *env, _ *cobra.Command, _ []string) error {
	snap, err := e.store.Load(ctx)
	if err != nil {
		return err
	}
	if len(snap.Products) == 0 {
		fmt.Println("\n  No products yet.")
		return nil
	}

	rows := make([][]string, 0, len(snap.Products))
	for _, p := range snap.Products {
		stock := "-"
		if inv, ok := snap.InventoryFor(p.ID); ok {
			stock = cli.FormatQuantity(inv.Quantity, inv.Unit)
		}
		rows = append(rows, []string{
			p.Name,
			cli.FormatQuantity(p.DoseAmount, p.DoseUnit),
			string(p.Route),
			projection.ProtocolString(p),
			stock,
			shortID(p.ID),
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    fmt.Sprintf("Products (%d)", len(snap.Products)),
		Headers:  []string{"Name", "Dose", "Route", "Protocol", "Stock", "ID"},
		Rows:     rows,
		LeftCols: 4,
	}))

	if left := premium.RemainingProducts(snap.Profile, len(snap.Products)); left >= 0 {
		info("\n  %d of %d free product slots left\n", left, premium.FreeProductLimit)
	}
	return nil
}

func runProductShow(ctx context.Context, e *env, _ *cobra.Command, args []string) error {
	snap, err := e.store.Load(ctx)
	if err != nil {
		return err
	}
	p, err := findProduct(snap.Products, args[0])
	if err != nil {
		return err
	}

	rows := [][]string{
		{"ID", p.ID},
		{"Name", p.Name},
		{"Category", p.Category},
		{"Dose", cli.FormatQuantity(p.DoseAmount, p.DoseUnit)},
		{"Route", string(p.Route)},
		{"Protocol", projection.ProtocolString(p)},
		{"Times", strings.Join(p.DoseTimes(), ", ")},
		{"Start", p.StartDate},
		{"Doses/month", fmt.Sprintf("%.1f", projection.MonthlyDoseCount(p))},
	}
	if inv, ok := snap.InventoryFor(p.ID); ok {
		rows = append(rows, []string{"Stock", cli.FormatQuantity(inv.Quantity, inv.Unit)})
		if inv.LotNumber != "" {
			rows = append(rows, []string{"Lot", inv.LotNumber})
		}
	}
	if p.Notes != "" {
		rows = append(rows, []string{"Notes", p.Notes})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{Title: p.Name, Rows: rows, LeftCols: 2}))

	today := model.DateString(time.Now())
	var upcoming [][]string
	for _, d := range snap.Schedule {
		if d.ProductID != p.ID || d.Completed || d.Date < today {
			continue
		}
		upcoming = append(upcoming, []string{d.Date, d.Time, shortID(d.ID)})
		if len(upcoming) == 5 {
			break
		}
	}
	if len(upcoming) > 0 {
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:    "Next doses",
			Headers:  []string{"Date", "Time", "ID"},
			Rows:     upcoming,
			LeftCols: 3,
		}))
	}
	return nil
}

func runProductEdit(ctx context.Context, e *env, c *cobra.Command, args []string) error {
	products, err := e.store.Products(ctx)
	if err != nil {
		return err
	}
	p, err := findProduct(products, args[0])
	if err != nil {
		return err
	}

	if err := editFlags.apply(c, &p, false); err != nil {
		return err
	}
	if err := e.store.UpdateProduct(ctx, p); err != nil {
		return err
	}
	e.log.Info("product updated", zap.String("id", p.ID))
	fmt.Println("  " + cli.RenderOK(fmt.Sprintf("Updated %s", p.Name)))

	if !editFlags.noSchedule {
		n, err := regenerate(ctx, e, p, time.Now(), e.cfg.General.ScheduleDays)
		if err != nil {
			return err
		}
		info("  Rescheduled %d doses\n", n)
	}
	return nil
}

func runProductRm(ctx context.Context, e *env, _ *cobra.Command, args []string) error {
	products, err := e.store.Products(ctx)
	if err != nil {
		return err
	}
	p, err := findProduct(products, args[0])
	if err != nil {
		return err
	}

	if err := e.store.DeleteProduct(ctx, p.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("product %s was already removed: %w", p.Name, err)
		}
		return err
	}
	e.log.Info("product deleted", zap.String("id", p.ID))
	fmt.Println("  " + cli.RenderOK(fmt.Sprintf("Removed %s with its schedule, logs, and inventory", p.Name)))
	return nil
}
