package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/chiptspb/biohacker-nexus/internal/cli"
	"github.com/chiptspb/biohacker-nexus/internal/model"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagInvUnit    string
	flagInvLot     string
	flagInvStorage string
)

var inventoryCmd = &cobra.Command{
	Use:     "inventory",
	Aliases: []string{"inv"},
	Short:   "Record on-hand stock",
}

var inventorySetCmd = &cobra.Command{
	Use:   "set <product> <quantity>",
	Short: "Set the on-hand quantity for a product",
	Args:  cobra.ExactArgs(2),
	RunE:  withEnv(runInventorySet),
}

var inventoryAdjustCmd = &cobra.Command{
	Use:   "adjust <product> <delta>",
	Short: "Add to or subtract from the on-hand quantity",
	Example: "  nexus inventory adjust bpc 50\n" +
		"  nexus inventory adjust bpc -- -10",
	Args: cobra.ExactArgs(2),
	RunE: withEnv(runInventoryAdjust),
}

func init() {
	inventorySetCmd.Flags().StringVar(&flagInvUnit, "unit", "", "Stock unit (default the product's dose unit)")
	inventorySetCmd.Flags().StringVar(&flagInvLot, "lot", "", "Lot number")
	inventorySetCmd.Flags().StringVar(&flagInvStorage, "storage", "", "Storage notes, e.g. fridge")

	inventoryCmd.AddCommand(inventorySetCmd, inventoryAdjustCmd)
	rootCmd.AddCommand(inventoryCmd)
}

func runInventorySet(ctx context.Context, e *env, _ *cobra.Command, args []string) error {
	products, err := e.store.Products(ctx)
	if err != nil {
		return err
	}
	p, err := findProduct(products, args[0])
	if err != nil {
		return err
	}
	qty, err := strconv.ParseFloat(args[1], 64)
	if err != nil || qty < 0 {
		return fmt.Errorf("quantity must be a non-negative number, got %q", args[1])
	}

	inv, err := e.store.SetInventory(ctx, model.Inventory{
		ProductID: p.ID,
		Quantity:  qty,
		Unit:      flagInvUnit,
		LotNumber: flagInvLot,
		Storage:   flagInvStorage,
	})
	if err != nil {
		return err
	}
	e.log.Info("inventory set", zap.String("product", p.ID), zap.Float64("quantity", inv.Quantity))
	fmt.Println("  " + cli.RenderOK(fmt.Sprintf("%s: %s on hand", p.Name, cli.FormatQuantity(inv.Quantity, inv.Unit))))
	return nil
}

func runInventoryAdjust(ctx context.Context, e *env, _ *cobra.Command, args []string) error {
	products, err := e.store.Products(ctx)
	if err != nil {
		return err
	}
	p, err := findProduct(products, args[0])
	if err != nil {
		return err
	}
	delta, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("delta must be a number, got %q", args[1])
	}

	inv, err := e.store.AdjustInventory(ctx, p.ID, delta)
	if err != nil {
		return err
	}
	e.log.Info("inventory adjusted",
		zap.String("product", p.ID),
		zap.Float64("delta", delta),
		zap.Float64("quantity", inv.Quantity))

	line := fmt.Sprintf("%s: %s on hand", p.Name, cli.FormatQuantity(inv.Quantity, inv.Unit))
	if inv.Quantity < 0 {
		fmt.Println("  " + cli.RenderWarning(line+" (below zero)"))
		return nil
	}
	fmt.Println("  " + cli.RenderOK(line))
	return nil
}
