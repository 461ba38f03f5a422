package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	cartCmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the shopping cart",
	}
	rootCmd.AddCommand(cartCmd)

	// add
	var addQuantity int
	addCmd := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			p, err := apiClient.Product(ctx, args[0])
			if err != nil {
				return err
			}
			if p.Stock <= 0 {
				return errors.New("product is out of stock")
			}

			start := time.Now()
			state, err := newCartManager().Add(ctx, *p, addQuantity)
			if err != nil {
				slog.Error("cart add failed", "product_id", p.ID, "error", err)
				return err
			}
			slog.Info("cart item added", "product_id", p.ID, "duration_ms", time.Since(start).Milliseconds())
			printJSON(state)
			return nil
		},
	}
	addCmd.Flags().IntVar(&addQuantity, "quantity", 1, "units to add")
	cartCmd.AddCommand(addCmd)

	// show
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := newCartManager().View(context.Background())
			if err != nil {
				return err
			}
			printJSON(state)
			return nil
		},
	}
	cartCmd.AddCommand(showCmd)

	// remove
	removeCmd := &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a product from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := newCartManager().Remove(context.Background(), args[0])
			if err != nil {
				slog.Error("cart remove failed", "product_id", args[0], "error", err)
				return err
			}
			printJSON(state)
			return nil
		},
	}
	cartCmd.AddCommand(removeCmd)

	// set-quantity
	setQuantityCmd := &cobra.Command{
		Use:   "set-quantity <product-id> <quantity>",
		Short: "Set the quantity of a cart line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("quantity must be an integer: %w", err)
			}
			state, err := newCartManager().SetQuantity(context.Background(), args[0], quantity)
			if err != nil {
				slog.Error("cart set-quantity failed", "product_id", args[0], "error", err)
				return err
			}
			printJSON(state)
			return nil
		},
	}
	cartCmd.AddCommand(setQuantityCmd)

	// clear
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := newCartManager().Clear(context.Background())
			if err != nil {
				return err
			}
			printJSON(state)
			return nil
		},
	}
	cartCmd.AddCommand(clearCmd)
}
