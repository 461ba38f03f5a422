package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"storefront/cart"
	"storefront/domain"
	"storefront/stub"
)

func init() {
	// products
	var search, category, sortBy, order, output string
	var minPrice, maxPrice float64
	productsCmd := &cobra.Command{
		Use:   "products",
		Short: "List catalog products",
		RunE: func(cmd *cobra.Command, args []string) error {
			var minPtr, maxPtr *float64
			if cmd.Flags().Changed("min-price") {
				minPtr = &minPrice
			}
			if cmd.Flags().Changed("max-price") {
				maxPtr = &maxPrice
			}
			out, err := apiClient.Products(context.Background(), domain.ProductFilter{
				Search:   search,
				Category: category,
				MinPrice: minPtr,
				MaxPrice: maxPtr,
				SortBy:   sortBy,
				Order:    order,
			})
			if err != nil {
				return err
			}
			if output == "json" {
				printJSON(out)
				return nil
			}
			for _, p := range out {
				fmt.Printf("%s | %s | %.2f | stock %d | %s\n",
					p.ID, p.Name, p.UnitPrice(), p.Stock, p.Category)
			}
			return nil
		},
	}
	productsCmd.Flags().StringVar(&search, "search", "", "search text")
	productsCmd.Flags().StringVar(&category, "category", "", "category")
	productsCmd.Flags().Float64Var(&minPrice, "min-price", 0, "min price")
	productsCmd.Flags().Float64Var(&maxPrice, "max-price", 0, "max price")
	productsCmd.Flags().StringVar(&sortBy, "sort-by", "", "sort field")
	productsCmd.Flags().StringVar(&order, "order", "asc", "sort order")
	productsCmd.Flags().StringVar(&output, "output", "", "output format")
	rootCmd.AddCommand(productsCmd)

	// product
	productCmd := &cobra.Command{
		Use:   "product <id>",
		Short: "Fetch one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := apiClient.Product(context.Background(), args[0])
			if err != nil {
				return err
			}
			printJSON(p)
			return nil
		},
	}
	rootCmd.AddCommand(productCmd)

	// checkout
	checkoutCmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order from the current cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			id := sessions.Resolve()
			if id.Kind == domain.IdentityGuest {
				if len(cart.NewStore(kvStore).State().Items) == 0 {
					return errors.New("cart is empty")
				}
				pushGuestCart(ctx)
			}

			start := time.Now()
			order, err := apiClient.PlaceOrder(ctx)
			if err != nil {
				slog.Error("checkout failed", "error", err)
				return err
			}
			if id.Kind == domain.IdentityGuest {
				if _, err := cart.NewStore(kvStore).Clear(); err != nil {
					return err
				}
			}
			slog.Info("order placed", "order_id", order.ID, "duration_ms", time.Since(start).Milliseconds())
			printJSON(order)
			return nil
		},
	}
	rootCmd.AddCommand(checkoutCmd)

	// orders
	ordersCmd := &cobra.Command{
		Use:   "orders",
		Short: "List past orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := apiClient.Orders(context.Background())
			if err != nil {
				return err
			}
			printJSON(out)
			return nil
		},
	}
	rootCmd.AddCommand(ordersCmd)

	// order
	orderCmd := &cobra.Command{
		Use:   "order <id>",
		Short: "Fetch one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := apiClient.Order(context.Background(), args[0])
			if err != nil {
				return err
			}
			printJSON(o)
			return nil
		},
	}
	rootCmd.AddCommand(orderCmd)

	// dev-server
	var addr string
	devServerCmd := &cobra.Command{
		Use:   "dev-server",
		Short: "Run the in-memory stub backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv := &http.Server{
				Addr:         addr,
				Handler:      stub.NewServer().Handler(),
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			idleConnsClosed := make(chan struct{})
			go func() {
				c := make(chan os.Signal, 1)
				signal.Notify(c, os.Interrupt)
				<-c
				ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				if err := srv.Shutdown(ctx); err != nil {
					slog.Error("shutdown failed", "error", err)
				}
				close(idleConnsClosed)
			}()

			slog.Info("stub backend listening", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			<-idleConnsClosed
			return nil
		},
	}
	devServerCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	rootCmd.AddCommand(devServerCmd)
}
