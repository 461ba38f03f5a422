// Package cli provides the Cobra-based CLI for the storefront client.
package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"storefront/api"
	"storefront/cart"
	"storefront/domain"
	"storefront/session"
	"storefront/store"
)

var (
	rootCmd = &cobra.Command{
		Use:   "storefront",
		Short: "A storefront client: browse products, manage your cart, place orders",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// IMPORTANT: allow tests to inject storage and client
			if sessions != nil {
				return nil
			}

			if cfg := viper.GetString("config"); cfg != "" {
				viper.SetConfigFile(cfg)
				if err := viper.ReadInConfig(); err != nil {
					return err
				}
			}

			lvlStr := strings.ToLower(viper.GetString("log-level"))
			lvl := slog.LevelInfo
			switch lvlStr {
			case "debug":
				lvl = slog.LevelDebug
			case "warn", "warning":
				lvl = slog.LevelWarn
			case "error":
				lvl = slog.LevelError
			}
			slog.SetDefault(slog.New(
				slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}),
			))

			var err error
			kvStore, err = store.NewStore(
				viper.GetString("store"),
				viper.GetString("store-file"),
			)
			if err != nil {
				return err
			}
			sessions = session.NewStore(kvStore)

			timeout, err := time.ParseDuration(viper.GetString("http-timeout"))
			if err != nil {
				return fmt.Errorf("invalid http-timeout: %w", err)
			}
			apiClient = api.NewClient(viper.GetString("api-url"), timeout, sessions.Resolve)
			return nil
		},
	}

	kvStore   domain.KeyValueStore
	sessions  *session.Store
	apiClient *api.Client
)

func init() {
	rootCmd.PersistentFlags().String("api-url", "http://localhost:8080/api", "backend API base URL")
	rootCmd.PersistentFlags().String("store", "file", "store backend: memory|file")
	rootCmd.PersistentFlags().String("store-file", "data/storefront.json", "file store path")
	rootCmd.PersistentFlags().String("config", "", "config file")
	rootCmd.PersistentFlags().String("log-level", "info", "log level")
	rootCmd.PersistentFlags().String("http-timeout", "10s", "request timeout")

	viper.BindPFlag("api-url", rootCmd.PersistentFlags().Lookup("api-url"))
	viper.BindPFlag("store", rootCmd.PersistentFlags().Lookup("store"))
	viper.BindPFlag("store-file", rootCmd.PersistentFlags().Lookup("store-file"))
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("http-timeout", rootCmd.PersistentFlags().Lookup("http-timeout"))
	viper.SetEnvPrefix("STOREFRONT")
	viper.AutomaticEnv()

	// shell
	shellCmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive shell mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := bufio.NewReader(os.Stdin)
			for {
				fmt.Print("storefront> ")
				line, err := r.ReadString('\n')
				if err != nil {
					return nil
				}
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				if line == "exit" || line == "quit" {
					return nil
				}
				rootCmd.SetArgs(strings.Fields(line))
				if err := rootCmd.Execute(); err != nil {
					fmt.Fprintln(os.Stderr, err)
				}
				rootCmd.SetArgs(nil)
			}
		},
	}
	rootCmd.AddCommand(shellCmd)
}

// newCartManager builds a manager for the current identity; the mode branch
// (local guest cart vs server-authoritative cart) happens here and nowhere
// else.
func newCartManager() *cart.Manager {
	return cart.NewManager(sessions.Resolve(), cart.NewStore(kvStore), apiClient)
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func Execute() error {
	return rootCmd.Execute()
}
