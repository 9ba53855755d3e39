package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kiezlabs/kiezscout/internal/config"
	"github.com/kiezlabs/kiezscout/internal/store"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "kiezscout",
	Short: "Berlin neighborhood suitability explorer",
	Long: "Preprocesses Berlin open datasets into per-neighborhood and per-district\n" +
		"feature tables, computes weighted suitability scores, and serves an\n" +
		"interactive map over HTTP.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func initStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
