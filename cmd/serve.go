package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kiezlabs/kiezscout/internal/model"
	"github.com/kiezlabs/kiezscout/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the map UI and the suitability API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg.Server.Port = port
		}
		dataDir, _ := cmd.Flags().GetString("data-dir")
		if dataDir == "" {
			dataDir = cfg.Data.OutDir
		}

		// The store is only a fallback data source here; serving from the
		// CSV outputs alone is fine.
		st, err := initStore(ctx)
		if err != nil {
			zap.L().Warn("serve: store unavailable, serving from disk only", zap.Error(err))
			st = nil
		} else {
			defer st.Close() //nolint:errcheck
		}

		data, err := server.LoadData(ctx, dataDir, st)
		if err != nil {
			return err
		}
		catalog, err := model.DefaultCatalog()
		if err != nil {
			return err
		}

		return server.New(cfg.Server, cfg.Scoring, catalog, data).Run(ctx)
	},
}

func init() {
	f := serveCmd.Flags()
	f.Int("port", 0, "listen port (default from config)")
	f.String("data-dir", "", "build output directory (default from config)")

	rootCmd.AddCommand(serveCmd)
}
