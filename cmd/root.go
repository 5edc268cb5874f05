package main

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/damsweep/internal/config"
	"github.com/sells-group/damsweep/internal/store"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "damsweep",
	Short: "Dam downstream-zone parameter sweep",
	Long:  "Derives downstream impact zones for dam drains over a grid of length and width multipliers and stores slope and census statistics per grid point.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

// openStore opens the configured result store, creating the output
// directory for the SQLite file when needed.
func openStore(ctx context.Context) (store.Store, error) {
	if cfg.Store.Driver != store.DriverPostgres && cfg.Store.DatabaseURL == "" {
		if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "create output dir %s", cfg.Output.Dir)
		}
	}
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN(cfg.Output.Dir))
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	return st, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
