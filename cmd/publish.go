package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/damsweep/internal/store"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Copy all stored rows into a Postgres database",
	Long:  "Reads every row from the configured store and bulk-upserts it into the zone_stats table of the target Postgres database.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		target, _ := cmd.Flags().GetString("database-url")
		if target == "" {
			return eris.New("publish: --database-url is required")
		}

		src, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer src.Close() //nolint:errcheck

		rows, err := src.ListRows(ctx)
		if err != nil {
			return eris.Wrap(err, "publish: read rows")
		}

		pg, err := store.NewPostgres(ctx, target, cfg.Store.Pool)
		if err != nil {
			return err
		}
		defer pg.Close() //nolint:errcheck
		if err := pg.Migrate(ctx); err != nil {
			return err
		}

		n, err := pg.PublishRows(ctx, rows)
		if err != nil {
			return err
		}
		zap.L().Info("rows published", zap.Int64("rows", n))
		return nil
	},
}

func init() {
	publishCmd.Flags().String("database-url", "", "target Postgres connection string")
	rootCmd.AddCommand(publishCmd)
}
