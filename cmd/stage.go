package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/damsweep/internal/fetcher"
	"github.com/sells-group/damsweep/internal/inputs"
)

var stageCmd = &cobra.Command{
	Use:   "stage",
	Short: "Download the input layers into the input directory",
	Long:  "Fetches the dams and census shapefiles (with .shx, .dbf and .prj sidecars) and the slope raster from an ftp:// or http(s):// directory.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		source, _ := cmd.Flags().GetString("source")
		if source == "" {
			source = cfg.Input.SourceURL
		}
		if source == "" {
			return eris.New("stage: --source or input.source_url is required")
		}
		if dir, _ := cmd.Flags().GetString("input-dir"); dir != "" {
			cfg.Input.Dir = dir
		}

		f, err := fetcher.ForURL(source, fetcher.Options{
			Timeout:   cfg.Fetch.Timeout(),
			UserAgent: cfg.Fetch.UserAgent,
		})
		if err != nil {
			return err
		}

		written, err := inputs.Stage(ctx, f, source, cfg.Input)
		if err != nil {
			return err
		}
		zap.L().Info("inputs staged", zap.String("dir", cfg.Input.Dir), zap.Int("files", len(written)))
		return nil
	},
}

func init() {
	stageCmd.Flags().String("source", "", "ftp:// or http(s):// directory holding the inputs (default input.source_url)")
	stageCmd.Flags().String("input-dir", "", "destination directory (default from config)")
	rootCmd.AddCommand(stageCmd)
}
