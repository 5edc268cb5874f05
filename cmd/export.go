package main

import (
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/damsweep/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write all stored rows to an XLSX or CSV file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		name, _ := cmd.Flags().GetString("format")
		format, err := export.ParseFormat(name)
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = defaultExportPath(cfg.Output.Dir, format)
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		rows, err := st.ListRows(ctx)
		if err != nil {
			return eris.Wrap(err, "export")
		}
		if err := export.Write(out, format, rows); err != nil {
			return err
		}

		zap.L().Info("export written",
			zap.String("path", out),
			zap.String("format", string(format)),
			zap.Int("rows", len(rows)),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("format", string(export.FormatXLSX), "output format: xlsx or csv")
	exportCmd.Flags().String("out", "", "output file (default <output-dir>/spatial_feats.<format>)")
	rootCmd.AddCommand(exportCmd)
}

func defaultExportPath(dir string, f export.Format) string {
	return filepath.Join(dir, "spatial_feats."+string(f))
}
