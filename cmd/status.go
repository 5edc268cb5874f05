package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/damsweep/internal/model"
	"github.com/sells-group/damsweep/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sweep runs and the number of stored rows",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListRuns(ctx, store.RunFilter{Status: model.RunStatus(status), Limit: limit})
		if err != nil {
			return eris.Wrap(err, "status")
		}
		n, err := st.CountRows(ctx)
		if err != nil {
			return eris.Wrap(err, "status")
		}

		_, _ = message.NewPrinter(language.English).Fprintf(os.Stdout, "Rows stored: %d\n\n", n)
		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}
		formatRuns(os.Stdout, runs)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <key>",
	Short: "Print the stored row for a key such as N_length_3_N_width_5",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if _, err := model.ParseKey(args[0]); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		row, err := st.GetRow(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "show")
		}
		if row == nil {
			return eris.Errorf("show: no row stored for %s", args[0])
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(row)
	},
}

func init() {
	statusCmd.Flags().String("status", "", "filter by run status (running, complete, partial, aborted, failed)")
	statusCmd.Flags().Int("limit", 20, "max number of runs to display")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(showCmd)
}

// formatRuns writes a tabular list of runs to out.
func formatRuns(out io.Writer, runs []model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTATUS\tPOINTS\tSUCCEEDED\tFAILED\tSTARTED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t------\t------\t---------\t------\t-------\t--------")

	for _, r := range runs {
		dur := "-"
		if r.FinishedAt != nil {
			dur = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			r.ID,
			r.Status,
			r.Points,
			r.Succeeded,
			r.Failed,
			r.StartedAt.Format("2006-01-02 15:04"),
			dur,
		)
	}
	_ = w.Flush()
}
