package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/damsweep/internal/aggregate"
	"github.com/sells-group/damsweep/internal/config"
	"github.com/sells-group/damsweep/internal/geometry"
	"github.com/sells-group/damsweep/internal/inputs"
	"github.com/sells-group/damsweep/internal/sweep"
	"github.com/sells-group/damsweep/internal/zone"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Compute zone statistics over the length x width grid",
	Long: `Loads the dams, census and slope layers, then for every (N_length, N_width)
pair builds the downstream regions, aggregates max slope and census sums over
them and stores one row under N_length_{L}_N_width_{W}.

Per-point failures are reported and the sweep continues unless --fail-fast is set.`,
	RunE: runSweep,
}

func init() {
	addSweepFlags(sweepCmd)
	rootCmd.AddCommand(sweepCmd)
}

func addSweepFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("length", "", "length multipliers as start:stop:step, stop inclusive (default from config, 1:79:2)")
	f.String("width", "", "width multipliers as start:stop:step, stop inclusive (default from config, 1:79:2)")
	f.Int("concurrency", 0, "number of grid points computed in parallel (default from config)")
	f.Bool("fail-fast", false, "abort the sweep on the first failed grid point")
	f.String("input-dir", "", "directory holding the input layers (default from config)")
	f.String("output-dir", "", "directory for the store and run report (default from config)")
}

// applySweepFlags overrides config values with the flags set on cmd.
func applySweepFlags(cmd *cobra.Command, c *config.Config) {
	f := cmd.Flags()
	if f.Changed("length") {
		c.Sweep.Length, _ = f.GetString("length")
	}
	if f.Changed("width") {
		c.Sweep.Width, _ = f.GetString("width")
	}
	if f.Changed("concurrency") {
		c.Sweep.Concurrency, _ = f.GetInt("concurrency")
	}
	if f.Changed("fail-fast") {
		c.Sweep.FailFast, _ = f.GetBool("fail-fast")
	}
	if f.Changed("input-dir") {
		c.Input.Dir, _ = f.GetString("input-dir")
	}
	if f.Changed("output-dir") {
		c.Output.Dir, _ = f.GetString("output-dir")
	}
}

func runSweep(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	applySweepFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	lengths, widths, err := cfg.Sweep.Ranges()
	if err != nil {
		return err
	}

	engine := geometry.NewGEOSEngine()
	in, err := inputs.Load(cfg.Input, engine)
	if err != nil {
		return eris.Wrap(err, "sweep: load inputs")
	}

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	opts := sweep.Options{
		Lengths:     lengths,
		Widths:      widths,
		Concurrency: cfg.Sweep.Concurrency,
		FailFast:    cfg.Sweep.FailFast,
		Retry:       cfg.Sweep.Retry,
	}
	driver := sweep.NewDriver(zone.NewBuilder(engine), aggregate.New(), st)
	sum, runErr := driver.Run(ctx, *in, opts)
	if sum != nil {
		path, err := sweep.WriteReport(cfg.Output.Dir, sweep.NewReport(sum, opts))
		if err != nil {
			zap.L().Error("sweep: write report", zap.Error(err))
		} else {
			zap.L().Info("run report written", zap.String("path", path))
		}
		printSummary(os.Stdout, sum)
	}
	return runErr
}

// printSummary writes the human-readable outcome of a sweep to out.
func printSummary(out io.Writer, sum *sweep.Summary) {
	p := message.NewPrinter(language.English)
	_, _ = p.Fprintf(out, "Run %s: %s\n", sum.RunID, sum.Status)
	_, _ = p.Fprintf(out, "  points:    %d\n", sum.Points)
	_, _ = p.Fprintf(out, "  succeeded: %d\n", sum.Succeeded)
	_, _ = p.Fprintf(out, "  failed:    %d\n", len(sum.Failures))
	_, _ = p.Fprintf(out, "  skipped:   %d\n", sum.Skipped)
	_, _ = p.Fprintf(out, "  elapsed:   %s\n", sum.Elapsed.Round(time.Millisecond))

	if len(sum.Failures) == 0 {
		return
	}
	_, _ = fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "KEY\tKIND\tREASON")
	_, _ = fmt.Fprintln(w, "---\t----\t------")
	for _, f := range sum.Failures {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", f.Key, f.Kind, truncate(f.Reason, 100))
	}
	_ = w.Flush()
}

// truncate shortens s to at most n runes, appending "..." when cut.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
