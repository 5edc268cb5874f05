// Package sweep runs the zone statistics computation over a grid of
// downstream length and width multipliers.
package sweep

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/damsweep/internal/aggregate"
	"github.com/sells-group/damsweep/internal/model"
	"github.com/sells-group/damsweep/internal/resilience"
	"github.com/sells-group/damsweep/internal/store"
	"github.com/sells-group/damsweep/internal/zone"
)

// Inputs are the loaded, read-only layers shared by every grid point.
type Inputs struct {
	Dams   []model.DamFeature
	Census *aggregate.Layer
	Slope  aggregate.SlopeSource
}

// Options configure a sweep.
type Options struct {
	Lengths     model.Range
	Widths      model.Range
	Concurrency int
	FailFast    bool

	// Retry applies to store writes.
	Retry resilience.RetryConfig
	// ProgressInterval throttles progress logging. Zero logs every 10s.
	ProgressInterval time.Duration
}

// PointFailure records why a grid point produced no row.
type PointFailure struct {
	Key    string              `json:"key" yaml:"key"`
	Pair   model.ParameterPair `json:"-" yaml:"-"`
	Kind   model.ErrorKind     `json:"kind" yaml:"kind"`
	Reason string              `json:"reason" yaml:"reason"`
}

// Summary is the outcome of a sweep.
type Summary struct {
	RunID     string
	Status    model.RunStatus
	Points    int
	Succeeded int
	Skipped   int
	Failures  []PointFailure
	StartedAt time.Time
	Elapsed   time.Duration
}

// Driver fans grid points out to workers and funnels their rows to the store
// through a single writer.
type Driver struct {
	builder *zone.Builder
	agg     *aggregate.Aggregator
	store   store.Store
	log     *zap.Logger
}

// NewDriver creates a Driver writing to st.
func NewDriver(builder *zone.Builder, agg *aggregate.Aggregator, st store.Store) *Driver {
	return &Driver{
		builder: builder,
		agg:     agg,
		store:   st,
		log:     zap.L().With(zap.String("component", "sweep")),
	}
}

type pointResult struct {
	pair model.ParameterPair
	row  model.ZoneStatsRow
	err  error
}

// Run computes and stores one row per grid point. In continue mode per-point
// failures are collected in the summary and Run returns nil. Run returns an
// error when the sweep cannot start, when a fail-fast sweep hits a failure or
// when ctx is cancelled; the summary is still returned once the run exists.
func (d *Driver) Run(ctx context.Context, in Inputs, opts Options) (*Summary, error) {
	if err := opts.Lengths.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Widths.Validate(); err != nil {
		return nil, err
	}
	if in.Census == nil {
		return nil, model.Errorf(model.KindInputLoad, "sweep: no census layer")
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = 10 * time.Second
	}
	if opts.Retry.OnRetry == nil {
		opts.Retry.OnRetry = resilience.RetryLogger("sweep", "put_row")
	}

	pairs := model.Grid(opts.Lengths, opts.Widths)

	// Bookkeeping writes must land even when ctx is cancelled.
	writeCtx := context.WithoutCancel(ctx)
	run, err := d.store.CreateRun(writeCtx, len(pairs))
	if err != nil {
		return nil, model.NewError(model.KindStoreWrite, eris.Wrap(err, "sweep: create run"))
	}

	sum := &Summary{RunID: run.ID, Points: len(pairs), StartedAt: run.StartedAt}
	log := d.log.With(zap.String("run_id", run.ID))
	log.Info("sweep started",
		zap.Int("points", len(pairs)),
		zap.Stringer("length", opts.Lengths),
		zap.Stringer("width", opts.Widths),
		zap.Int("concurrency", opts.Concurrency),
		zap.Bool("fail_fast", opts.FailFast),
	)

	runCtx, abort := context.WithCancelCause(ctx)
	defer abort(nil)

	results := make(chan pointResult, opts.Concurrency)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		d.write(writeCtx, runCtx, run.ID, results, sum, opts, abort, log)
	}()

	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(opts.Concurrency)
	for _, p := range pairs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			row, err := d.point(gctx, in, p)
			results <- pointResult{pair: p, row: row, err: err}
			return nil
		})
	}
	_ = g.Wait()
	close(results)
	<-writerDone

	sort.Slice(sum.Failures, func(i, j int) bool {
		a, b := sum.Failures[i].Pair, sum.Failures[j].Pair
		if a.Length != b.Length {
			return a.Length < b.Length
		}
		return a.Width < b.Width
	})
	sum.Skipped = sum.Points - sum.Succeeded - len(sum.Failures)
	sum.Elapsed = time.Since(sum.StartedAt)

	var runErr error
	switch {
	case ctx.Err() != nil:
		sum.Status = model.RunStatusAborted
		runErr = eris.Wrap(ctx.Err(), "sweep: interrupted")
	case context.Cause(runCtx) != nil:
		sum.Status = model.RunStatusAborted
		runErr = eris.Wrap(context.Cause(runCtx), "sweep: aborted on first failure")
	case len(sum.Failures) > 0:
		sum.Status = model.RunStatusPartial
	default:
		sum.Status = model.RunStatusComplete
	}

	run.Status = sum.Status
	run.Succeeded = sum.Succeeded
	run.Failed = len(sum.Failures)
	if err := d.store.FinishRun(writeCtx, run); err != nil {
		log.Error("sweep: finish run", zap.Error(err))
	}

	log.Info("sweep finished",
		zap.String("status", string(sum.Status)),
		zap.Int("succeeded", sum.Succeeded),
		zap.Int("failed", len(sum.Failures)),
		zap.Int("skipped", sum.Skipped),
		zap.Duration("elapsed", sum.Elapsed),
	)
	return sum, runErr
}

// point computes the row of one grid point.
func (d *Driver) point(ctx context.Context, in Inputs, p model.ParameterPair) (model.ZoneStatsRow, error) {
	regions, err := d.builder.Build(ctx, in.Dams, p)
	if err != nil {
		return model.ZoneStatsRow{}, err
	}
	return d.agg.Aggregate(ctx, p, regions, in.Slope, in.Census)
}

// write is the only caller of the store's row methods.
func (d *Driver) write(ctx, runCtx context.Context, runID string, results <-chan pointResult, sum *Summary, opts Options, abort context.CancelCauseFunc, log *zap.Logger) {
	progress := rate.Sometimes{First: 1, Interval: opts.ProgressInterval}
	done := 0

	for res := range results {
		err := res.err
		if err == nil {
			err = resilience.Do(ctx, opts.Retry, func(ctx context.Context) error {
				return d.store.PutRow(ctx, runID, res.row)
			})
			if err != nil {
				err = model.NewError(model.KindStoreWrite, err)
			}
		}

		switch {
		case err == nil:
			sum.Succeeded++
		case stoppedByRun(runCtx, err):
			// Point stopped by the abort; counted as skipped.
		default:
			sum.Failures = append(sum.Failures, PointFailure{
				Key:    res.pair.Key(),
				Pair:   res.pair,
				Kind:   model.KindOf(err),
				Reason: err.Error(),
			})
			log.Warn("sweep: point failed", zap.String("key", res.pair.Key()), zap.Error(err))
			if opts.FailFast {
				abort(err)
			}
		}

		done++
		progress.Do(func() {
			log.Info("sweep progress", zap.Int("done", done), zap.Int("points", sum.Points))
		})
	}
}

// stoppedByRun reports whether err only reflects runCtx having ended.
func stoppedByRun(runCtx context.Context, err error) bool {
	if runCtx.Err() == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
