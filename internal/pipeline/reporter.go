package pipeline

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/perfsummary/internal/config"
	"github.com/sanspareilsmyn/perfsummary/internal/indicator"
	"github.com/sanspareilsmyn/perfsummary/internal/summary"
)

// Snapshotter hands out accumulated reports and resets them. *summary.Service satisfies it.
type Snapshotter interface {
	GetAndReset() (*summary.Pending, error)
}

// Batch is the set of reports produced by one snapshot.
type Batch struct {
	TakenAt time.Time
	Reports []indicator.Report
}

// Reporter polls a Snapshotter on a fixed interval and forwards each batch downstream.
type Reporter struct {
	config  config.SummaryConfig
	source  Snapshotter
	output  chan<- Batch
	metrics *Metrics
	logger  *zap.Logger
}

// NewReporter creates a new Reporter instance.
func NewReporter(cfg config.SummaryConfig, source Snapshotter, output chan<- Batch, metrics *Metrics, logger *zap.Logger) *Reporter {
	logger.Info("Reporter initialized",
		zap.Duration("report_interval", cfg.ReportInterval),
		zap.Duration("report_timeout", cfg.ReportTimeout),
	)
	return &Reporter{
		config:  cfg,
		source:  source,
		output:  output,
		metrics: metrics,
		logger:  logger,
	}
}

// Run flushes on every tick until ctx is cancelled. The final flush on
// shutdown is left to the caller, once producers have stopped.
func (r *Reporter) Run(ctx context.Context) error {
	sugar := r.logger.Sugar()
	sugar.Info("Starting reporter loop...")
	defer sugar.Info("Reporter loop stopped.")

	ticker := time.NewTicker(r.config.ReportInterval)
	defer ticker.Stop()

	for {
		select {
		case tickTime := <-ticker.C:
			sugar.Debugw("Ticker fired, requesting snapshot", zap.Time("tick_time", tickTime))
			if err := r.Flush(ctx); err != nil && !errors.Is(err, context.Canceled) {
				sugar.Warnw("Snapshot flush failed", zap.Error(err))
			}

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Flush requests one snapshot, waits up to the report timeout for it and
// sends the resulting batch downstream. Empty snapshots are forwarded too so
// the exporter can drop the previous window's series.
func (r *Reporter) Flush(ctx context.Context) error {
	pending, err := r.source.GetAndReset()
	if err != nil {
		r.metrics.Snapshots.WithLabelValues(outcomeOf(err)).Inc()
		return err
	}

	waitCtx, cancel := context.WithTimeout(ctx, r.config.ReportTimeout)
	defer cancel()

	reports, err := pending.Wait(waitCtx)
	if err != nil {
		// The snapshot still runs and resets; only its reports are lost to us.
		r.metrics.Snapshots.WithLabelValues(outcomeOf(err)).Inc()
		r.logger.Warn("Abandoned snapshot before it completed", zap.Error(err))
		return err
	}
	r.metrics.Snapshots.WithLabelValues("ok").Inc()

	batch := Batch{TakenAt: time.Now(), Reports: reports}
	if len(reports) > 0 {
		batch.TakenAt = reports[0].WindowEnd
	}
	select {
	case r.output <- batch:
		r.logger.Debug("Sent report batch", zap.Int("reports", len(reports)))
		return nil
	case <-ctx.Done():
		r.logger.Warn("Context ended before report batch could be delivered, dropping it",
			zap.Int("reports", len(reports)),
		)
		return ctx.Err()
	}
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, summary.ErrQueueSaturated):
		return reasonSaturated
	case errors.Is(err, summary.ErrWorkerUnavailable):
		return reasonUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "failed"
	}
}
