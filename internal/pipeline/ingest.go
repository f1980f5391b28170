package pipeline

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sanspareilsmyn/perfsummary/internal/indicator"
	"github.com/sanspareilsmyn/perfsummary/internal/summary"
)

// Submitter accepts records for accumulation. *summary.Service satisfies it.
type Submitter interface {
	Submit(rec indicator.Record) error
}

// Ingester turns raw payloads into records and hands them to a Submitter.
type Ingester struct {
	submitter Submitter
	metrics   *Metrics
	logger    *zap.Logger

	// Drops can arrive at line rate; only some of them are logged.
	dropLog rate.Sometimes
}

// NewIngester creates a new Ingester instance.
func NewIngester(submitter Submitter, metrics *Metrics, logger *zap.Logger) *Ingester {
	return &Ingester{
		submitter: submitter,
		metrics:   metrics,
		logger:    logger,
		dropLog:   rate.Sometimes{First: 10, Interval: 10 * time.Second},
	}
}

// Ingest parses payload (one record or a JSON array of records) and submits
// every record. It returns how many were admitted and the first error seen.
// A parse error rejects the whole payload.
func (i *Ingester) Ingest(payload []byte) (int, error) {
	recs, err := indicator.ParseRecords(payload)
	if err != nil {
		i.metrics.RecordsRejected.WithLabelValues(reasonMalformed).Inc()
		i.dropLog.Do(func() {
			i.logger.Warn("Failed to parse record payload, skipping", zap.Error(err))
		})
		return 0, err
	}

	accepted := 0
	var firstErr error
	for _, rec := range recs {
		if err := i.submitter.Submit(rec); err != nil {
			i.reject(rec, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		i.metrics.RecordsSubmitted.Inc()
		accepted++
	}
	return accepted, firstErr
}

func (i *Ingester) reject(rec indicator.Record, err error) {
	reason := reasonMalformed
	switch {
	case errors.Is(err, summary.ErrQueueSaturated):
		reason = reasonSaturated
	case errors.Is(err, summary.ErrWorkerUnavailable):
		reason = reasonUnavailable
	}
	i.metrics.RecordsRejected.WithLabelValues(reason).Inc()
	i.dropLog.Do(func() {
		i.logger.Warn("Record dropped",
			zap.String("api", rec.API),
			zap.String("indicator", rec.Name),
			zap.String("reason", reason),
			zap.Error(err),
		)
	})
}

// Run ingests payloads from input until it is closed or ctx is cancelled.
func (i *Ingester) Run(ctx context.Context, input <-chan []byte) error {
	sugar := i.logger.Sugar()
	sugar.Info("Starting ingest loop...")
	defer sugar.Info("Ingest loop stopped.")

	for {
		select {
		case payload, ok := <-input:
			if !ok {
				sugar.Debug("Ingest input channel closed.")
				return nil
			}
			_, _ = i.Ingest(payload)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
