package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/perfsummary/internal/indicator"
)

// Exporter receives report batches, logs each report and publishes it as Prometheus gauges.
type Exporter struct {
	input   <-chan Batch
	metrics *Metrics
	logger  *zap.Logger
}

// NewExporter creates a new Exporter instance.
func NewExporter(input <-chan Batch, metrics *Metrics, logger *zap.Logger) *Exporter {
	return &Exporter{
		input:   input,
		metrics: metrics,
		logger:  logger,
	}
}

// Run exports batches until the input channel is closed. It does not stop
// on ctx so that the batch flushed at shutdown still gets out.
func (e *Exporter) Run(_ context.Context) error {
	sugar := e.logger.Sugar()
	sugar.Info("Starting exporter loop...")
	defer sugar.Info("Exporter loop stopped.")

	for batch := range e.input {
		e.Export(batch)
	}
	return nil
}

// Export publishes one batch. Gauges only carry the keys of the latest
// window, so series for idle keys disappear.
func (e *Exporter) Export(batch Batch) {
	e.metrics.IndicatorValue.Reset()
	e.metrics.IndicatorSamples.Reset()

	if len(batch.Reports) == 0 {
		e.logger.Debug("Snapshot empty, cleared indicator gauges", zap.Time("taken_at", batch.TakenAt))
		return
	}

	for _, report := range batch.Reports {
		e.exportReport(report)
	}

	e.logger.Info("Report batch exported",
		zap.Time("taken_at", batch.TakenAt),
		zap.Int("reports", len(batch.Reports)),
	)
}

func (e *Exporter) exportReport(report indicator.Report) {
	op := report.Operation.String()
	e.metrics.IndicatorSamples.WithLabelValues(report.API, report.Name, op).Set(float64(report.Samples))

	fields := []zap.Field{
		zap.String("api", report.API),
		zap.String("indicator", report.Name),
		zap.String("operation", op),
		zap.Int64("samples", report.Samples),
	}
	if !report.Defined {
		e.logger.Warn(report.Result, fields...)
		return
	}

	e.metrics.IndicatorValue.WithLabelValues(report.API, report.Name, op).Set(report.Value.Float64())
	fields = append(fields,
		zap.Stringer("value", report.Value),
		zap.String("unit", report.Unit),
	)
	e.logger.Info(report.Result, fields...)
}
