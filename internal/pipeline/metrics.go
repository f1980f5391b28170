package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reasons a record or snapshot request can be turned away.
const (
	reasonSaturated   = "saturated"
	reasonUnavailable = "unavailable"
	reasonMalformed   = "malformed"
)

// Metrics holds the Prometheus collectors shared by the pipeline stages.
type Metrics struct {
	IndicatorValue   *prometheus.GaugeVec
	IndicatorSamples *prometheus.GaugeVec
	RecordsSubmitted prometheus.Counter
	RecordsRejected  *prometheus.CounterVec
	Snapshots        *prometheus.CounterVec
}

// NewMetrics registers the pipeline collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		IndicatorValue: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "perfsummary_indicator_window_value",
				Help: "Display value of an indicator over the last report window (sum, average or count).",
			},
			[]string{"api", "indicator", "operation"},
		),
		IndicatorSamples: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "perfsummary_indicator_window_samples",
				Help: "Number of samples folded into an indicator over the last report window.",
			},
			[]string{"api", "indicator", "operation"},
		),
		RecordsSubmitted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "perfsummary_records_submitted_total",
				Help: "Records admitted to the summary queue.",
			},
		),
		RecordsRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "perfsummary_records_rejected_total",
				Help: "Records dropped before accumulation, by reason.",
			},
			[]string{"reason"},
		),
		Snapshots: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "perfsummary_snapshots_total",
				Help: "Snapshot requests by outcome (ok, saturated, unavailable, timeout, failed).",
			},
			[]string{"outcome"},
		),
	}
}

// registerQueueGauges exposes the live queue depth and capacity of the summary worker.
func registerQueueGauges(reg prometheus.Registerer, depth, capacity func() int) {
	factory := promauto.With(reg)
	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "perfsummary_queue_depth",
			Help: "Tasks waiting for the summary worker.",
		},
		func() float64 { return float64(depth()) },
	)
	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "perfsummary_queue_capacity",
			Help: "Capacity of the summary task queue.",
		},
		func() float64 { return float64(capacity()) },
	)
}
