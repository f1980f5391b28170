package summary

import (
	"time"

	"go.uber.org/zap"
)

const (
	DefaultQueueCapacity = 1024
	DefaultWorkerName    = "perf-summary"
)

// Options configure a Service.
type Options struct {
	QueueCapacity int              // bounded task queue size; submissions beyond it are rejected
	Name          string           // worker name, attached to logs and the worker goroutine's pprof labels
	Logger        *zap.Logger      // defaults to a no-op logger
	Clock         func() time.Time // injection point for tests
}

func (o *Options) normalize() {
	if o.QueueCapacity <= 0 {
		o.QueueCapacity = DefaultQueueCapacity
	}
	if o.Name == "" {
		o.Name = DefaultWorkerName
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
}
