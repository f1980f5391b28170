// Package summary accumulates indicator records per (api, indicator) key
// and hands out periodic snapshots of the accumulated values.
//
// All state is owned by a single worker goroutine. Producers and snapshot
// requests reach it through one bounded FIFO queue, so the order in which
// tasks are admitted is the order in which they take effect.
package summary

import (
	"context"
	"fmt"
	"runtime/pprof"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/perfsummary/internal/indicator"
)

type task func()

// Service is the accumulator. It is safe for concurrent use.
type Service struct {
	name   string
	logger *zap.Logger
	clock  func() time.Time
	queue  chan task
	done   chan struct{}

	// lifecycle only; segment is never touched under this lock
	mu     sync.RWMutex
	closed bool

	// segment maps api -> indicator name -> summary. Worker-owned.
	segment map[string]map[string]*indicator.Summary

	// assembleReport builds one report; tests swap it from a worker task.
	assembleReport func(*indicator.Summary, time.Time) indicator.Report
}

// New creates a Service and starts its worker.
func New(opts Options) *Service {
	opts.normalize()

	s := &Service{
		name:    opts.Name,
		logger:  opts.Logger.With(zap.String("worker", opts.Name)),
		clock:   opts.Clock,
		queue:   make(chan task, opts.QueueCapacity),
		done:    make(chan struct{}),
		segment: make(map[string]map[string]*indicator.Summary),

		assembleReport: indicator.Assemble,
	}
	go s.run()

	s.logger.Info("Summary service started", zap.Int("queue_capacity", opts.QueueCapacity))
	return s
}

func (s *Service) run() {
	defer close(s.done)
	pprof.Do(context.Background(), pprof.Labels("worker", s.name), func(context.Context) {
		for t := range s.queue {
			s.execute(t)
		}
	})
	s.logger.Info("Summary worker stopped")
}

// execute runs a single task, keeping the worker alive if it panics.
func (s *Service) execute(t task) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Summary task panicked, continuing",
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
		}
	}()
	t()
}

// enqueue admits t without blocking.
func (s *Service) enqueue(t task) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrWorkerUnavailable
	}
	select {
	case s.queue <- t:
		return nil
	default:
		return ErrQueueSaturated
	}
}

// Submit queues rec for accumulation and returns immediately.
// The record is dropped when the error is non-nil.
func (s *Service) Submit(rec indicator.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	return s.enqueue(func() { s.apply(rec) })
}

// GetAndReset queues a snapshot behind every task admitted so far.
// The returned handle yields one report per key that received samples
// since its last reset; those keys are reset as part of the same task.
func (s *Service) GetAndReset() (*Pending, error) {
	p := newPending()
	err := s.enqueue(func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("Snapshot task panicked", zap.Any("panic", r), zap.Stack("stack"))
				p.resolve(nil, fmt.Errorf("%w: %v", ErrSnapshotFailed, r))
			}
		}()
		p.resolve(s.snapshot(), nil)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Len returns the number of tasks waiting for the worker.
func (s *Service) Len() int {
	return len(s.queue)
}

// Cap returns the queue capacity.
func (s *Service) Cap() int {
	return cap(s.queue)
}

// Close stops admitting tasks and waits until the admitted ones have drained.
// It is safe to call more than once.
func (s *Service) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
		s.logger.Info("Summary service closing, draining queue", zap.Int("pending_tasks", len(s.queue)))
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// apply runs on the worker.
func (s *Service) apply(rec indicator.Record) {
	indicators, ok := s.segment[rec.API]
	if !ok {
		indicators = make(map[string]*indicator.Summary)
		s.segment[rec.API] = indicators
	}

	summary, ok := indicators[rec.Name]
	if !ok {
		summary = indicator.NewSummary(rec, s.clock())
		indicators[rec.Name] = summary
		s.logger.Debug("Created summary",
			zap.String("api", rec.API),
			zap.String("indicator", rec.Name),
			zap.Stringer("operation", summary.Operation),
		)
	}
	summary.Apply(rec)
}

// snapshot runs on the worker.
func (s *Service) snapshot() []indicator.Report {
	now := s.clock()

	var (
		reports  []indicator.Report
		included []*indicator.Summary
	)
	for _, indicators := range s.segment {
		for _, summary := range indicators {
			if summary.Samples == 0 {
				continue
			}
			report, err := s.assemble(summary, now)
			if err != nil {
				s.logger.Error("Failed to assemble report, keeping summary for next snapshot",
					zap.String("api", summary.API),
					zap.String("indicator", summary.Name),
					zap.Error(err),
				)
				continue
			}
			reports = append(reports, report)
			included = append(included, summary)
		}
	}

	for _, summary := range included {
		summary.Reset(now)
	}

	s.logger.Debug("Snapshot taken", zap.Int("reports", len(reports)), zap.Time("at", now))
	return reports
}

func (s *Service) assemble(summary *indicator.Summary, now time.Time) (report indicator.Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSnapshotFailed, r)
		}
	}()
	return s.assembleReport(summary, now), nil
}
