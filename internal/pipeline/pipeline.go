package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/perfsummary/internal/config"
	"github.com/sanspareilsmyn/perfsummary/internal/summary"
)

const channelBufferSize = 100

// Pipeline wires record sources into the summary service and its output into the exporter.
//
//	kafka consumer -> ingester --\
//	                              +-> summary.Service <- reporter -> exporter
//	http /records  -> ingester --/
type Pipeline struct {
	cfg      *config.Config
	service  *summary.Service
	registry *prometheus.Registry

	consumer *Consumer // nil when kafka is disabled
	ingester *Ingester
	server   *Server // nil when http is disabled
	reporter *Reporter
	exporter *Exporter
	logger   *zap.Logger

	rawMessages chan []byte
	batches     chan Batch
}

// New creates and wires up a new pipeline.
func New(cfg *config.Config, logger *zap.Logger) (*Pipeline, error) {
	initLogger := logger.Named("pipeline.init")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := NewMetrics(registry)

	service := summary.New(summary.Options{
		QueueCapacity: cfg.Summary.QueueCapacity,
		Name:          cfg.Summary.WorkerName,
		Logger:        logger.Named("summary"),
	})
	registerQueueGauges(registry, service.Len, service.Cap)

	p := &Pipeline{
		cfg:      cfg,
		service:  service,
		registry: registry,
		logger:   logger.Named("pipeline"),
		batches:  make(chan Batch, channelBufferSize),
	}
	p.ingester = NewIngester(service, metrics, logger.Named("ingest"))
	p.reporter = NewReporter(cfg.Summary, service, p.batches, metrics, logger.Named("reporter"))
	p.exporter = NewExporter(p.batches, metrics, logger.Named("exporter"))

	if cfg.Kafka.Enabled {
		p.rawMessages = make(chan []byte, channelBufferSize)
		consumer, err := NewConsumer(cfg.Kafka, p.rawMessages, logger.Named("consumer"))
		if err != nil {
			initLogger.Error("Failed to create consumer", zap.Error(err))
			_ = service.Close(context.Background())
			return nil, fmt.Errorf("%w: %w", ErrConsumerCreationFailed, err)
		}
		p.consumer = consumer
	}

	if cfg.HTTP.Enabled {
		httpLogger := logger.Named("http")
		p.server = NewServer(cfg.HTTP, NewRouter(p.ingester, registry, httpLogger), httpLogger)
	}

	initLogger.Info("Pipeline instance created successfully",
		zap.Bool("kafka_enabled", cfg.Kafka.Enabled),
		zap.Bool("http_enabled", cfg.HTTP.Enabled),
	)
	return p, nil
}

// Run starts all components and blocks until ctx is cancelled or one of them fails.
// On the way out, record sources are stopped first, then one last snapshot
// is flushed and exported, and finally the summary service is closed.
func (p *Pipeline) Run(ctx context.Context) error {
	sugar := p.logger.Sugar()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var ingress, egress sync.WaitGroup
	errCh := make(chan error, 4)

	sugar.Info("Pipeline Run: Starting components...")

	if p.consumer != nil {
		ingress.Add(2)
		go p.runConsumer(runCtx, &ingress, errCh)
		go func() {
			defer ingress.Done()
			_ = p.ingester.Run(runCtx, p.rawMessages)
		}()
	}
	if p.server != nil {
		ingress.Add(1)
		go p.runComponent(runCtx, &ingress, errCh, "http server", ErrServerRunFailed, p.server.Run)
	}

	ingress.Add(1)
	go p.runComponent(runCtx, &ingress, errCh, "reporter", ErrReporterRunFailed, p.reporter.Run)

	egress.Add(1)
	go func() {
		defer egress.Done()
		_ = p.exporter.Run(runCtx)
	}()

	var firstErr error
	select {
	case <-ctx.Done():
		sugar.Info("Pipeline Run: Context cancelled. Waiting for components to finish...")
		firstErr = ctx.Err()
	case err := <-errCh:
		sugar.Errorw("Pipeline Run: Received error from a component, initiating shutdown...", zap.Error(err))
		firstErr = err
	}
	cancel()
	ingress.Wait()

	p.shutdown(&egress)
	sugar.Info("Pipeline Run: All components finished.")

	if firstErr != nil && !errors.Is(firstErr, context.Canceled) {
		return firstErr
	}
	return nil
}

func (p *Pipeline) shutdown(egress *sync.WaitGroup) {
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.Summary.ReportTimeout)
	defer cancel()

	if err := p.reporter.Flush(ctx); err != nil {
		p.logger.Warn("Final snapshot flush failed", zap.Error(err))
	}
	close(p.batches)
	egress.Wait()

	if err := p.service.Close(ctx); err != nil {
		p.logger.Warn("Summary service did not drain before timeout", zap.Error(err))
	}
}

func (p *Pipeline) runConsumer(ctx context.Context, wg *sync.WaitGroup, errCh chan<- error) {
	defer wg.Done()
	defer close(p.rawMessages)

	if err := p.consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Error("Consumer component exited with error", zap.Error(err))
		errCh <- fmt.Errorf("%w: %w", ErrConsumerRunFailed, err)
	}
}

func (p *Pipeline) runComponent(ctx context.Context, wg *sync.WaitGroup, errCh chan<- error, name string, wrap error, run func(context.Context) error) {
	defer wg.Done()

	p.logger.Debug("Starting component goroutine...", zap.String("component", name))
	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Error("Component exited with error", zap.String("component", name), zap.Error(err))
		errCh <- fmt.Errorf("%w: %w", wrap, err)
		return
	}
	p.logger.Debug("Component goroutine finished", zap.String("component", name))
}

// Service exposes the underlying accumulator.
func (p *Pipeline) Service() *summary.Service {
	return p.service
}

// Registry exposes the Prometheus registry backing /metrics.
func (p *Pipeline) Registry() *prometheus.Registry {
	return p.registry
}
