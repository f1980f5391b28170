package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/perfsummary/internal/config"
	"github.com/sanspareilsmyn/perfsummary/internal/indicator"
	"github.com/sanspareilsmyn/perfsummary/internal/summary"
)

const maxRecordBodyBytes = 1 << 20

type ingestResponse struct {
	Accepted int    `json:"accepted"`
	Error    string `json:"error,omitempty"`
}

// NewRouter builds the HTTP surface: record ingress, metrics and health.
func NewRouter(ingester *Ingester, gatherer prometheus.Gatherer, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Post("/records", handleRecords(ingester))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

func handleRecords(ingester *Ingester) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRecordBodyBytes))
		if err != nil {
			writeIngestResponse(w, http.StatusRequestEntityTooLarge, ingestResponse{Error: err.Error()})
			return
		}

		accepted, err := ingester.Ingest(body)
		status := http.StatusAccepted
		switch {
		case err == nil:
		case errors.Is(err, indicator.ErrJSONUnmarshalFailed), errors.Is(err, indicator.ErrMalformedRecord):
			status = http.StatusBadRequest
		case errors.Is(err, summary.ErrQueueSaturated), errors.Is(err, summary.ErrWorkerUnavailable):
			status = http.StatusServiceUnavailable
		default:
			status = http.StatusInternalServerError
		}

		resp := ingestResponse{Accepted: accepted}
		if err != nil {
			resp.Error = err.Error()
		}
		writeIngestResponse(w, status, resp)
	}
}

func writeIngestResponse(w http.ResponseWriter, status int, resp ingestResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Debug("HTTP request",
				zap.String("method", r.Method),
				zap.String("url", r.RequestURI),
				zap.Int("status", ww.Status()),
				zap.Int("size", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// Server runs the HTTP surface until its context is cancelled.
type Server struct {
	srv    *http.Server
	logger *zap.Logger
}

// NewServer creates a new Server instance.
func NewServer(cfg config.HTTPConfig, handler http.Handler, logger *zap.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
		},
		logger: logger,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	sugar := s.logger.Sugar()
	errCh := make(chan error, 1)
	go func() {
		sugar.Infow("HTTP server listening", zap.String("addr", s.srv.Addr))
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			sugar.Errorw("HTTP server shutdown failed", zap.Error(err))
			return err
		}
		sugar.Info("HTTP server stopped.")
		return ctx.Err()
	}
}
