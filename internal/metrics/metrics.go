// Package metrics exposes the bridge's Prometheus counters and a debug
// HTTP server, following facebook-time's sptp PrometheusExporter
// pattern of a private registry plus promhttp.HandlerFor.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/flightpath-dev/mspmav-bridge/internal/middleware"
)

// Metrics holds every counter/gauge the bridge exports.
type Metrics struct {
	registry *prometheus.Registry

	FramesParsed      prometheus.Counter
	FrameParseErrors  prometheus.Counter
	MessagesEmitted   *prometheus.CounterVec
	GeneratorErrors   *prometheus.CounterVec
	ScheduleConflicts prometheus.Counter
	MspRequestLatency prometheus.Histogram
}

// New builds a Metrics with all collectors registered against a fresh
// private registry (never the global default, per facebook-time's
// exporter).
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		FramesParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mspmavbridge_msp_frames_parsed_total",
			Help: "MSP frames successfully decoded from the serial link.",
		}),
		FrameParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mspmavbridge_msp_frame_parse_errors_total",
			Help: "MSP frames rejected by the parser (bad checksum, unknown version/direction).",
		}),
		MessagesEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mspmavbridge_mavlink_messages_emitted_total",
			Help: "MAVLink messages sent, by message id.",
		}, []string{"message_id"}),
		GeneratorErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mspmavbridge_translator_generator_errors_total",
			Help: "Generator invocations that returned or panicked with an error, by message id.",
		}, []string{"message_id"}),
		ScheduleConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mspmavbridge_scheduler_insert_conflicts_total",
			Help: "Scheduler Insert calls that returned Conflict.",
		}),
		MspRequestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mspmavbridge_msp_request_duration_seconds",
			Help:    "Latency of synchronous MSP request/response round trips.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.FramesParsed,
		m.FrameParseErrors,
		m.MessagesEmitted,
		m.GeneratorErrors,
		m.ScheduleConflicts,
		m.MspRequestLatency,
	)
	return m
}

// Serve runs the debug/metrics HTTP server until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	srv := &http.Server{
		Addr:    addr,
		Handler: middleware.Recovery()(mux),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("metrics: graceful shutdown failed")
		}
		return ctx.Err()
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("metrics: server: %w", err)
		}
		return nil
	}
}
