package metric

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "starledger"

// File outcomes.
const (
	OutcomeCommitted = "committed"
	OutcomeDuplicate = "duplicate"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// Registry holds the application metrics.
type Registry struct {
	registry *prometheus.Registry

	FilesTotal         *prometheus.CounterVec
	StageDuration      *prometheus.HistogramVec
	CommitDuration     prometheus.Histogram
	EventsTotal        *prometheus.CounterVec
	SeriesRowsTotal    prometheus.Counter
	ExtractionWarnings *prometheus.CounterVec
	SessionState       *prometheus.GaugeVec
	Rescans            prometheus.Counter
}

// NewRegistry creates a registry with the pipeline metrics and the Go
// runtime and process collectors.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		FilesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Save files handled, by outcome",
		}, []string{"outcome"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of the read, parse and extract stages",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
		CommitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "commit_duration_seconds",
			Help:      "Duration of ledger commits (diff and write)",
			Buckets:   prometheus.DefBuckets,
		}),
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "History events committed, by event type",
		}, []string{"type"}),
		SeriesRowsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "series_rows_total",
			Help:      "Series rows committed",
		}),
		ExtractionWarnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_warnings_total",
			Help:      "Non-fatal extraction problems, by kind",
		}, []string{"kind"}),
		SessionState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_state",
			Help:      "1 for the current ingestion state of each session",
		}, []string{"session", "state"}),
		Rescans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rescans_total",
			Help:      "Save directory rescans",
		}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.FilesTotal,
		r.StageDuration,
		r.CommitDuration,
		r.EventsTotal,
		r.SeriesRowsTotal,
		r.ExtractionWarnings,
		r.SessionState,
		r.Rescans,
	)
	return r
}

var (
	globalOnce sync.Once
	global     *Registry
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() { global = NewRegistry() })
	return global
}

// Registerer exposes the registry to components registering their own
// collectors.
func (r *Registry) Registerer() prometheus.Registerer { return r.registry }

// Gatherer exposes the registry for tests and custom exposition.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.registry }

// ObserveStage records the duration of one pipeline stage.
func (r *Registry) ObserveStage(stage string, d time.Duration) {
	r.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// IncFile counts a handled save file.
func (r *Registry) IncFile(outcome string) {
	r.FilesTotal.WithLabelValues(outcome).Inc()
}

// SetSessionState marks state as the session's current state, clearing
// the others.
func (r *Registry) SetSessionState(session, state string, all []string) {
	for _, s := range all {
		v := 0.0
		if s == state {
			v = 1
		}
		r.SessionState.WithLabelValues(session, s).Set(v)
	}
}

// Handler returns the /metrics handler of the registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Serve exposes /metrics on addr until ctx is done.
func (r *Registry) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics endpoint listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
