// Package metrics exposes cleanup outcomes as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/glorpus-work/reposweep/pkg/orchestrator"
)

const namespace = "reposweep"

// Verdict label values.
const (
	VerdictKept    = "kept"
	VerdictDeleted = "deleted"
	VerdictVetoed  = "vetoed"
)

// Collector owns a private registry with the cleanup metrics:
//   - reposweep_evaluations_total{repository,verdict}
//   - reposweep_skipped_total{repository}
//   - reposweep_deletions_total{repository,result}
//   - reposweep_target_failures_total{repository}
//   - reposweep_run_duration_seconds{repository}
//   - reposweep_last_run_timestamp_seconds{repository}
type Collector struct {
	registry *prometheus.Registry

	evaluations    *prometheus.CounterVec
	skipped        *prometheus.CounterVec
	deletions      *prometheus.CounterVec
	targetFailures *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	lastRun        *prometheus.GaugeVec

	now func() time.Time
}

// NewCollector creates a collector. A nil registry gets a fresh one.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,
		evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "evaluations_total",
				Help:      "Components evaluated by repository and verdict",
			},
			[]string{"repository", "verdict"},
		),
		skipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "skipped_total",
				Help:      "Components excluded from evaluation",
			},
			[]string{"repository"},
		),
		deletions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "deletions_total",
				Help:      "Deletion attempts by repository and result",
			},
			[]string{"repository", "result"},
		),
		targetFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "target_failures_total",
				Help:      "Repositories that could not be listed or evaluated",
			},
			[]string{"repository"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Time spent cleaning up one repository",
				Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
			},
			[]string{"repository"},
		),
		lastRun: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time of the last finished cleanup per repository",
			},
			[]string{"repository"},
		),
		now: time.Now,
	}

	registry.MustRegister(
		c.evaluations,
		c.skipped,
		c.deletions,
		c.targetFailures,
		c.duration,
		c.lastRun,
	)
	return c
}

// ObserveTarget records the outcome of one repository.
func (c *Collector) ObserveTarget(result *orchestrator.TargetResult) {
	repo := result.Repository
	c.duration.WithLabelValues(repo).Observe(result.Duration.Seconds())
	c.lastRun.WithLabelValues(repo).Set(float64(c.now().Unix()))

	if result.Error != "" {
		c.targetFailures.WithLabelValues(repo).Inc()
	}
	if result.Evaluation != nil {
		kept := len(result.Evaluation.Kept) - result.Vetoed
		c.evaluations.WithLabelValues(repo, VerdictKept).Add(float64(kept))
		c.evaluations.WithLabelValues(repo, VerdictVetoed).Add(float64(result.Vetoed))
		c.evaluations.WithLabelValues(repo, VerdictDeleted).Add(float64(len(result.Evaluation.Deleted)))
		c.skipped.WithLabelValues(repo).Add(float64(len(result.Evaluation.Skipped)))
	}
	for _, d := range result.Deletions {
		c.deletions.WithLabelValues(repo, string(d.Status)).Inc()
	}
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns an HTTP handler for the Prometheus metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(
		c.registry,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
			ErrorHandling:     promhttp.ContinueOnError,
		},
	)
}

// Serve exposes Handler at /metrics on addr until ctx is cancelled.
func (c *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
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
		return srv.Shutdown(shutdownCtx)
	}
}
