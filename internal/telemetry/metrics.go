package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	StepsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wordsmith",
		Name:      "pipeline_steps_total",
		Help:      "Remote transform calls by option and outcome.",
	}, []string{"option", "outcome"})

	StepDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "wordsmith",
		Name:      "pipeline_step_duration_seconds",
		Help:      "Latency of a single remote transform call.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2, 5, 10, 30},
	}, []string{"option"})

	RunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wordsmith",
		Name:      "pipeline_runs_total",
		Help:      "Pipeline runs by outcome (ok, failed, rejected).",
	}, []string{"outcome"})

	BackendUp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "wordsmith",
		Name:      "backend_up",
		Help:      "1 when the last connectivity check reached the service.",
	})

	BackendChecks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wordsmith",
		Name:      "backend_checks_total",
		Help:      "Connectivity checks by result.",
	}, []string{"result"})

	JobsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wordsmith",
		Name:      "engine_jobs_total",
		Help:      "Jobs consumed by the engine by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(StepsTotal, StepDuration, RunsTotal, BackendUp, BackendChecks, JobsTotal)
}

func ObserveStep(option string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	StepsTotal.WithLabelValues(option, outcome).Inc()
	StepDuration.WithLabelValues(option).Observe(d.Seconds())
}

// Expose serves /metrics on port until ctx is done.
func Expose(ctx context.Context, port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
