package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic and scheduler activity.
type MetricsService struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestDuration   *prometheus.HistogramVec
	requestTotal      *prometheus.CounterVec
	cacheLatency      prometheus.Observer
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
	schedulerRuns     *prometheus.CounterVec
	schedulerDuration prometheus.Observer
	requestOutcomes   *prometheus.CounterVec
	enrollments       *prometheus.CounterVec
	lockContention    prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	schedulerRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_runs_total",
		Help: "Scheduler runs by outcome",
	}, []string{"outcome"})

	schedulerDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scheduler_run_duration_seconds",
		Help:    "Wall time of scheduler runs",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
	})

	requestOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_requests_total",
		Help: "Schedule requests processed by the scheduler, by outcome",
	}, []string{"outcome"})

	enrollments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "enrollment_attempts_total",
		Help: "Enrollment commits by operation and outcome",
	}, []string{"operation", "outcome"})

	lockContention := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scheduler_lock_contention_total",
		Help: "Scheduler runs rejected because another run holds the scope lock",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheHits, cacheMisses,
		schedulerRuns, schedulerDuration, requestOutcomes, enrollments, lockContention, goroutines)

	return &MetricsService{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		cacheLatency:      cacheLatency,
		cacheHits:         cacheHits,
		cacheMisses:       cacheMisses,
		schedulerRuns:     schedulerRuns,
		schedulerDuration: schedulerDuration,
		requestOutcomes:   requestOutcomes,
		enrollments:       enrollments,
		lockContention:    lockContention,
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// ObserveSchedulerRun records a finished run. outcome is completed, cancelled or failed.
func (m *MetricsService) ObserveSchedulerRun(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.schedulerRuns.WithLabelValues(outcome).Inc()
	m.schedulerDuration.Observe(duration.Seconds())
}

// ObserveSchedulerRequest counts one processed request by outcome (fulfilled, unfilled, error).
func (m *MetricsService) ObserveSchedulerRequest(outcome string) {
	if m == nil {
		return
	}
	m.requestOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveEnrollment counts an enroll or drop attempt.
func (m *MetricsService) ObserveEnrollment(operation string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "rejected"
	}
	m.enrollments.WithLabelValues(operation, outcome).Inc()
}

// ObserveLockContention counts a rejected run.
func (m *MetricsService) ObserveLockContention() {
	if m == nil {
		return
	}
	m.lockContention.Inc()
}
