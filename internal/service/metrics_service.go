package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/subcover-api/internal/models"
)

// Accept outcome labels.
const (
	AcceptOutcomeSuccess       = "success"
	AcceptOutcomeAlreadyFilled = "already_filled"
	AcceptOutcomeError         = "error"
)

// MetricsService encapsulates Prometheus instrumentation and keeps a few
// counters for the JSON snapshot.
type MetricsService struct {
	registry            *prometheus.Registry
	handler             http.Handler
	requestDuration     *prometheus.HistogramVec
	requestTotal        *prometheus.CounterVec
	cacheLookups        *prometheus.CounterVec
	deliveries          *prometheus.CounterVec
	eligibilityDuration prometheus.Histogram
	notifyListSize      prometheus.Histogram
	accepts             *prometheus.CounterVec
	reports             *prometheus.CounterVec

	requestCount         uint64
	requestDurationTotal uint64
	cacheHitCount        uint64
	cacheMissCount       uint64
	sentCount            uint64
	failedCount          uint64
	acceptOK             uint64
	acceptConflict       uint64
}

// NewMetricsService registers the collectors on a private registry.
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

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Catalog cache lookups by result",
	}, []string{"result"})

	deliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_deliveries_total",
		Help: "Notification delivery attempts by channel and outcome",
	}, []string{"channel", "outcome"})

	eligibilityDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "eligibility_resolution_seconds",
		Help:    "Time spent resolving the notify list",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
	})

	notifyListSize := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "eligibility_notify_list_size",
		Help:    "Number of candidates notified per coverage request",
		Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
	})

	accepts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coverage_accepts_total",
		Help: "Accept attempts by outcome",
	}, []string{"outcome"})

	reports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "absence_reports_total",
		Help: "Absence report generation attempts by outcome",
	}, []string{"outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLookups, deliveries, eligibilityDuration, notifyListSize, accepts, reports, goroutines)

	return &MetricsService{
		registry:            registry,
		handler:             promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:     requestDuration,
		requestTotal:        requestTotal,
		cacheLookups:        cacheLookups,
		deliveries:          deliveries,
		eligibilityDuration: eligibilityDuration,
		notifyListSize:      notifyListSize,
		accepts:             accepts,
		reports:             reports,
	}
}

// Registry exposes the registry for additional collectors.
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
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheLookup counts a cache hit or miss.
func (m *MetricsService) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
	atomic.AddUint64(&m.cacheMissCount, 1)
}

// RecordDelivery counts one notification delivery attempt.
func (m *MetricsService) RecordDelivery(channel string, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.deliveries.WithLabelValues(channel, "failed").Inc()
		atomic.AddUint64(&m.failedCount, 1)
		return
	}
	m.deliveries.WithLabelValues(channel, "sent").Inc()
	atomic.AddUint64(&m.sentCount, 1)
}

// ObserveEligibility records one notify-list resolution.
func (m *MetricsService) ObserveEligibility(duration time.Duration, size int) {
	if m == nil {
		return
	}
	m.eligibilityDuration.Observe(duration.Seconds())
	m.notifyListSize.Observe(float64(size))
}

// RecordAccept counts an accept attempt.
func (m *MetricsService) RecordAccept(outcome string) {
	if m == nil {
		return
	}
	m.accepts.WithLabelValues(outcome).Inc()
	switch outcome {
	case AcceptOutcomeSuccess:
		atomic.AddUint64(&m.acceptOK, 1)
	case AcceptOutcomeAlreadyFilled:
		atomic.AddUint64(&m.acceptConflict, 1)
	}
}

// RecordAbsenceReport counts a report generation attempt.
func (m *MetricsService) RecordAbsenceReport(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.reports.WithLabelValues("failed").Inc()
		return
	}
	m.reports.WithLabelValues("generated").Inc()
}

// Snapshot returns aggregated counters.
func (m *MetricsService) Snapshot() models.MetricsSnapshot {
	if m == nil {
		return models.MetricsSnapshot{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}
	var ratio float64
	if hits+misses > 0 {
		ratio = float64(hits) / float64(hits+misses)
	}

	return models.MetricsSnapshot{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		CacheHits:                hits,
		CacheMisses:              misses,
		CacheHitRatio:            ratio,
		NotificationsSent:        atomic.LoadUint64(&m.sentCount),
		NotificationsFailed:      atomic.LoadUint64(&m.failedCount),
		AcceptsSucceeded:         atomic.LoadUint64(&m.acceptOK),
		AcceptsConflicted:        atomic.LoadUint64(&m.acceptConflict),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
