package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/niksmo/home-catalog/internal/core/domain"
	"github.com/niksmo/home-catalog/internal/core/port"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "catalog"

type Metrics struct {
	registry        *prometheus.Registry
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	storageDuration *prometheus.HistogramVec
	storageFailures *prometheus.CounterVec
}

// New registers the service collectors on a dedicated registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Handled HTTP requests.",
			},
			[]string{"route", "code"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		storageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "storage_query_duration_seconds",
				Help:      "Catalog storage query latency.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"query"},
		),
		storageFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_query_failures_total",
				Help:      "Failed catalog storage queries.",
			},
			[]string{"query"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.storageDuration,
		m.storageFailures,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Instrument counts requests by matched mux pattern and status code.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(route, strconv.Itoa(sw.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
	return http.HandlerFunc(hf)
}

func (m *Metrics) observe(query string, start time.Time, err error) {
	m.storageDuration.WithLabelValues(query).Observe(time.Since(start).Seconds())
	if err != nil {
		m.storageFailures.WithLabelValues(query).Inc()
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

var _ port.CatalogStorage = (*Storage)(nil)

// Storage times every query of the wrapped catalog storage.
type Storage struct {
	next port.CatalogStorage
	m    *Metrics
}

func (m *Metrics) WrapStorage(next port.CatalogStorage) Storage {
	return Storage{next: next, m: m}
}

func (s Storage) ReadHomeShelves(
	ctx context.Context, shelves []domain.Shelf,
) (domain.ShelfGroups, error) {
	start := time.Now()
	groups, err := s.next.ReadHomeShelves(ctx, shelves)
	s.m.observe("home", start, err)
	return groups, err
}

func (s Storage) ReadProducts(
	ctx context.Context, q domain.ProductsQuery,
) ([]domain.ListedProduct, int64, error) {
	start := time.Now()
	items, total, err := s.next.ReadProducts(ctx, q)
	s.m.observe("products", start, err)
	return items, total, err
}

func (s Storage) Close() {
	s.next.Close()
}
