package store

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/blackwell-systems/bookstorectl/internal/apperr"
)

// Metrics are Prometheus collectors for store operations.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	books      prometheus.Gauge
}

// MustNewMetrics registers the store collectors with reg and panics on a
// registration conflict, like the promauto helpers.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bookstore",
				Name:      "operations_total",
				Help:      "Store operations by name and outcome (ok or the error kind).",
			},
			[]string{"op", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "bookstore",
				Name:      "operation_duration_seconds",
				Help:      "Wall time of store operations, including the follow-up refresh.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		books: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "bookstore",
				Name:      "catalog_books",
				Help:      "Books in the most recently published snapshot.",
			},
		),
	}
	reg.MustRegister(m.operations, m.duration, m.books)
	return m
}

func (m *Metrics) observe(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = string(apperr.KindOf(err))
		if outcome == "" {
			outcome = "error"
		}
	}
	m.operations.WithLabelValues(op, outcome).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) setBooks(n int) {
	if m == nil {
		return
	}
	m.books.Set(float64(n))
}
