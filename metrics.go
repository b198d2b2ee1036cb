package gorelay

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	queryCount    = "count"
	queryBoundary = "boundary"
	queryPage     = "page"

	errorTypeValidation = "validation"
	errorTypeCursor     = "cursor"
	errorTypeTimeout    = "timeout"
	errorTypeDatabase   = "database"
)

// Metrics holds prometheus collectors for paginations. A nil *Metrics records
// nothing.
type Metrics struct {
	// paginations counts Paginate calls.
	// Labels: direction (NEXT, PREVIOUS), status (ok, error)
	paginations *prometheus.CounterVec
	// queryDuration tracks store round trips.
	// Labels: query (count, boundary, page)
	queryDuration *prometheus.HistogramVec
	// errors counts failures.
	// Labels: type (validation, cursor, timeout, database)
	errors *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		paginations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gorelay_paginations_total",
				Help: "Total number of pagination requests",
			},
			[]string{"direction", "status"},
		),
		queryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gorelay_query_duration_seconds",
				Help:    "Pagination query duration distribution",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0},
			},
			[]string{"query"},
		),
		errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gorelay_errors_total",
				Help: "Total number of pagination errors",
			},
			[]string{"type"},
		),
	}
}

func (m *Metrics) observeQuery(query string, started time.Time) {
	if m == nil {
		return
	}

	m.queryDuration.WithLabelValues(query).Observe(time.Since(started).Seconds())
}

func (m *Metrics) recordPagination(direction PagingDirection, err error) {
	if m == nil {
		return
	}

	if err == nil {
		m.paginations.WithLabelValues(string(direction), "ok").Inc()
		return
	}

	m.paginations.WithLabelValues(string(direction), "error").Inc()
	m.errors.WithLabelValues(classifyError(err)).Inc()
}

func classifyError(err error) string {
	switch {
	case errors.Is(err, ErrMalformedCursor):
		return errorTypeCursor
	case errors.Is(err, ErrInvalidOptions), errors.Is(err, ErrInvalidFilter):
		return errorTypeValidation
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return errorTypeTimeout
	default:
		return errorTypeDatabase
	}
}
