// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tbook Contributors

// Package observability exposes auth measurements as Prometheus metrics.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/tuanpham24/tbook-auth/internal/auth"
)

const namespace = "tbook_auth"

// Metrics records auth service activity. It implements auth.Observer.
type Metrics struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	HashDuration      *prometheus.HistogramVec
	HashPoolWait      prometheus.Histogram
}

// NewMetrics creates and registers the auth metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Total number of auth operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Auth operation latency",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"operation"},
		),
		HashDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "hash_duration_seconds",
				Help:      "Password hash and verify latency by algorithm",
				Buckets:   []float64{.01, .05, .1, .2, .3, .5, 1, 2},
			},
			[]string{"operation", "algorithm"},
		),
		HashPoolWait: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "hash_pool_wait_seconds",
				Help:      "Time spent waiting for a hashing slot",
				Buckets:   prometheus.ExponentialBuckets(.001, 4, 8),
			},
		),
	}

	reg.MustRegister(m.OperationsTotal, m.OperationDuration, m.HashDuration, m.HashPoolWait)
	return m
}

// NewRegistry returns a registry with the Go and process collectors and the
// auth metrics registered.
func NewRegistry() (*prometheus.Registry, *Metrics) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return registry, NewMetrics(registry)
}

// ObserveOperation implements auth.Observer.
func (m *Metrics) ObserveOperation(operation, outcome string, elapsed time.Duration) {
	m.OperationsTotal.WithLabelValues(operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveHash implements auth.Observer.
func (m *Metrics) ObserveHash(operation, algorithm string, elapsed time.Duration) {
	m.HashDuration.WithLabelValues(operation, algorithm).Observe(elapsed.Seconds())
}

// ObservePoolWait implements auth.Observer.
func (m *Metrics) ObservePoolWait(elapsed time.Duration) {
	m.HashPoolWait.Observe(elapsed.Seconds())
}

var _ auth.Observer = (*Metrics)(nil)
