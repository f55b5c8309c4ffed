// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the StoryTable application metrics.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	LoginsTotal     *prometheus.CounterVec
	NodesCreated    *prometheus.CounterVec
}

// NewMetrics creates the application metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storytable_http_requests_total",
				Help: "HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storytable_http_request_duration_seconds",
				Help:    "HTTP request latency by method and route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storytable_logins_total",
				Help: "Login attempts by outcome",
			},
			[]string{"outcome"},
		),
		NodesCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storytable_tree_nodes_created_total",
				Help: "Playground nodes created by type",
			},
			[]string{"type"},
		),
	}
	reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.LoginsTotal, m.NodesCreated)
	return m
}

// RecordLogin counts a login attempt. outcome is "success" or "failure".
func (m *Metrics) RecordLogin(outcome string) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(outcome).Inc()
}

// RecordNodeCreated counts a created node of nodeType.
func (m *Metrics) RecordNodeCreated(nodeType string) {
	if m == nil {
		return
	}
	m.NodesCreated.WithLabelValues(nodeType).Inc()
}

// Middleware records request counts and latency. Requests are labeled by
// their chi route pattern so ids do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := RoutePattern(r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// RoutePattern returns the matched chi route pattern, or "unmatched".
func RoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
