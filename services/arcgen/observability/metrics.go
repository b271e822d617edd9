// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics and a bounded
// per-request error log for the arcgen service, exposed via /metrics and
// GET /api/error-logs/{request_id} respectively.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "arcgen"
	requestSubsystem = "request"
)

// Metrics holds every Prometheus metric arcgen records, initialized once
// at startup via NewMetrics.
type Metrics struct {
	// RequestsTotal counts HTTP requests by route and status.
	RequestsTotal *prometheus.CounterVec

	// RequestDurationSeconds measures end-to-end request latency by route.
	RequestDurationSeconds *prometheus.HistogramVec

	// ResolverStageTotal counts which cascade stage resolved each
	// component. Labels: stage (1-4), outcome (hit, miss).
	ResolverStageTotal *prometheus.CounterVec

	// AdvisorComponentsSynthesized counts components the advisor added to
	// satisfy a missing dependency.
	AdvisorComponentsSynthesized prometheus.Counter

	// RenderDurationSeconds measures renderer subprocess duration.
	RenderDurationSeconds prometheus.Histogram

	// RenderFailuresTotal counts renderer subprocess failures by reason
	// (the handler's error kind, e.g. render_failed, timeout).
	RenderFailuresTotal *prometheus.CounterVec

	// ActiveSessions tracks the current session store size.
	ActiveSessions prometheus.Gauge

	// RateLimitRejectionsTotal counts requests rejected by the rate
	// limiter.
	RateLimitRejectionsTotal prometheus.Counter
}

// NewMetrics registers and returns a fresh Metrics instance against the
// default Prometheus registerer. Call once at startup.
func NewMetrics() *Metrics {
	return newMetrics(promauto.With(prometheus.DefaultRegisterer))
}

// NewTestMetrics builds a Metrics instance registered against a fresh,
// private prometheus.Registry rather than the process-wide default
// registerer, so other packages' tests can construct a Handlers (or
// anything else needing *Metrics) without colliding on metric names when
// multiple tests run in the same process.
func NewTestMetrics() *Metrics {
	return newMetrics(promauto.With(prometheus.NewRegistry()))
}

// newMetrics builds a Metrics instance against the given factory, so tests
// can register against an isolated prometheus.Registry instead of the
// package-level default.
func newMetrics(factory promauto.Factory) *Metrics {
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: requestSubsystem,
				Name:      "requests_total",
				Help:      "Total HTTP requests by route and status",
			},
			[]string{"route", "status"},
		),
		RequestDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: requestSubsystem,
				Name:      "duration_seconds",
				Help:      "HTTP request duration in seconds by route",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"route"},
		),
		ResolverStageTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "resolver",
				Name:      "stage_total",
				Help:      "Component resolutions by cascade stage and outcome",
			},
			[]string{"stage", "outcome"},
		),
		AdvisorComponentsSynthesized: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "advisor",
				Name:      "components_synthesized_total",
				Help:      "Components the advisor added to satisfy a missing dependency",
			},
		),
		RenderDurationSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "render",
				Name:      "duration_seconds",
				Help:      "Renderer subprocess duration in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),
		RenderFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "render",
				Name:      "failures_total",
				Help:      "Renderer subprocess failures by reason",
			},
			[]string{"reason"},
		),
		ActiveSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: "session",
				Name:      "active",
				Help:      "Current number of sessions held in the store",
			},
		),
		RateLimitRejectionsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: requestSubsystem,
				Name:      "rate_limit_rejections_total",
				Help:      "Requests rejected by the per-address rate limiter",
			},
		),
	}
}

// RecordRequest records a completed HTTP request.
func (m *Metrics) RecordRequest(route, status string, seconds float64) {
	m.RequestsTotal.WithLabelValues(route, status).Inc()
	m.RequestDurationSeconds.WithLabelValues(route).Observe(seconds)
}

// RecordResolverStage records which cascade stage resolved (or failed to
// resolve) a component.
func (m *Metrics) RecordResolverStage(stage int, hit bool) {
	outcome := "hit"
	if !hit {
		outcome = "miss"
	}
	m.ResolverStageTotal.WithLabelValues(stageLabel(stage), outcome).Inc()
}

func stageLabel(stage int) string {
	switch stage {
	case 1:
		return "1_library"
	case 2:
		return "2_contextual"
	case 3:
		return "3_registry"
	default:
		return "4_diagnostic"
	}
}

// RecordRender records a completed renderer subprocess invocation.
func (m *Metrics) RecordRender(seconds float64, failureReason string) {
	m.RenderDurationSeconds.Observe(seconds)
	if failureReason != "" {
		m.RenderFailuresTotal.WithLabelValues(failureReason).Inc()
	}
}
