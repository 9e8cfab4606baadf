// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// tracerName is the shared OTel tracer name for LLM clients.
const tracerName = "ganoderma.llm"

// Package-level Prometheus metrics for LLM calls.
// Auto-registered via promauto so no explicit registry wiring is needed.
var (
	// callDuration measures the duration of LLM API calls.
	//
	// Labels:
	//   - provider: "ollama", "openai", "anthropic", "gemini"
	//   - status: "success" or "error"
	callDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ganoderma",
			Subsystem: "llm",
			Name:      "call_duration_seconds",
			Help:      "Duration of LLM API calls in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"provider", "status"},
	)

	// callsTotal counts the total number of LLM API calls.
	callsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ganoderma",
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "Total number of LLM API calls.",
		},
		[]string{"provider", "status"},
	)

	// activeRequests tracks in-flight LLM requests per provider.
	activeRequests = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "ganoderma",
			Subsystem: "llm",
			Name:      "active_requests",
			Help:      "Number of currently active LLM requests.",
		},
		[]string{"provider"},
	)
)

// recordCall records duration and outcome for one completed LLM call.
func recordCall(provider string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	callDuration.WithLabelValues(provider, status).Observe(duration.Seconds())
	callsTotal.WithLabelValues(provider, status).Inc()
}
