// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graphstore wraps the official Neo4j Go driver behind a small
// executor interface so callers can run Cypher without touching session or
// transaction management, and so tests can substitute a fake store.
package graphstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Runner executes a Cypher query and returns a fully-buffered result.
//
// Description:
//
//	Abstracts Cypher execution so higher layers (catalog lookups, the graph
//	materializer) depend on an interface rather than a live database. The
//	result is eager: all records are buffered before Run returns.
//
// Thread Safety: implementations must be safe for concurrent use.
type Runner interface {
	Run(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error)
}

// Package-level Prometheus metrics for Cypher execution.
// Auto-registered via promauto so no explicit registry wiring is needed.
var (
	queryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ganoderma",
			Subsystem: "graphstore",
			Name:      "query_duration_seconds",
			Help:      "Duration of Cypher queries in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15},
		},
		[]string{"status"},
	)

	queriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ganoderma",
			Subsystem: "graphstore",
			Name:      "queries_total",
			Help:      "Total number of Cypher queries executed.",
		},
		[]string{"status"},
	)
)

// Executor is the production Runner backed by neo4j.DriverWithContext.
type Executor struct {
	driver neo4j.DriverWithContext
	dbName string
}

// NewExecutor creates an Executor connected to the given Neo4j instance.
//
// Inputs:
//   - uri: Connection URI, e.g. "neo4j://localhost:7687".
//   - username, password: Basic auth credentials.
//   - dbName: Target database name, e.g. "neo4j".
//
// Outputs:
//   - *Executor: The configured executor.
//   - error: Non-nil if the driver could not be constructed.
func NewExecutor(uri, username, password, dbName string) (*Executor, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	return &Executor{driver: driver, dbName: dbName}, nil
}

// Verify checks connectivity to the database.
func (e *Executor) Verify(ctx context.Context) error {
	return e.driver.VerifyConnectivity(ctx)
}

// Close releases the underlying driver and its connection pool.
func (e *Executor) Close(ctx context.Context) error {
	return e.driver.Close(ctx)
}

// Run implements Runner using neo4j.ExecuteQuery, which handles session and
// transaction management internally and is suitable for both reads and writes.
func (e *Executor) Run(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	start := time.Now()
	result, err := neo4j.ExecuteQuery(
		ctx,
		e.driver,
		query,
		params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(e.dbName),
	)
	duration := time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
	}
	queryDuration.WithLabelValues(status).Observe(duration.Seconds())
	queriesTotal.WithLabelValues(status).Inc()

	if err != nil {
		slog.Debug("Cypher query failed",
			slog.Duration("duration", duration),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("execute cypher: %w", err)
	}
	return result, nil
}
