// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rag

import (
	"context"
	"log/slog"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/GanodermaGraph/services/graphstore"
)

// Materializer executes Cypher against the graph store and folds the
// heterogeneous result set (nodes, relationships, paths, lists thereof) into
// a deduplicated VisualGraph.
//
// Thread Safety: Materializer is safe for concurrent use; each call builds a
// fresh request-scoped graph.
type Materializer struct {
	store graphstore.Runner
}

// NewMaterializer creates a Materializer over the given query runner.
func NewMaterializer(store graphstore.Runner) *Materializer {
	return &Materializer{store: store}
}

// Materialize runs the query and builds the visual graph.
//
// Description:
//
//	A blank query is a no-op success returning an empty graph. Every value
//	of every result row is classified recursively: nodes and relationships
//	fold directly, paths decompose into their node sequence then their
//	relationship sequence, lists recurse per element, anything else is
//	ignored. Deduplication is by element identity across the whole result
//	set. Relationships whose endpoints never appeared are pruned, with a
//	warning, before the graph is returned. On store failure no partial
//	graph is returned.
func (m *Materializer) Materialize(ctx context.Context, query string) (*VisualGraph, error) {
	graph := NewVisualGraph()
	if strings.TrimSpace(query) == "" {
		return graph, nil
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "rag.Materialize")
	defer span.End()

	result, err := m.store.Run(ctx, query, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	for _, record := range result.Records {
		for _, value := range record.Values {
			foldValue(graph, value)
		}
	}
	graph.pruneDangling()

	span.SetAttributes(
		attribute.Int("nodes", len(graph.Nodes)),
		attribute.Int("links", len(graph.Links)),
		attribute.Int("rows", len(result.Records)),
	)
	slog.Debug("Materialized query result",
		slog.Int("rows", len(result.Records)),
		slog.Int("nodes", len(graph.Nodes)),
		slog.Int("links", len(graph.Links)),
	)
	return graph, nil
}

// foldValue classifies one result value and folds it into the graph.
// The variant set is closed: node, relationship, path, list. Scalars and
// anything else are ignored.
func foldValue(graph *VisualGraph, value any) {
	switch v := value.(type) {
	case neo4j.Node:
		graph.addNode(v)
	case neo4j.Relationship:
		graph.addLink(v)
	case neo4j.Path:
		for _, n := range v.Nodes {
			graph.addNode(n)
		}
		for _, r := range v.Relationships {
			graph.addLink(r)
		}
	case []any:
		for _, item := range v {
			foldValue(graph, item)
		}
	}
}
