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
	"errors"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// fakeRunner is a canned graphstore.Runner for materializer tests.
type fakeRunner struct {
	result    *neo4j.EagerResult
	err       error
	calls     int
	lastQuery string
}

func (f *fakeRunner) Run(_ context.Context, query string, _ map[string]any) (*neo4j.EagerResult, error) {
	f.calls++
	f.lastQuery = query
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func emptyResult() *neo4j.EagerResult {
	return &neo4j.EagerResult{}
}

func resultWithRows(rows ...[]any) *neo4j.EagerResult {
	res := &neo4j.EagerResult{}
	for _, values := range rows {
		res.Records = append(res.Records, &neo4j.Record{Values: values})
	}
	return res
}

func isolateNode(elementID, name string) neo4j.Node {
	return neo4j.Node{
		ElementId: elementID,
		Labels:    []string{"Isolate"},
		Props:     map[string]any{"name": name, "originCountry": "Cameroon"},
	}
}

func geneNode(elementID, geneID, symbol string) neo4j.Node {
	return neo4j.Node{
		ElementId: elementID,
		Labels:    []string{"Gene"},
		Props:     map[string]any{"geneId": geneID, "symbol": symbol},
	}
}

func foundIn(elementID, from, to string) neo4j.Relationship {
	return neo4j.Relationship{
		ElementId:      elementID,
		StartElementId: from,
		EndElementId:   to,
		Type:           "FOUND_IN",
	}
}

func TestMaterializeBlankQueryIsNoOp(t *testing.T) {
	runner := &fakeRunner{result: emptyResult()}
	m := NewMaterializer(runner)

	graph, err := m.Materialize(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}
	if len(graph.Nodes) != 0 || len(graph.Links) != 0 {
		t.Errorf("expected empty graph, got %d nodes %d links", len(graph.Nodes), len(graph.Links))
	}
	if runner.calls != 0 {
		t.Errorf("store was queried %d times for a blank query", runner.calls)
	}
}

func TestMaterializeStoreErrorReturnsNoPartialGraph(t *testing.T) {
	runner := &fakeRunner{err: errors.New("connection reset")}
	m := NewMaterializer(runner)

	graph, err := m.Materialize(context.Background(), "MATCH (n) RETURN n LIMIT 1")
	if err == nil {
		t.Fatal("Materialize() = nil error, want store failure")
	}
	if graph != nil {
		t.Errorf("got partial graph %+v, want nil", graph)
	}
}

func TestMaterializeDeduplicatesAcrossRows(t *testing.T) {
	gene := geneNode("4:abc:1", "Gbon_CMR_Tox1", "GanToxA")
	iso := isolateNode("4:abc:2", "G. boninense CMR")
	rel := foundIn("5:abc:10", gene.ElementId, iso.ElementId)

	// The same node appears bare, inside a path, and inside a list.
	path := neo4j.Path{
		Nodes:         []neo4j.Node{gene, iso},
		Relationships: []neo4j.Relationship{rel},
	}
	runner := &fakeRunner{result: resultWithRows(
		[]any{gene, iso, rel},
		[]any{path},
		[]any{[]any{gene, []any{iso}}},
	)}
	m := NewMaterializer(runner)

	graph, err := m.Materialize(context.Background(), "MATCH p=(g)-[r]->(i) RETURN g, i, r, p")
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}
	if len(graph.Nodes) != 2 {
		t.Errorf("got %d nodes, want 2", len(graph.Nodes))
	}
	if len(graph.Links) != 1 {
		t.Errorf("got %d links, want 1", len(graph.Links))
	}
	for _, link := range graph.Links {
		if _, ok := graph.Nodes[link.Source]; !ok {
			t.Errorf("link %s has unresolved source %s", link.ID, link.Source)
		}
		if _, ok := graph.Nodes[link.Target]; !ok {
			t.Errorf("link %s has unresolved target %s", link.ID, link.Target)
		}
	}
}

func TestMaterializePrunesDanglingEdges(t *testing.T) {
	gene := geneNode("4:abc:1", "Gbon_CMR_Tox1", "GanToxA")
	// Relationship to a node that never appears in the result set.
	dangling := foundIn("5:abc:10", gene.ElementId, "4:abc:999")

	runner := &fakeRunner{result: resultWithRows([]any{gene, dangling})}
	m := NewMaterializer(runner)

	graph, err := m.Materialize(context.Background(), "MATCH (g)-[r]->() RETURN g, r")
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}
	if len(graph.Nodes) != 1 {
		t.Errorf("got %d nodes, want 1", len(graph.Nodes))
	}
	if len(graph.Links) != 0 {
		t.Errorf("dangling edge survived: %+v", graph.Links)
	}
}

func TestMaterializeIgnoresScalars(t *testing.T) {
	iso := isolateNode("4:abc:2", "G. boninense CMR")
	runner := &fakeRunner{result: resultWithRows(
		[]any{iso, "some string", int64(42), nil, map[string]any{"k": "v"}},
	)}
	m := NewMaterializer(runner)

	graph, err := m.Materialize(context.Background(), "MATCH (i) RETURN i, i.name, 42")
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}
	if len(graph.Nodes) != 1 || len(graph.Links) != 0 {
		t.Errorf("got %d nodes %d links, want 1 node only", len(graph.Nodes), len(graph.Links))
	}
}

func TestAddNodeStyling(t *testing.T) {
	g := NewVisualGraph()
	g.addNode(isolateNode("n1", "G. boninense CMR"))
	g.addNode(geneNode("n2", "Gbon_CMR_Tox1", "GanToxA"))
	g.addNode(neo4j.Node{
		ElementId: "n3",
		Labels:    []string{"Orthogroup"},
		Props:     map[string]any{"groupId": "OG0001", "geneCount": int64(3)},
	})
	g.addNode(neo4j.Node{ElementId: "n4", Labels: []string{"Mystery"}})

	tests := []struct {
		id       string
		wantName string
		wantType string
		wantVal  int
	}{
		{"n1", "G. boninense CMR", "Isolate", 25},
		{"n2", "GanToxA", "Gene", 15},
		{"n3", "OG0001", "Orthogroup", 20},
		{"n4", "n4", "Mystery", 10},
	}
	for _, tt := range tests {
		node, ok := g.Nodes[tt.id]
		if !ok {
			t.Errorf("node %s missing", tt.id)
			continue
		}
		if node.Name != tt.wantName {
			t.Errorf("%s: Name = %q, want %q", tt.id, node.Name, tt.wantName)
		}
		if node.Type != tt.wantType {
			t.Errorf("%s: Type = %q, want %q", tt.id, node.Type, tt.wantType)
		}
		if node.Val != tt.wantVal {
			t.Errorf("%s: Val = %d, want %d", tt.id, node.Val, tt.wantVal)
		}
	}
}

func TestAddNodeDerivesLogicalID(t *testing.T) {
	g := NewVisualGraph()
	g.addNode(geneNode("n1", "Gbon_CMR_Tox1", "GanToxA"))

	node := g.Nodes["n1"]
	if got := node.Properties[logicalIDProperty]; got != "GENE_Gbon_CMR_Tox1" {
		t.Errorf("logicalId = %q, want GENE_Gbon_CMR_Tox1", got)
	}
}

func TestAddNodeGeneFallsBackToGeneID(t *testing.T) {
	g := NewVisualGraph()
	g.addNode(neo4j.Node{
		ElementId: "n1",
		Labels:    []string{"Gene"},
		Props:     map[string]any{"geneId": "Gbon_IDN_0042"},
	})
	if got := g.Nodes["n1"].Name; got != "Gbon_IDN_0042" {
		t.Errorf("Name = %q, want geneId fallback", got)
	}
}

func TestPrimaryLabelPrefersDomainLabels(t *testing.T) {
	if got := primaryLabel([]string{"Entity", "Gene"}); got != "Gene" {
		t.Errorf("primaryLabel = %q, want Gene", got)
	}
	if got := primaryLabel([]string{"Whatever"}); got != "Whatever" {
		t.Errorf("primaryLabel = %q, want Whatever", got)
	}
	if got := primaryLabel(nil); got != "Node" {
		t.Errorf("primaryLabel = %q, want Node", got)
	}
}
