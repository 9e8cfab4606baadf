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
	"fmt"
	"log/slog"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/AleutianAI/GanodermaGraph/services/catalog"
)

// logicalIDProperty is the reserved node property under which the derived
// domain identifier (ISOLATE_/GENE_/OG_ form) is stored, so a visual node can
// be resolved back to a catalog entity by the context retriever.
const logicalIDProperty = "logicalId"

// Node size tiers per entity type, matching the visualization's styling.
const (
	sizeIsolate    = 25
	sizeOrthogroup = 20
	sizeGene       = 15
	sizeDefault    = 10
)

// NodeRecord is one renderable graph node. ID is the store's element
// identity, not a domain key: it is the only identifier guaranteed unique and
// stable within one query execution, and it is what LinkRecord endpoints
// reference.
type NodeRecord struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Type        string            `json:"type"`
	Val         int               `json:"val"`
	Description string            `json:"description,omitempty"`
	Properties  map[string]string `json:"properties,omitempty"`
}

// LinkRecord is one renderable typed edge. Source and Target are element
// identities and must match NodeRecord.ID entries exactly.
type LinkRecord struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

// VisualGraph is the deduplicated node/edge set produced by materializing a
// query result. Both maps are keyed by element identity; re-encountering an
// id merges to a single entry with last write winning.
type VisualGraph struct {
	Nodes map[string]NodeRecord `json:"nodes"`
	Links map[string]LinkRecord `json:"links"`
}

// NewVisualGraph returns an empty graph with initialized maps.
func NewVisualGraph() *VisualGraph {
	return &VisualGraph{
		Nodes: make(map[string]NodeRecord),
		Links: make(map[string]LinkRecord),
	}
}

// addNode folds one store node into the graph, overwriting any prior entry
// with the same element identity.
func (g *VisualGraph) addNode(n neo4j.Node) {
	label := primaryLabel(n.Labels)

	record := NodeRecord{
		ID:         n.ElementId,
		Name:       displayName(label, n.Props, n.ElementId),
		Type:       label,
		Val:        sizeFor(label),
		Properties: make(map[string]string, len(n.Props)+1),
	}
	if desc, ok := n.Props["description"].(string); ok {
		record.Description = desc
	}
	for key, value := range n.Props {
		record.Properties[key] = fmt.Sprint(value)
	}
	if logical, ok := logicalID(label, n.Props); ok {
		record.Properties[logicalIDProperty] = logical
	}

	g.Nodes[n.ElementId] = record
}

// addLink folds one store relationship into the graph. Endpoint element
// identities are preserved verbatim; whether they resolve to nodes is checked
// once at the end by pruneDangling.
func (g *VisualGraph) addLink(r neo4j.Relationship) {
	g.Links[r.ElementId] = LinkRecord{
		ID:     r.ElementId,
		Source: r.StartElementId,
		Target: r.EndElementId,
		Label:  r.Type,
	}
}

// pruneDangling drops links whose endpoints never appeared in the node set.
// A dangling edge indicates a query that bound bare relationships instead of
// full paths; it is logged as an invariant violation, not rendered.
func (g *VisualGraph) pruneDangling() {
	for id, link := range g.Links {
		_, srcOK := g.Nodes[link.Source]
		_, dstOK := g.Nodes[link.Target]
		if srcOK && dstOK {
			continue
		}
		slog.Warn("Dropping dangling edge from materialized graph",
			slog.String("link_id", id),
			slog.String("label", link.Label),
			slog.Bool("source_present", srcOK),
			slog.Bool("target_present", dstOK),
		)
		delete(g.Links, id)
	}
}

// primaryLabel picks the label used for styling and name derivation. Known
// domain labels win over incidental ones regardless of store ordering.
func primaryLabel(labels []string) string {
	for _, known := range []string{"Isolate", "Gene", "Orthogroup"} {
		for _, l := range labels {
			if l == known {
				return known
			}
		}
	}
	if len(labels) > 0 {
		return labels[0]
	}
	return "Node"
}

// displayName derives the node caption by type-specific field priority.
func displayName(label string, props map[string]any, elementID string) string {
	var candidates []string
	switch label {
	case "Isolate":
		candidates = []string{"name"}
	case "Gene":
		candidates = []string{"symbol", "geneId"}
	case "Orthogroup":
		candidates = []string{"groupId"}
	default:
		candidates = []string{"name"}
	}
	for _, key := range candidates {
		if v, ok := props[key].(string); ok && v != "" {
			return v
		}
	}
	return elementID
}

// sizeFor returns the per-type size tier.
func sizeFor(label string) int {
	switch label {
	case "Isolate":
		return sizeIsolate
	case "Orthogroup":
		return sizeOrthogroup
	case "Gene":
		return sizeGene
	default:
		return sizeDefault
	}
}

// logicalID derives the prefixed domain identifier when the defining key
// property is present.
func logicalID(label string, props map[string]any) (string, bool) {
	var kind catalog.Kind
	var keyProp string
	switch label {
	case "Isolate":
		kind, keyProp = catalog.KindIsolate, "name"
	case "Gene":
		kind, keyProp = catalog.KindGene, "geneId"
	case "Orthogroup":
		kind, keyProp = catalog.KindOrthogroup, "groupId"
	default:
		return "", false
	}
	key, ok := props[keyProp].(string)
	if !ok || key == "" {
		return "", false
	}
	return catalog.EntityID{Kind: kind, Key: key}.String(), true
}
