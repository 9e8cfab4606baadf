// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/GanodermaGraph/services/graphstore"
)

// ErrNotFound is returned by point lookups when no entity matches the key.
var ErrNotFound = errors.New("catalog: entity not found")

// Repository provides the persistence-layer lookups over the graph store.
//
// Thread Safety: Repository is safe for concurrent use; it holds no mutable
// state beyond the underlying Runner.
type Repository struct {
	store graphstore.Runner
}

// NewRepository creates a Repository over the given query runner.
func NewRepository(store graphstore.Runner) *Repository {
	return &Repository{store: store}
}

// IsolateByName returns the isolate with the exact given name.
func (r *Repository) IsolateByName(ctx context.Context, name string) (*Isolate, error) {
	result, err := r.store.Run(ctx,
		`MATCH (i:Isolate {name: $name}) RETURN i LIMIT 1`,
		map[string]any{"name": name})
	if err != nil {
		return nil, err
	}
	if len(result.Records) == 0 {
		return nil, ErrNotFound
	}
	node, err := nodeValue(result.Records[0], "i")
	if err != nil {
		return nil, err
	}
	return isolateFromNode(node), nil
}

// SearchIsolates returns isolates whose name, host or origin country contains
// the term, case-insensitively, up to limit entries.
func (r *Repository) SearchIsolates(ctx context.Context, term string, limit int) ([]Isolate, error) {
	result, err := r.store.Run(ctx,
		`MATCH (i:Isolate)
		 WHERE toLower(i.name) CONTAINS toLower($term)
		    OR toLower(coalesce(i.host, '')) CONTAINS toLower($term)
		    OR toLower(coalesce(i.originCountry, '')) CONTAINS toLower($term)
		 RETURN i ORDER BY i.name LIMIT $limit`,
		map[string]any{"term": term, "limit": limit})
	if err != nil {
		return nil, err
	}
	isolates := make([]Isolate, 0, len(result.Records))
	for _, rec := range result.Records {
		node, err := nodeValue(rec, "i")
		if err != nil {
			return nil, err
		}
		isolates = append(isolates, *isolateFromNode(node))
	}
	return isolates, nil
}

// GeneByID returns the gene with the given stable gene id, with its FOUND_IN
// and BELONGS_TO_OG endpoints denormalized onto the record.
func (r *Repository) GeneByID(ctx context.Context, geneID string) (*Gene, error) {
	result, err := r.store.Run(ctx, geneQuery(`{geneId: $id}`)+` LIMIT 1`,
		map[string]any{"id": geneID})
	if err != nil {
		return nil, err
	}
	if len(result.Records) == 0 {
		return nil, ErrNotFound
	}
	return geneFromRecord(result.Records[0])
}

// SearchGenes returns genes whose symbol or description contains the term,
// case-insensitively, up to limit entries, relationships included.
func (r *Repository) SearchGenes(ctx context.Context, term string, limit int) ([]Gene, error) {
	query := `MATCH (g:Gene)
		 WHERE toLower(coalesce(g.symbol, '')) CONTAINS toLower($term)
		    OR toLower(coalesce(g.description, '')) CONTAINS toLower($term)
		 OPTIONAL MATCH (g)-[:FOUND_IN]->(i:Isolate)
		 OPTIONAL MATCH (g)-[:BELONGS_TO_OG]->(og:Orthogroup)
		 RETURN g, i.name AS isolateName, og.groupId AS orthogroupId
		 ORDER BY g.geneId LIMIT $limit`
	result, err := r.store.Run(ctx, query, map[string]any{"term": term, "limit": limit})
	if err != nil {
		return nil, err
	}
	return genesFromRecords(result.Records)
}

// AllGenes lists every gene with its relationship endpoints.
func (r *Repository) AllGenes(ctx context.Context) ([]Gene, error) {
	result, err := r.store.Run(ctx, geneQuery(``)+` ORDER BY g.geneId`, nil)
	if err != nil {
		return nil, err
	}
	return genesFromRecords(result.Records)
}

// AllIsolates lists every isolate.
func (r *Repository) AllIsolates(ctx context.Context) ([]Isolate, error) {
	result, err := r.store.Run(ctx, `MATCH (i:Isolate) RETURN i ORDER BY i.name`, nil)
	if err != nil {
		return nil, err
	}
	isolates := make([]Isolate, 0, len(result.Records))
	for _, rec := range result.Records {
		node, err := nodeValue(rec, "i")
		if err != nil {
			return nil, err
		}
		isolates = append(isolates, *isolateFromNode(node))
	}
	return isolates, nil
}

// AllOrthogroups lists every orthogroup.
func (r *Repository) AllOrthogroups(ctx context.Context) ([]Orthogroup, error) {
	result, err := r.store.Run(ctx, `MATCH (og:Orthogroup) RETURN og ORDER BY og.groupId`, nil)
	if err != nil {
		return nil, err
	}
	groups := make([]Orthogroup, 0, len(result.Records))
	for _, rec := range result.Records {
		node, err := nodeValue(rec, "og")
		if err != nil {
			return nil, err
		}
		groups = append(groups, *orthogroupFromNode(node))
	}
	return groups, nil
}

// OrthogroupByID returns the orthogroup with the given group id.
func (r *Repository) OrthogroupByID(ctx context.Context, groupID string) (*Orthogroup, error) {
	result, err := r.store.Run(ctx,
		`MATCH (og:Orthogroup {groupId: $id}) RETURN og LIMIT 1`,
		map[string]any{"id": groupID})
	if err != nil {
		return nil, err
	}
	if len(result.Records) == 0 {
		return nil, ErrNotFound
	}
	node, err := nodeValue(result.Records[0], "og")
	if err != nil {
		return nil, err
	}
	return orthogroupFromNode(node), nil
}

// CountStats returns the per-type entity counts. The three counts run
// concurrently; the first failure cancels the rest.
func (r *Repository) CountStats(ctx context.Context) (Stats, error) {
	var stats Stats
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := r.count(ctx, "Isolate")
		stats.Isolates = n
		return err
	})
	g.Go(func() error {
		n, err := r.count(ctx, "Gene")
		stats.Genes = n
		return err
	})
	g.Go(func() error {
		n, err := r.count(ctx, "Orthogroup")
		stats.Orthogroups = n
		return err
	})
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func (r *Repository) count(ctx context.Context, label string) (int64, error) {
	result, err := r.store.Run(ctx, fmt.Sprintf(`MATCH (n:%s) RETURN count(n) AS c`, label), nil)
	if err != nil {
		return 0, err
	}
	if len(result.Records) == 0 {
		return 0, nil
	}
	c, ok := result.Records[0].Get("c")
	if !ok {
		return 0, fmt.Errorf("catalog: count query returned no 'c' column")
	}
	n, ok := c.(int64)
	if !ok {
		return 0, fmt.Errorf("catalog: count value is %T, want int64", c)
	}
	return n, nil
}

// geneQuery builds the shared gene read with denormalized endpoints.
// matchProps is injected into the Gene match pattern, e.g. `{geneId: $id}`.
func geneQuery(matchProps string) string {
	return `MATCH (g:Gene ` + matchProps + `)
		 OPTIONAL MATCH (g)-[:FOUND_IN]->(i:Isolate)
		 OPTIONAL MATCH (g)-[:BELONGS_TO_OG]->(og:Orthogroup)
		 RETURN g, i.name AS isolateName, og.groupId AS orthogroupId`
}

func genesFromRecords(records []*neo4j.Record) ([]Gene, error) {
	genes := make([]Gene, 0, len(records))
	for _, rec := range records {
		gene, err := geneFromRecord(rec)
		if err != nil {
			return nil, err
		}
		genes = append(genes, *gene)
	}
	return genes, nil
}

func geneFromRecord(rec *neo4j.Record) (*Gene, error) {
	node, err := nodeValue(rec, "g")
	if err != nil {
		return nil, err
	}
	gene := geneFromNode(node)
	if v, ok := rec.Get("isolateName"); ok {
		if s, ok := v.(string); ok {
			gene.IsolateName = s
		}
	}
	if v, ok := rec.Get("orthogroupId"); ok {
		if s, ok := v.(string); ok {
			gene.OrthogroupID = s
		}
	}
	return gene, nil
}

func nodeValue(rec *neo4j.Record, key string) (neo4j.Node, error) {
	v, ok := rec.Get(key)
	if !ok {
		return neo4j.Node{}, fmt.Errorf("catalog: record has no %q column", key)
	}
	node, ok := v.(neo4j.Node)
	if !ok {
		return neo4j.Node{}, fmt.Errorf("catalog: column %q is %T, want node", key, v)
	}
	return node, nil
}

func isolateFromNode(n neo4j.Node) *Isolate {
	return &Isolate{
		Name:           propString(n.Props, "name"),
		OriginCountry:  propString(n.Props, "originCountry"),
		Host:           propString(n.Props, "host"),
		CollectionDate: propString(n.Props, "collectionDate"),
	}
}

func geneFromNode(n neo4j.Node) *Gene {
	return &Gene{
		GeneID:      propString(n.Props, "geneId"),
		Symbol:      propString(n.Props, "symbol"),
		Biotype:     propString(n.Props, "biotype"),
		Description: propString(n.Props, "description"),
		Start:       propInt64(n.Props, "start"),
		End:         propInt64(n.Props, "end"),
		Strand:      propString(n.Props, "strand"),
	}
}

func orthogroupFromNode(n neo4j.Node) *Orthogroup {
	return &Orthogroup{
		GroupID:   propString(n.Props, "groupId"),
		GeneCount: propInt64(n.Props, "geneCount"),
	}
}

func propString(props map[string]any, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

func propInt64(props map[string]any, key string) int64 {
	switch v := props[key].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	default:
		return 0
	}
}
