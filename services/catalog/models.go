// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package catalog holds the Ganoderma domain model and its Neo4j-backed
// lookups: isolates, genes and orthogroups, point reads by business key,
// substring searches over salient text fields, aggregate counts, seeding and
// GFF3 bulk ingestion.
package catalog

// Isolate is a sequenced Ganoderma isolate.
type Isolate struct {
	Name           string `json:"name"`
	OriginCountry  string `json:"originCountry"`
	Host           string `json:"host"`
	CollectionDate string `json:"collectionDate"`
}

// Gene is an annotated gene, optionally linked to the isolate it was found
// in (FOUND_IN) and the orthologous group it belongs to (BELONGS_TO_OG).
type Gene struct {
	GeneID      string `json:"geneId"`
	Symbol      string `json:"symbol"`
	Biotype     string `json:"biotype"`
	Description string `json:"description"`
	Start       int64  `json:"start,omitempty"`
	End         int64  `json:"end,omitempty"`
	Strand      string `json:"strand,omitempty"`

	// Denormalized relationship endpoints, populated by lookups that
	// traverse FOUND_IN / BELONGS_TO_OG. Empty when the gene is unlinked.
	IsolateName  string `json:"isolateName,omitempty"`
	OrthogroupID string `json:"orthogroupId,omitempty"`
}

// Orthogroup is a group of orthologous genes across isolates.
type Orthogroup struct {
	GroupID   string `json:"groupId"`
	GeneCount int64  `json:"geneCount"`
}

// Stats are aggregate per-type counts for the whole database.
type Stats struct {
	Isolates    int64 `json:"isolatesCount"`
	Genes       int64 `json:"genesCount"`
	Orthogroups int64 `json:"orthogroupsCount"`
}
