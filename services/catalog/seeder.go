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
	"log/slog"
)

// seedIsolates / seedOrthogroups / seedGenes are the demo dataset: three
// G. boninense isolates, three orthogroups and eight genes linking them.
var (
	seedIsolates = []Isolate{
		{Name: "G. boninense CMR", OriginCountry: "Cameroon", Host: "Elaeis guineensis", CollectionDate: "2023-01-15"},
		{Name: "G. boninense IDN", OriginCountry: "Indonesia", Host: "Elaeis guineensis", CollectionDate: "2019-06-20"},
		{Name: "G. boninense MYS", OriginCountry: "Malaysia", Host: "Elaeis guineensis", CollectionDate: "2021-03-10"},
	}

	seedOrthogroups = []Orthogroup{
		{GroupID: "OG0001", GeneCount: 3},
		{GroupID: "OG0002", GeneCount: 3},
		{GroupID: "OG0003", GeneCount: 2},
	}

	seedGenes = []Gene{
		{GeneID: "Gbon_CMR_Tox1", Symbol: "ToxA", Biotype: "protein_coding", Description: "Critical secondary metabolite toxin (Toxin Synthase A)", IsolateName: "G. boninense CMR", OrthogroupID: "OG0001"},
		{GeneID: "Gbon_IDN_Tox1", Symbol: "ToxA", Biotype: "protein_coding", Description: "Toxin synthase variant (Toxin Synthase A)", IsolateName: "G. boninense IDN", OrthogroupID: "OG0001"},
		{GeneID: "Gbon_MYS_Tox1", Symbol: "ToxA", Biotype: "protein_coding", Description: "Toxin synthase variant MYS (Toxin Synthase A)", IsolateName: "G. boninense MYS", OrthogroupID: "OG0001"},
		{GeneID: "Gbon_CMR_Eff1", Symbol: "EffX", Biotype: "protein_coding", Description: "Secreted effector protein causing necrosis (Effector X)", IsolateName: "G. boninense CMR", OrthogroupID: "OG0002"},
		{GeneID: "Gbon_IDN_Eff1", Symbol: "EffX", Biotype: "protein_coding", Description: "Effector homolog (Effector X)", IsolateName: "G. boninense IDN", OrthogroupID: "OG0002"},
		{GeneID: "Gbon_MYS_Eff1", Symbol: "EffX", Biotype: "protein_coding", Description: "Effector variant (Effector X)", IsolateName: "G. boninense MYS", OrthogroupID: "OG0002"},
		{GeneID: "Gbon_CMR_Reg1", Symbol: "MReg", Biotype: "protein_coding", Description: "Transcriptional regulator of virulence (Master Regulator)", IsolateName: "G. boninense CMR", OrthogroupID: "OG0003"},
		{GeneID: "Gbon_MYS_Reg1", Symbol: "MReg", Biotype: "protein_coding", Description: "Transcriptional regulator (Master Regulator)", IsolateName: "G. boninense MYS", OrthogroupID: "OG0003"},
	}
)

// Seed populates the demo dataset once. If any genes already exist the seed
// is skipped, so restarting the server never duplicates data.
func (r *Repository) Seed(ctx context.Context) error {
	existing, err := r.count(ctx, "Gene")
	if err != nil {
		return err
	}
	if existing > 0 {
		slog.Info("Database already populated, skipping seeding",
			slog.Int64("genes", existing))
		return nil
	}

	slog.Info("Starting database seeding")

	for _, iso := range seedIsolates {
		_, err := r.store.Run(ctx,
			`MERGE (i:Isolate {name: $name})
			 SET i.originCountry = $country, i.host = $host, i.collectionDate = $date`,
			map[string]any{
				"name":    iso.Name,
				"country": iso.OriginCountry,
				"host":    iso.Host,
				"date":    iso.CollectionDate,
			})
		if err != nil {
			return err
		}
	}

	for _, og := range seedOrthogroups {
		_, err := r.store.Run(ctx,
			`MERGE (og:Orthogroup {groupId: $id}) SET og.geneCount = $count`,
			map[string]any{"id": og.GroupID, "count": og.GeneCount})
		if err != nil {
			return err
		}
	}

	for _, gene := range seedGenes {
		if err := r.UpsertGene(ctx, gene); err != nil {
			return err
		}
	}

	slog.Info("Seeding completed",
		slog.Int("isolates", len(seedIsolates)),
		slog.Int("orthogroups", len(seedOrthogroups)),
		slog.Int("genes", len(seedGenes)))
	return nil
}

// UpsertGene writes one gene and its FOUND_IN / BELONGS_TO_OG relationships.
// Endpoints are merged so ingestion can run against an empty database.
func (r *Repository) UpsertGene(ctx context.Context, gene Gene) error {
	_, err := r.store.Run(ctx,
		`MERGE (g:Gene {geneId: $geneId})
		 SET g.symbol = $symbol, g.biotype = $biotype, g.description = $description,
		     g.start = $start, g.end = $end, g.strand = $strand`,
		map[string]any{
			"geneId":      gene.GeneID,
			"symbol":      gene.Symbol,
			"biotype":     gene.Biotype,
			"description": gene.Description,
			"start":       gene.Start,
			"end":         gene.End,
			"strand":      gene.Strand,
		})
	if err != nil {
		return err
	}

	if gene.IsolateName != "" {
		_, err = r.store.Run(ctx,
			`MATCH (g:Gene {geneId: $geneId})
			 MERGE (i:Isolate {name: $isolate})
			 MERGE (g)-[:FOUND_IN]->(i)`,
			map[string]any{"geneId": gene.GeneID, "isolate": gene.IsolateName})
		if err != nil {
			return err
		}
	}

	if gene.OrthogroupID != "" {
		_, err = r.store.Run(ctx,
			`MATCH (g:Gene {geneId: $geneId})
			 MERGE (og:Orthogroup {groupId: $og})
			 MERGE (g)-[:BELONGS_TO_OG]->(og)`,
			map[string]any{"geneId": gene.GeneID, "og": gene.OrthogroupID})
		if err != nil {
			return err
		}
	}
	return nil
}
