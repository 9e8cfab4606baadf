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
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// LoadGFF bulk-ingests gene annotations from a GFF3 stream for one isolate.
//
// Description:
//
//	Reads the stream line by line, keeps only rows of feature type "gene",
//	parses the 9-column GFF3 layout and the key=value attribute column, and
//	upserts each gene linked to the named isolate. Rows that fail to parse
//	are logged and skipped, not fatal. The isolate is created if missing.
//
// Outputs:
//   - int: Number of genes loaded.
//   - error: Non-nil only for stream or store failures.
func (r *Repository) LoadGFF(ctx context.Context, isolateName string, gff io.Reader) (int, error) {
	slog.Info("Starting GFF loading", slog.String("isolate", isolateName))

	loaded := 0
	scanner := bufio.NewScanner(gff)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}
		gene, ok := parseGFFGeneLine(line)
		if !ok {
			continue
		}
		gene.IsolateName = isolateName
		if err := r.UpsertGene(ctx, *gene); err != nil {
			return loaded, fmt.Errorf("load gff line %d: %w", lineNo, err)
		}
		loaded++
	}
	if err := scanner.Err(); err != nil {
		return loaded, fmt.Errorf("read gff stream: %w", err)
	}

	slog.Info("GFF loading completed",
		slog.String("isolate", isolateName),
		slog.Int("genes", loaded))
	return loaded, nil
}

// parseGFFGeneLine parses one GFF3 data row. Returns ok=false for rows that
// are not genes or are malformed; the caller decides whether to log.
func parseGFFGeneLine(line string) (*Gene, bool) {
	parts := strings.Split(line, "\t")
	if len(parts) < 9 {
		return nil, false
	}
	if !strings.EqualFold(parts[2], "gene") {
		return nil, false
	}

	start, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		slog.Warn("Skipping gene row with bad start coordinate", slog.String("value", parts[3]))
		return nil, false
	}
	end, err := strconv.ParseInt(parts[4], 10, 64)
	if err != nil {
		slog.Warn("Skipping gene row with bad end coordinate", slog.String("value", parts[4]))
		return nil, false
	}

	attrs := parseGFFAttributes(parts[8])
	id := attrs["ID"]
	if id == "" {
		return nil, false
	}

	return &Gene{
		GeneID:      id,
		Symbol:      attrs["Name"],
		Biotype:     "protein_coding",
		Description: gffDescription(attrs),
		Start:       start,
		End:         end,
		Strand:      parts[6],
	}, true
}

// parseGFFAttributes splits the semicolon-separated key=value attribute column.
func parseGFFAttributes(s string) map[string]string {
	attrs := make(map[string]string)
	for _, pair := range strings.Split(s, ";") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) == 2 {
			attrs[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
		}
	}
	return attrs
}

// gffDescription picks the best available free-text annotation field.
func gffDescription(attrs map[string]string) string {
	for _, key := range []string{"Note", "description", "product"} {
		if v := attrs[key]; v != "" {
			return v
		}
	}
	return ""
}
