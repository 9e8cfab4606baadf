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
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/GanodermaGraph/services/catalog"
	"github.com/AleutianAI/GanodermaGraph/services/llm"
)

// Directory is the slice of the persistence layer the retriever needs:
// point lookups by domain key and substring searches per entity type.
// *catalog.Repository is the production implementation.
type Directory interface {
	IsolateByName(ctx context.Context, name string) (*catalog.Isolate, error)
	GeneByID(ctx context.Context, geneID string) (*catalog.Gene, error)
	OrthogroupByID(ctx context.Context, groupID string) (*catalog.Orthogroup, error)
	SearchIsolates(ctx context.Context, term string, limit int) ([]catalog.Isolate, error)
	SearchGenes(ctx context.Context, term string, limit int) ([]catalog.Gene, error)
	CountStats(ctx context.Context) (catalog.Stats, error)
}

const (
	// searchResultCap bounds how many substring matches feed the context.
	searchResultCap = 20
	// graphContextCap bounds how many visible-entity records feed the context.
	graphContextCap = 100
	// contextBudget is the combined context size cap in characters. Raw
	// character length is a deliberate proxy for token budget; switching to
	// real token counting would change what gets truncated and when.
	contextBudget = 12000
	// graphSectionPrefixLen is how much of the scoped section survives when
	// the combined context exceeds the budget.
	graphSectionPrefixLen = 8000
	// minSearchTermLen: terms shorter than this never match anything.
	minSearchTermLen = 3

	// statsSentinel is the keyword-extraction output meaning "the user wants
	// aggregate database statistics", documented in the extraction prompt.
	statsSentinel = "DATABASE_STATS"

	// notFoundMarker is the fixed entity-scope failure text.
	notFoundMarker = "Entity not found or unknown type."
)

// keywordExtractionPrompt reduces a free-text question to one search term.
const keywordExtractionPrompt = `You extract search keywords for a Ganoderma genomics database.
Reduce the user's question to the single most relevant search term: a gene symbol, gene id, isolate name, host plant, country, or orthogroup id.
Output ONLY the term, nothing else.
If the user asks about the database as a whole (how many entries, overall statistics, what data exists), output exactly: ` + statsSentinel

// Retriever produces the bounded textual context block for one question.
//
// Thread Safety: Retriever is safe for concurrent use; all state is
// request-scoped.
type Retriever struct {
	dir Directory
	llm llm.Client
}

// NewRetriever creates a Retriever over the given directory and LLM client.
func NewRetriever(dir Directory, client llm.Client) *Retriever {
	return &Retriever{dir: dir, llm: client}
}

// Retrieve builds the context block for the question under the given scope.
//
// Description:
//
//	Global context is always computed first; entity- and graph-scope context
//	is additive, appended under a labeled section header, including for
//	global-scope requests that carry the ids. When the combined
//	size would exceed the budget, the scoped section is truncated to a fixed
//	prefix with an ellipsis marker rather than omitted.
//
// Outputs:
//   - string: The formatted context block, never empty on success.
//   - error: Non-nil only when the store or the LLM was unreachable.
func (r *Retriever) Retrieve(ctx context.Context, question string, scope Scope, entityID string, contextIDs []string) (string, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "rag.Retrieve")
	defer span.End()
	span.SetAttributes(attribute.String("scope", scope.String()))

	global, err := r.globalContext(ctx, question)
	if err != nil {
		return "", err
	}

	// Entity and graph context are additive to the global block; a global
	// request that carries a focused entity or visible-graph ids still
	// layers that context in.
	var section, header string
	switch {
	case scope == ScopeEntity || (scope == ScopeGlobal && entityID != ""):
		section, err = r.entityContext(ctx, entityID)
		header = "FOCUSED ENTITY CONTEXT"
	case scope == ScopeGraph || (scope == ScopeGlobal && len(contextIDs) > 0):
		section, err = r.graphContext(ctx, contextIDs)
		header = "VISIBLE GRAPH CONTEXT"
	default:
		span.SetAttributes(attribute.Int("context_len", len(global)))
		return global, nil
	}
	if err != nil {
		return "", err
	}

	combined := global + "\n\n=== " + header + " ===\n" + section
	if len(combined) > contextBudget && len(section) > graphSectionPrefixLen {
		section = truncateToRuneBoundary(section, graphSectionPrefixLen) + " …"
		combined = global + "\n\n=== " + header + " ===\n" + section
	}
	span.SetAttributes(attribute.Int("context_len", len(combined)))
	return combined, nil
}

// globalContext runs keyword extraction and substring search, falling back
// to aggregate statistics so the model always receives something non-empty.
func (r *Retriever) globalContext(ctx context.Context, question string) (string, error) {
	term, err := r.llm.Complete(ctx, keywordExtractionPrompt, []llm.Message{
		{Role: "user", Content: question},
	})
	if err != nil {
		return "", fmt.Errorf("keyword extraction: %w", err)
	}
	term = strings.TrimSpace(term)
	slog.Debug("Extracted search term", slog.String("term", term))

	if strings.Contains(strings.ToLower(term), "database") {
		return r.statsSummary(ctx)
	}

	var lines []string
	if len(term) >= minSearchTermLen {
		lines, err = r.searchMatches(ctx, term)
		if err != nil {
			return "", err
		}
	}

	if len(lines) == 0 {
		stats, err := r.statsSummary(ctx)
		if err != nil {
			return "", err
		}
		return "No matching entities found for \"" + term + "\".\n" + stats, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Entities matching \"%s\":\n", term)
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// searchMatches gathers up to searchResultCap one-line renderings, isolates
// before genes so the scarcer entity type keeps priority.
func (r *Retriever) searchMatches(ctx context.Context, term string) ([]string, error) {
	lines := make([]string, 0, searchResultCap)

	isolates, err := r.dir.SearchIsolates(ctx, term, searchResultCap)
	if err != nil {
		return nil, fmt.Errorf("isolate search: %w", err)
	}
	for _, iso := range isolates {
		if len(lines) >= searchResultCap {
			return lines, nil
		}
		lines = append(lines, renderIsolateLine(iso))
	}

	remaining := searchResultCap - len(lines)
	if remaining <= 0 {
		return lines, nil
	}
	genes, err := r.dir.SearchGenes(ctx, term, remaining)
	if err != nil {
		return nil, fmt.Errorf("gene search: %w", err)
	}
	for _, gene := range genes {
		if len(lines) >= searchResultCap {
			break
		}
		lines = append(lines, renderGeneLine(gene))
	}
	return lines, nil
}

// entityContext resolves one prefixed identifier to a short description.
// Unresolvable references are a local condition, never an error.
func (r *Retriever) entityContext(ctx context.Context, rawID string) (string, error) {
	id, ok := catalog.ParseEntityID(rawID)
	if !ok {
		return notFoundMarker, nil
	}

	switch id.Kind {
	case catalog.KindIsolate:
		iso, err := r.dir.IsolateByName(ctx, id.Key)
		if errors.Is(err, catalog.ErrNotFound) {
			return notFoundMarker, nil
		}
		if err != nil {
			return "", err
		}
		return renderIsolateLine(*iso), nil
	case catalog.KindGene:
		gene, err := r.dir.GeneByID(ctx, id.Key)
		if errors.Is(err, catalog.ErrNotFound) {
			return notFoundMarker, nil
		}
		if err != nil {
			return "", err
		}
		return renderGeneLine(*gene), nil
	case catalog.KindOrthogroup:
		og, err := r.dir.OrthogroupByID(ctx, id.Key)
		if errors.Is(err, catalog.ErrNotFound) {
			return notFoundMarker, nil
		}
		if err != nil {
			return "", err
		}
		return renderOrthogroupLine(*og), nil
	default:
		return notFoundMarker, nil
	}
}

// graphContext renders each client-visible entity as one structured record.
// Unrecognized ids are emitted as opaque placeholders rather than dropped,
// to preserve visibility into client-supplied state.
func (r *Retriever) graphContext(ctx context.Context, ids []string) (string, error) {
	var b strings.Builder
	b.WriteString("Entities currently shown in the graph view:\n")

	rendered := 0
	for _, rawID := range ids {
		if rendered >= graphContextCap {
			fmt.Fprintf(&b, "... truncated, %d more entities omitted\n", len(ids)-rendered)
			break
		}
		line, err := r.graphEntityRecord(ctx, rawID)
		if err != nil {
			return "", err
		}
		b.WriteString(line)
		b.WriteByte('\n')
		rendered++
	}
	return b.String(), nil
}

func (r *Retriever) graphEntityRecord(ctx context.Context, rawID string) (string, error) {
	id, ok := catalog.ParseEntityID(rawID)
	if !ok {
		return fmt.Sprintf("- %s: unrecognized entity reference", rawID), nil
	}
	line, err := r.entityContext(ctx, rawID)
	if err != nil {
		return "", err
	}
	if line == notFoundMarker {
		return fmt.Sprintf("- %s: %s %q not present in the database", rawID, id.Kind, id.Key), nil
	}
	return line, nil
}

// truncateToRuneBoundary cuts s to at most n bytes without splitting a
// multi-byte rune. Entity names and annotations are not guaranteed ASCII.
func truncateToRuneBoundary(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// statsSummary renders aggregate per-type counts.
func (r *Retriever) statsSummary(ctx context.Context) (string, error) {
	stats, err := r.dir.CountStats(ctx)
	if err != nil {
		return "", fmt.Errorf("count stats: %w", err)
	}
	return fmt.Sprintf(
		"Database statistics: %d isolates, %d genes, %d orthogroups.",
		stats.Isolates, stats.Genes, stats.Orthogroups), nil
}

// renderIsolateLine renders one isolate with its clickable back-reference.
func renderIsolateLine(iso catalog.Isolate) string {
	return fmt.Sprintf("- Isolate %q from %s, host %s, collected %s [%s]",
		iso.Name, orUnknown(iso.OriginCountry), orUnknown(iso.Host), orUnknown(iso.CollectionDate),
		catalog.EntityID{Kind: catalog.KindIsolate, Key: iso.Name})
}

// renderGeneLine renders one gene enriched with its known relationships as
// clickable back-references.
func renderGeneLine(gene catalog.Gene) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- Gene %s", gene.GeneID)
	if gene.Symbol != "" {
		fmt.Fprintf(&b, " (symbol %s)", gene.Symbol)
	}
	if gene.Description != "" {
		fmt.Fprintf(&b, ": %s", gene.Description)
	}
	if gene.IsolateName != "" {
		fmt.Fprintf(&b, ". Found in isolate [%s]",
			catalog.EntityID{Kind: catalog.KindIsolate, Key: gene.IsolateName})
	}
	if gene.OrthogroupID != "" {
		fmt.Fprintf(&b, ". Belongs to group [%s]",
			catalog.EntityID{Kind: catalog.KindOrthogroup, Key: gene.OrthogroupID})
	}
	fmt.Fprintf(&b, " [%s]", catalog.EntityID{Kind: catalog.KindGene, Key: gene.GeneID})
	return b.String()
}

// renderOrthogroupLine renders one orthogroup record.
func renderOrthogroupLine(og catalog.Orthogroup) string {
	return fmt.Sprintf("- Orthologous group %s with %d genes [%s]",
		og.GroupID, og.GeneCount,
		catalog.EntityID{Kind: catalog.KindOrthogroup, Key: og.GroupID})
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
