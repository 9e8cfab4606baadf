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
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/GanodermaGraph/services/llm"
)

// maxQueryRows is the hard row cap every synthesized query must carry.
const maxQueryRows = 500

// cypherPrompt is the fixed system instruction for text-to-Cypher synthesis:
// graph schema, domain vocabulary, and hard output constraints. Rule 3 (bind
// full paths) exists so relationship endpoints are always materializable;
// rule 2 keeps result sets bounded.
var cypherPrompt = fmt.Sprintf(`You translate natural language into a single Cypher query for a Neo4j genomics database.

SCHEMA:
Nodes:
  (:Isolate {name, originCountry, host, collectionDate})
  (:Gene {geneId, symbol, biotype, description, start, end, strand})
  (:Orthogroup {groupId, geneCount})
Relationships:
  (:Gene)-[:FOUND_IN]->(:Isolate)
  (:Gene)-[:BELONGS_TO_OG]->(:Orthogroup)

DOMAIN VOCABULARY:
- Gene ids follow the "Gbon_" prefix convention, e.g. "Gbon_CMR_Tox1".
- Isolate names look like "G. boninense CMR".
- originCountry values are English country names: "Cameroon", "Indonesia", "Malaysia".
  Translate other languages to these values (e.g. "Cameroun" -> "Cameroon", "Malaisie" -> "Malaysia", "Indonésie" -> "Indonesia").
- Orthogroup ids look like "OG0001".

RULES:
1. Output ONLY the Cypher query. No prose, no explanation, no code fences.
2. Every query MUST end with a LIMIT clause of at most %d.
3. Bind and RETURN full traversal paths, not bare endpoint nodes, so every relationship is returned with its endpoints. Example:
   MATCH p=(g:Gene)-[:FOUND_IN]->(i:Isolate {originCountry: "Cameroon"}) RETURN p LIMIT %d
4. If the conversation shows a previous query and the user is refining it ("only the ones from...", "now also show..."), modify the previous query's intent instead of starting over.
5. If the request is vague, return a small general sample:
   MATCH p=(g:Gene)-[r]->(n) RETURN p LIMIT 50`, maxQueryRows, maxQueryRows)

// SynthesizeCypher translates a natural-language request into a Cypher query.
//
// Description:
//
//	One LLM call with the fixed schema/vocabulary/constraint instructions
//	plus the normalized conversation history, so follow-up requests refine
//	the previously synthesized query. Any markdown code fence the model
//	adds despite instructions is stripped.
//
// Outputs:
//   - string: The query text, whitespace-trimmed.
//   - error: Non-nil only if the LLM call itself failed to produce output.
func SynthesizeCypher(ctx context.Context, client llm.Client, question string, history []llm.Message) (string, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "rag.SynthesizeCypher")
	defer span.End()

	conversation := make([]llm.Message, 0, len(history)+1)
	conversation = append(conversation, history...)
	conversation = append(conversation, llm.Message{Role: "user", Content: question})

	out, err := client.Complete(ctx, cypherPrompt, conversation)
	if err != nil {
		return "", fmt.Errorf("cypher synthesis: %w", err)
	}

	query := stripCodeFence(out)
	span.SetAttributes(attribute.Int("query_len", len(query)))
	return query, nil
}

// stripCodeFence removes a wrapping markdown code fence, with or without a
// language tag, and trims whitespace.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		// Drop a language tag like "cypher" on the fence line.
		if isLanguageTag(strings.TrimSpace(s[:idx])) {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// isLanguageTag reports whether a fence-line remainder is a markdown
// language tag (all lowercase letters, e.g. "cypher") rather than query text.
func isLanguageTag(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
