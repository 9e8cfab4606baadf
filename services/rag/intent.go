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

	"github.com/AleutianAI/GanodermaGraph/services/llm"
)

// Intent is the binary classification of a question.
type Intent int

const (
	IntentQA Intent = iota
	IntentVisualization
)

// String returns the classifier label for the intent.
func (i Intent) String() string {
	if i == IntentVisualization {
		return "VISUALIZATION"
	}
	return "QA"
}

// intentPrompt is the closed two-label classification instruction.
const intentPrompt = `Classify the user's request about a biological knowledge graph.
Answer with exactly one word:
VISUALIZATION - the user wants the graph view updated, filtered or redrawn (e.g. "show me", "display", "filter the graph to").
QA - the user wants a textual answer to a question.
Output only the label.`

// ClassifyIntent decides whether the question asks for a graph update.
//
// Description:
//
//	One LLM call with a closed two-label instruction. Anything other than
//	the exact VISUALIZATION label maps to QA, including classifier failure:
//	an ambiguous classification must never trigger the query-synthesis side
//	effect, so QA is the fail-safe default.
func ClassifyIntent(ctx context.Context, client llm.Client, question string) Intent {
	out, err := client.Complete(ctx, intentPrompt, []llm.Message{
		{Role: "user", Content: question},
	})
	if err != nil {
		slog.Warn("Intent classification failed, defaulting to QA",
			slog.String("error", err.Error()))
		return IntentQA
	}
	if strings.TrimSpace(out) == "VISUALIZATION" {
		return IntentVisualization
	}
	return IntentQA
}
