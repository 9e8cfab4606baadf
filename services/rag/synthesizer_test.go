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

	"github.com/AleutianAI/GanodermaGraph/services/llm"
)

func TestStripCodeFence(t *testing.T) {
	query := `MATCH p=(g:Gene)-[:FOUND_IN]->(i:Isolate) RETURN p LIMIT 50`

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "bare query untouched", in: query, want: query},
		{name: "fence with language tag", in: "```cypher\n" + query + "\n```", want: query},
		{name: "fence without language tag", in: "```\n" + query + "\n```", want: query},
		{name: "surrounding whitespace", in: "  \n```cypher\n" + query + "\n```\n  ", want: query},
		{
			// A query starting with an all-caps keyword on the fence line
			// must not be eaten as a language tag.
			name: "query on the fence line",
			in:   "```" + query + "\n```",
			want: query,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripCodeFence(tt.in); got != tt.want {
				t.Errorf("stripCodeFence() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSynthesizeCypherPassesHistory(t *testing.T) {
	var seen []llm.Message
	client := &recordingClient{out: "MATCH (n) RETURN n LIMIT 10", record: func(conv []llm.Message) { seen = conv }}

	history := []llm.Message{
		{Role: "user", Content: "show genes from Cameroon"},
		{Role: "assistant", Content: "done"},
	}
	got, err := SynthesizeCypher(context.Background(), client, "only the toxins", history)
	if err != nil {
		t.Fatalf("SynthesizeCypher() error = %v", err)
	}
	if got != "MATCH (n) RETURN n LIMIT 10" {
		t.Errorf("query = %q", got)
	}
	if len(seen) != 3 {
		t.Fatalf("conversation length = %d, want history plus question", len(seen))
	}
	if seen[2].Role != "user" || seen[2].Content != "only the toxins" {
		t.Errorf("last message = %+v, want the refinement question", seen[2])
	}
}

func TestSynthesizeCypherSurfacesLLMFailure(t *testing.T) {
	client := &recordingClient{err: errors.New("overloaded")}
	if _, err := SynthesizeCypher(context.Background(), client, "anything", nil); err == nil {
		t.Fatal("SynthesizeCypher() = nil error, want failure")
	}
}

// recordingClient captures the conversation passed to Complete.
type recordingClient struct {
	out    string
	err    error
	record func([]llm.Message)
}

func (r *recordingClient) Name() string { return "recording" }

func (r *recordingClient) Complete(_ context.Context, _ string, conv []llm.Message) (string, error) {
	if r.record != nil {
		r.record(conv)
	}
	return r.out, r.err
}
