// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func openAIReply(content string) openAIChatResponse {
	var resp openAIChatResponse
	resp.Choices = append(resp.Choices, struct {
		Message openAIMessage `json:"message"`
	}{Message: openAIMessage{Role: "assistant", Content: content}})
	return resp
}

func TestOpenAIComplete(t *testing.T) {
	var captured openAIChatRequest
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_ = json.NewEncoder(w).Encode(openAIReply("grounded answer"))
	}))
	defer server.Close()

	client := NewOpenAIClientWithConfig("sk-test", "gpt-4o-mini", server.URL)
	got, err := client.Complete(context.Background(), "be strict", []Message{
		{Role: "user", Content: "question"},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "grounded answer" {
		t.Errorf("Complete() = %q", got)
	}
	if auth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", auth)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" {
		t.Errorf("messages = %+v, want system prompt first", captured.Messages)
	}
}

func TestOpenAICompleteNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(openAIChatResponse{})
	}))
	defer server.Close()

	client := NewOpenAIClientWithConfig("sk-test", "gpt-4o-mini", server.URL)
	_, err := client.Complete(context.Background(), "", []Message{{Role: "user", Content: "q"}})
	if !errors.Is(err, ErrEmptyCompletion) {
		t.Errorf("error = %v, want ErrEmptyCompletion", err)
	}
}

func TestOpenAICompleteErrorBodyIsRedacted(t *testing.T) {
	// Upstream error bodies can echo credentials; the wrapped error must not.
	leaked := "invalid key sk-abcdefghijklmnopqrstuvwx provided"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, leaked, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewOpenAIClientWithConfig("sk-test", "gpt-4o-mini", server.URL)
	_, err := client.Complete(context.Background(), "", []Message{{Role: "user", Content: "q"}})
	if err == nil {
		t.Fatal("Complete() = nil error, want failure")
	}
	if strings.Contains(err.Error(), "sk-abcdefghijklmnopqrstuvwx") {
		t.Errorf("API key leaked in error: %v", err)
	}
	if !strings.Contains(err.Error(), "[REDACTED:openai_key]") {
		t.Errorf("error = %v, want redaction marker", err)
	}
}
