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

func TestOllamaComplete(t *testing.T) {
	var captured ollamaChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q, want /api/chat", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(ollamaChatResponse{
			Message: ollamaMessage{Role: "assistant", Content: "  hello there  "},
		})
	}))
	defer server.Close()

	client := NewOllamaClientWithConfig(server.URL, "test-model")
	got, err := client.Complete(context.Background(), "be brief", []Message{
		{Role: "user", Content: "hi"},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "hello there" {
		t.Errorf("Complete() = %q, want trimmed content", got)
	}

	if captured.Model != "test-model" {
		t.Errorf("model = %q", captured.Model)
	}
	if captured.Stream {
		t.Error("stream must be disabled")
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" {
		t.Errorf("messages = %+v, want system prompt first", captured.Messages)
	}
}

func TestOllamaCompleteOmitsEmptySystem(t *testing.T) {
	var captured ollamaChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_ = json.NewEncoder(w).Encode(ollamaChatResponse{
			Message: ollamaMessage{Role: "assistant", Content: "ok"},
		})
	}))
	defer server.Close()

	client := NewOllamaClientWithConfig(server.URL, "test-model")
	if _, err := client.Complete(context.Background(), "", []Message{{Role: "user", Content: "hi"}}); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if len(captured.Messages) != 1 {
		t.Errorf("messages = %+v, want only the user turn", captured.Messages)
	}
}

func TestOllamaCompleteEmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(ollamaChatResponse{
			Message: ollamaMessage{Role: "assistant", Content: "   "},
		})
	}))
	defer server.Close()

	client := NewOllamaClientWithConfig(server.URL, "test-model")
	_, err := client.Complete(context.Background(), "", []Message{{Role: "user", Content: "hi"}})
	if !errors.Is(err, ErrEmptyCompletion) {
		t.Errorf("error = %v, want ErrEmptyCompletion", err)
	}
}

func TestOllamaCompleteUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewOllamaClientWithConfig(server.URL, "test-model")
	_, err := client.Complete(context.Background(), "", []Message{{Role: "user", Content: "hi"}})
	if err == nil {
		t.Fatal("Complete() = nil error, want upstream failure")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error = %v, want status in message", err)
	}
}

func TestOllamaCompleteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(ollamaChatResponse{Error: "model is loading"})
	}))
	defer server.Close()

	client := NewOllamaClientWithConfig(server.URL, "test-model")
	_, err := client.Complete(context.Background(), "", []Message{{Role: "user", Content: "hi"}})
	if err == nil || !strings.Contains(err.Error(), "model is loading") {
		t.Errorf("error = %v, want API error surfaced", err)
	}
}
