// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package llm provides the text-completion clients used by the RAG pipeline.
// Providers are plain HTTP clients in front of Ollama, OpenAI-compatible,
// Anthropic or Gemini endpoints; the pipeline only depends on the Client
// interface.
package llm

import (
	"context"
	"errors"
)

// Message is one turn of a conversation sent to the model.
// Role is "user" or "assistant"; system instructions travel separately.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client is an opaque synchronous text-completion service.
//
// Description:
//
//	Complete sends the system instructions plus the conversation and returns
//	the model's text. Implementations must be safe for concurrent use and
//	must honor ctx cancellation.
type Client interface {
	Complete(ctx context.Context, system string, conversation []Message) (string, error)
	Name() string
}

// ErrEmptyCompletion is returned when the provider answered successfully but
// produced no usable text. Callers treat it as a generation failure rather
// than an empty answer.
var ErrEmptyCompletion = errors.New("llm: provider returned empty completion")
