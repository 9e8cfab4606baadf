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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultOllamaURL = "http://localhost:11434"

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Error   string        `json:"error,omitempty"`
}

// OllamaClient talks to a local Ollama server via /api/chat.
//
// Thread Safety: OllamaClient is safe for concurrent use.
type OllamaClient struct {
	httpClient *http.Client
	baseURL    string
	model      string
}

// NewOllamaClientWithConfig creates an OllamaClient with explicit
// configuration. Useful for testing against httptest servers.
func NewOllamaClientWithConfig(baseURL, model string) *OllamaClient {
	return &OllamaClient{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
	}
}

// NewOllamaClient creates an OllamaClient from OLLAMA_BASE_URL and
// OLLAMA_MODEL environment variables.
//
// Outputs:
//   - *OllamaClient: The configured client.
//   - error: Non-nil if OLLAMA_MODEL is unset.
func NewOllamaClient() (*OllamaClient, error) {
	model := os.Getenv("OLLAMA_MODEL")
	if model == "" {
		return nil, fmt.Errorf("OLLAMA_MODEL environment variable not set")
	}
	baseURL := os.Getenv("OLLAMA_BASE_URL")
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	return NewOllamaClientWithConfig(baseURL, model), nil
}

// Name implements Client.Name.
func (c *OllamaClient) Name() string { return "ollama" }

// Complete implements Client.Complete against Ollama's /api/chat endpoint.
func (c *OllamaClient) Complete(ctx context.Context, system string, conversation []Message) (string, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "llm.Ollama.Complete",
		trace.WithAttributes(
			attribute.String("provider", "ollama"),
			attribute.String("model", c.model),
			attribute.Int("message_count", len(conversation)),
		),
	)
	defer span.End()

	activeRequests.WithLabelValues("ollama").Inc()
	defer activeRequests.WithLabelValues("ollama").Dec()

	messages := make([]ollamaMessage, 0, len(conversation)+1)
	if system != "" {
		messages = append(messages, ollamaMessage{Role: "system", Content: system})
	}
	for _, m := range conversation {
		messages = append(messages, ollamaMessage{Role: m.Role, Content: m.Content})
	}

	payload, err := json.Marshal(ollamaChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   false,
	})
	if err != nil {
		return "", fmt.Errorf("marshal ollama request: %w", err)
	}

	start := time.Now()
	content, err := c.send(ctx, payload)
	duration := time.Since(start)
	recordCall("ollama", duration, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	span.SetAttributes(attribute.Int("response_len", len(content)))
	slog.Debug("Ollama completion finished",
		slog.String("model", c.model),
		slog.Duration("duration", duration),
		slog.Int("response_len", len(content)),
	)
	return content, nil
}

func (c *OllamaClient) send(ctx context.Context, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read ollama response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, SafeLogString(strings.TrimSpace(string(body))))
	}

	var parsed ollamaChatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("ollama error: %s", parsed.Error)
	}

	content := strings.TrimSpace(parsed.Message.Content)
	if content == "" {
		return "", ErrEmptyCompletion
	}
	return content, nil
}
