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

const (
	anthropicAPIVersion      = "2023-06-01"
	defaultAnthropicEndpoint = "https://api.anthropic.com/v1/messages"
	defaultAnthropicModel    = "claude-3-5-sonnet-20240620"
)

type anthropicRequest struct {
	Model     string             `json:"model"`
	Messages  []anthropicMessage `json:"messages"`
	System    string             `json:"system,omitempty"`
	MaxTokens int                `json:"max_tokens"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []anthropicContent `json:"content"`
	Error   *anthropicError    `json:"error,omitempty"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// AnthropicClient talks to the Anthropic Messages API.
//
// Thread Safety: AnthropicClient is safe for concurrent use.
type AnthropicClient struct {
	httpClient *http.Client
	apiKey     string
	model      string
	endpoint   string
}

// NewAnthropicClientWithConfig creates an AnthropicClient with explicit
// configuration. Useful for testing against httptest servers.
func NewAnthropicClientWithConfig(apiKey, model, endpoint string) *AnthropicClient {
	return &AnthropicClient{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		apiKey:     apiKey,
		model:      model,
		endpoint:   endpoint,
	}
}

// NewAnthropicClient creates an AnthropicClient from ANTHROPIC_API_KEY and
// CLAUDE_MODEL environment variables. The key may also be provided via the
// /run/secrets/anthropic_api_key container secret.
func NewAnthropicClient() (*AnthropicClient, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		if content, err := os.ReadFile("/run/secrets/anthropic_api_key"); err == nil {
			apiKey = strings.TrimSpace(string(content))
			slog.Info("Read Anthropic API Key from container secrets")
		}
	}
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic: API key is missing (ANTHROPIC_API_KEY)")
	}

	model := os.Getenv("CLAUDE_MODEL")
	if model == "" {
		model = defaultAnthropicModel
		slog.Info("CLAUDE_MODEL not set, defaulting to", "model", model)
	}

	return NewAnthropicClientWithConfig(apiKey, model, defaultAnthropicEndpoint), nil
}

// Name implements Client.Name.
func (c *AnthropicClient) Name() string { return "anthropic" }

// Complete implements Client.Complete against the Messages API.
func (c *AnthropicClient) Complete(ctx context.Context, system string, conversation []Message) (string, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "llm.Anthropic.Complete",
		trace.WithAttributes(
			attribute.String("provider", "anthropic"),
			attribute.String("model", c.model),
			attribute.Int("message_count", len(conversation)),
		),
	)
	defer span.End()

	activeRequests.WithLabelValues("anthropic").Inc()
	defer activeRequests.WithLabelValues("anthropic").Dec()

	messages := make([]anthropicMessage, 0, len(conversation))
	for _, m := range conversation {
		messages = append(messages, anthropicMessage{Role: m.Role, Content: m.Content})
	}

	payload, err := json.Marshal(anthropicRequest{
		Model:     c.model,
		Messages:  messages,
		System:    system,
		MaxTokens: 4096,
	})
	if err != nil {
		return "", fmt.Errorf("marshal anthropic request: %w", err)
	}

	start := time.Now()
	content, err := c.send(ctx, payload)
	duration := time.Since(start)
	recordCall("anthropic", duration, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	span.SetAttributes(attribute.Int("response_len", len(content)))
	slog.Debug("Anthropic completion finished",
		slog.String("model", c.model),
		slog.Duration("duration", duration),
		slog.Int("response_len", len(content)),
	)
	return content, nil
}

func (c *AnthropicClient) send(ctx context.Context, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build anthropic request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read anthropic response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("anthropic returned status %d: %s", resp.StatusCode, SafeLogString(strings.TrimSpace(string(body))))
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode anthropic response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("anthropic error: %s - %s", parsed.Error.Type, parsed.Error.Message)
	}

	var sb strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	content := strings.TrimSpace(sb.String())
	if content == "" {
		return "", ErrEmptyCompletion
	}
	return content, nil
}
