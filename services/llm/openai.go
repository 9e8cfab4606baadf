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
	"net/http"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

type openAIChatRequest struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// OpenAIClient talks to any OpenAI-compatible /v1/chat/completions endpoint.
//
// Thread Safety: OpenAIClient is safe for concurrent use.
type OpenAIClient struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
}

// NewOpenAIClientWithConfig creates an OpenAIClient with explicit
// configuration. Useful for testing against httptest servers.
func NewOpenAIClientWithConfig(apiKey, model, baseURL string) *OpenAIClient {
	return &OpenAIClient{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// NewOpenAIClient creates an OpenAIClient from OPENAI_API_KEY, OPENAI_MODEL
// and optional OPENAI_BASE_URL environment variables.
func NewOpenAIClient() (*OpenAIClient, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}
	baseURL := os.Getenv("OPENAI_BASE_URL")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return NewOpenAIClientWithConfig(apiKey, model, baseURL), nil
}

// Name implements Client.Name.
func (c *OpenAIClient) Name() string { return "openai" }

// Complete implements Client.Complete against /v1/chat/completions.
func (c *OpenAIClient) Complete(ctx context.Context, system string, conversation []Message) (string, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "llm.OpenAI.Complete",
		trace.WithAttributes(
			attribute.String("provider", "openai"),
			attribute.String("model", c.model),
			attribute.Int("message_count", len(conversation)),
		),
	)
	defer span.End()

	activeRequests.WithLabelValues("openai").Inc()
	defer activeRequests.WithLabelValues("openai").Dec()

	messages := make([]openAIMessage, 0, len(conversation)+1)
	if system != "" {
		messages = append(messages, openAIMessage{Role: "system", Content: system})
	}
	for _, m := range conversation {
		messages = append(messages, openAIMessage{Role: m.Role, Content: m.Content})
	}

	payload, err := json.Marshal(openAIChatRequest{Model: c.model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("marshal openai request: %w", err)
	}

	start := time.Now()
	content, err := c.send(ctx, payload)
	recordCall("openai", time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.Int("response_len", len(content)))
	return content, nil
}

func (c *OpenAIClient) send(ctx context.Context, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build openai request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read openai response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai returned status %d: %s", resp.StatusCode, SafeLogString(strings.TrimSpace(string(body))))
	}

	var parsed openAIChatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("openai error (%s): %s", parsed.Error.Type, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyCompletion
	}
	return content, nil
}
