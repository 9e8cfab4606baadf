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
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel   = "gemini-1.5-flash"
)

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// GeminiClient talks to the Gemini generateContent REST API.
//
// Thread Safety: GeminiClient is safe for concurrent use.
type GeminiClient struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
}

// NewGeminiClientWithConfig creates a GeminiClient with explicit
// configuration. Useful for testing against httptest servers.
func NewGeminiClientWithConfig(apiKey, model, baseURL string) *GeminiClient {
	return &GeminiClient{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// NewGeminiClient creates a GeminiClient from GEMINI_API_KEY and
// GEMINI_MODEL environment variables.
func NewGeminiClient() (*GeminiClient, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is missing (GEMINI_API_KEY)")
	}

	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = defaultGeminiModel
		slog.Info("GEMINI_MODEL not set, defaulting to", "model", model)
	}

	return NewGeminiClientWithConfig(apiKey, model, defaultGeminiBaseURL), nil
}

// Name implements Client.Name.
func (c *GeminiClient) Name() string { return "gemini" }

// Complete implements Client.Complete against generateContent.
//
// Gemini uses "model" instead of "assistant" for model turns, so roles are
// remapped before the call.
func (c *GeminiClient) Complete(ctx context.Context, system string, conversation []Message) (string, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "llm.Gemini.Complete",
		trace.WithAttributes(
			attribute.String("provider", "gemini"),
			attribute.String("model", c.model),
			attribute.Int("message_count", len(conversation)),
		),
	)
	defer span.End()

	activeRequests.WithLabelValues("gemini").Inc()
	defer activeRequests.WithLabelValues("gemini").Dec()

	reqBody := geminiRequest{}
	if system != "" {
		reqBody.SystemInstruction = &geminiContent{
			Parts: []geminiPart{{Text: system}},
		}
	}
	for _, m := range conversation {
		role := m.Role
		if role == "assistant" {
			role = "model"
		}
		reqBody.Contents = append(reqBody.Contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: m.Content}},
		})
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal gemini request: %w", err)
	}

	start := time.Now()
	content, err := c.send(ctx, payload)
	duration := time.Since(start)
	recordCall("gemini", duration, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	span.SetAttributes(attribute.Int("response_len", len(content)))
	slog.Debug("Gemini completion finished",
		slog.String("model", c.model),
		slog.Duration("duration", duration),
		slog.Int("response_len", len(content)),
	)
	return content, nil
}

func (c *GeminiClient) send(ctx context.Context, payload []byte) (string, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read gemini response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini returned status %d: %s", resp.StatusCode, SafeLogString(strings.TrimSpace(string(body))))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("gemini error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 {
		return "", ErrEmptyCompletion
	}

	var sb strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	content := strings.TrimSpace(sb.String())
	if content == "" {
		return "", ErrEmptyCompletion
	}
	return content, nil
}
