// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type chatRequest struct {
	Message  string `json:"message"`
	Scope    string `json:"scope,omitempty"`
	EntityID string `json:"entityId,omitempty"`
}

type chatResponse struct {
	Answer      string `json:"answer"`
	ContextUsed any    `json:"contextUsed,omitempty"`
	CypherQuery string `json:"cypherQuery,omitempty"`
}

type cypherRequest struct {
	Prompt string `json:"prompt"`
}

type cypherResponse struct {
	Cypher string `json:"cypher"`
}

type graphQueryRequest struct {
	Cypher string `json:"cypher"`
}

// graphPayload mirrors the server's visual graph: both collections are
// objects keyed by element id.
type graphPayload struct {
	Nodes map[string]struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"nodes"`
	Links map[string]struct {
		Source string `json:"source"`
		Target string `json:"target"`
		Label  string `json:"label"`
	} `json:"links"`
}

type statsResponse struct {
	Isolates    int64 `json:"isolatesCount"`
	Genes       int64 `json:"genesCount"`
	Orthogroups int64 `json:"orthogroupsCount"`
}

func runAskCommand(_ *cobra.Command, args []string) {
	question := strings.Join(args, " ")
	fmt.Printf("Asking (%s scope): %s\n", scopeFlag, question)
	fmt.Println("---")

	reqBody := chatRequest{Message: question, Scope: scopeFlag, EntityID: entityFlag}
	var resp chatResponse
	if err := postJSON("/api/chat", reqBody, &resp); err != nil {
		log.Fatalf("Error: %v", err)
	}

	fmt.Printf("\nAnswer:\n%s\n", resp.Answer)
	if resp.CypherQuery != "" {
		fmt.Printf("\nVisualization query:\n%s\n", resp.CypherQuery)
	}
	fmt.Println("\n---")
}

func runCypherCommand(_ *cobra.Command, args []string) {
	question := strings.Join(args, " ")

	var resp cypherResponse
	if err := postJSON("/api/ai/generate-cypher", cypherRequest{Prompt: question}, &resp); err != nil {
		log.Fatalf("Error: %v", err)
	}
	fmt.Println(resp.Cypher)
}

func runGraphCommand(_ *cobra.Command, args []string) {
	cypher := strings.Join(args, " ")

	var payload graphPayload
	if err := postJSON("/api/graph/query", graphQueryRequest{Cypher: cypher}, &payload); err != nil {
		log.Fatalf("Error: %v", err)
	}

	fmt.Printf("Materialized %d nodes, %d links\n", len(payload.Nodes), len(payload.Links))
	for _, n := range payload.Nodes {
		fmt.Printf("  [%s] %s (%s)\n", n.Type, n.Name, n.ID)
	}
	for _, l := range payload.Links {
		fmt.Printf("  %s -[%s]-> %s\n", l.Source, l.Label, l.Target)
	}
}

func runStatsCommand(_ *cobra.Command, _ []string) {
	var resp statsResponse
	if err := getJSON("/api/dashboard/stats", &resp); err != nil {
		log.Fatalf("Error: %v", err)
	}
	fmt.Printf("Isolates:    %d\n", resp.Isolates)
	fmt.Printf("Genes:       %d\n", resp.Genes)
	fmt.Printf("Orthogroups: %d\n", resp.Orthogroups)
}

// postJSON sends a JSON POST to the server and decodes the response into out.
func postJSON(path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to create request body: %w", err)
	}

	client := &http.Client{Timeout: 3 * time.Minute}
	resp, err := client.Post(getServerBaseURL()+path, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to reach server at %s: %w", getServerBaseURL(), err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Error("failed to close response body", "error", closeErr)
		}
	}()

	return decodeResponse(resp, out)
}

// getJSON sends a GET to the server and decodes the response into out.
func getJSON(path string, out any) error {
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(getServerBaseURL() + path)
	if err != nil {
		return fmt.Errorf("failed to reach server at %s: %w", getServerBaseURL(), err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Error("failed to close response body", "error", closeErr)
		}
	}()

	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read server response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned an error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("failed to parse server response: %w", err)
	}
	return nil
}
