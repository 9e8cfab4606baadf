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
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/AleutianAI/GanodermaGraph/services/catalog"
)

var errTimeout = errors.New("dial tcp: i/o timeout")

func newTestRouter(client *fakeClient, runner *fakeRunner) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := NewService(client, newFakeDirectory(), runner)
	handlers := NewHandlers(svc, catalog.NewRepository(runner))

	router := gin.New()
	RegisterRoutes(router.Group("/api"), handlers)
	return router
}

func TestHandleHealth(t *testing.T) {
	router := newTestRouter(&fakeClient{}, &fakeRunner{result: emptyResult()})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestHandleChat(t *testing.T) {
	client := &fakeClient{
		keywordOut: "GanToxA",
		intentOut:  "QA",
		answerOut:  "[[GanToxA]] is a toxin gene.",
	}
	router := newTestRouter(client, &fakeRunner{result: emptyResult()})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat",
		strings.NewReader(`{"message": "what is GanToxA?", "scope": "GLOBAL"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}
	var resp AskResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Answer != client.answerOut {
		t.Errorf("answer = %q", resp.Answer)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID response header")
	}
}

func TestHandleChatUpstreamFailure(t *testing.T) {
	// Keyword extraction failure breaks retrieval, the pipeline fails,
	// and the client gets a clean 502 without internal error text.
	client := &fakeClient{keywordErr: errTimeout}
	router := newTestRouter(client, &fakeRunner{result: emptyResult()})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat",
		strings.NewReader(`{"message": "anything"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
	if strings.Contains(w.Body.String(), errTimeout.Error()) {
		t.Errorf("internal error text leaked to client: %s", w.Body.String())
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Code != "UPSTREAM_FAILURE" {
		t.Errorf("code = %q", resp.Code)
	}
}

func TestHandleChatBadBody(t *testing.T) {
	router := newTestRouter(&fakeClient{}, &fakeRunner{result: emptyResult()})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestHandleGenerateCypherEmptyPrompt(t *testing.T) {
	router := newTestRouter(&fakeClient{}, &fakeRunner{result: emptyResult()})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/ai/generate-cypher",
		strings.NewReader(`{"prompt": "  "}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

// listRunner routes list queries by substring so the whole-graph handler can
// see distinct isolate, orthogroup and gene result sets.
type listRunner struct {
	results map[string]*neo4j.EagerResult
}

func (l *listRunner) Run(_ context.Context, query string, _ map[string]any) (*neo4j.EagerResult, error) {
	for needle, res := range l.results {
		if strings.Contains(query, needle) {
			return res, nil
		}
	}
	return emptyResult(), nil
}

func keyedRecord(keys []string, values []any) *neo4j.Record {
	return &neo4j.Record{Keys: keys, Values: values}
}

func TestHandleWholeGraph(t *testing.T) {
	gin.SetMode(gin.TestMode)
	iso := neo4j.Node{Labels: []string{"Isolate"}, Props: map[string]any{
		"name": "G. boninense CMR", "originCountry": "Cameroon",
	}}
	og := neo4j.Node{Labels: []string{"Orthogroup"}, Props: map[string]any{
		"groupId": "OG0001", "geneCount": int64(3),
	}}
	gene := neo4j.Node{Labels: []string{"Gene"}, Props: map[string]any{
		"geneId": "Gbon_CMR_Tox1", "symbol": "GanToxA",
	}}
	runner := &listRunner{results: map[string]*neo4j.EagerResult{
		"MATCH (i:Isolate)": {Records: []*neo4j.Record{
			keyedRecord([]string{"i"}, []any{iso}),
		}},
		"MATCH (og:Orthogroup)": {Records: []*neo4j.Record{
			keyedRecord([]string{"og"}, []any{og}),
		}},
		"MATCH (g:Gene": {Records: []*neo4j.Record{
			keyedRecord([]string{"g", "isolateName", "orthogroupId"},
				[]any{gene, "G. boninense CMR", "OG0001"}),
		}},
	}}
	svc := NewService(&fakeClient{}, newFakeDirectory(), &fakeRunner{result: emptyResult()})
	handlers := NewHandlers(svc, catalog.NewRepository(runner))
	router := gin.New()
	RegisterRoutes(router.Group("/api"), handlers)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/graph", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}
	var graph VisualGraph
	if err := json.Unmarshal(w.Body.Bytes(), &graph); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(graph.Nodes) != 3 || len(graph.Links) != 2 {
		t.Fatalf("got %d nodes %d links, want 3 and 2", len(graph.Nodes), len(graph.Links))
	}
	ogNode, ok := graph.Nodes["OG_OG0001"]
	if !ok {
		t.Fatal("missing orthogroup node OG_OG0001")
	}
	if ogNode.Description != "Orthologous group with 3 genes" {
		t.Errorf("orthogroup description = %q, want gene count included", ogNode.Description)
	}
}

func TestHandleGraphQuery(t *testing.T) {
	gene := geneNode("4:x:1", "Gbon_CMR_Tox1", "GanToxA")
	iso := isolateNode("4:x:2", "G. boninense CMR")
	rel := foundIn("5:x:1", gene.ElementId, iso.ElementId)
	runner := &fakeRunner{result: resultWithRows([]any{gene, iso, rel})}
	router := newTestRouter(&fakeClient{}, runner)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/graph/query",
		strings.NewReader(`{"cypher": "MATCH p=(g)-[r]->(i) RETURN g, i, r"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", w.Code, w.Body.String())
	}
	var graph VisualGraph
	if err := json.Unmarshal(w.Body.Bytes(), &graph); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(graph.Nodes) != 2 || len(graph.Links) != 1 {
		t.Errorf("got %d nodes %d links, want 2 and 1", len(graph.Nodes), len(graph.Links))
	}
}
