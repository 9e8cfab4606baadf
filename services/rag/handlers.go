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
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/GanodermaGraph/services/catalog"
)

// Handlers is the thin gin shim over the orchestrator and the catalog.
type Handlers struct {
	svc  *Service
	repo *catalog.Repository
}

// NewHandlers creates the handlers instance.
func NewHandlers(svc *Service, repo *catalog.Repository) *Handlers {
	return &Handlers{svc: svc, repo: repo}
}

// HandleChat handles POST /api/chat.
//
// Description:
//
//	Runs the full ask pipeline: scoped retrieval, intent classification,
//	optional Cypher synthesis, grounded answer. Upstream failures surface
//	as 502; internal error text never leaks into the answer field.
func (h *Handlers) HandleChat(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleChat")

	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "BAD_REQUEST"})
		return
	}

	resp, err := h.svc.Ask(c.Request.Context(), req)
	if err != nil {
		logger.Error("Ask pipeline failed", slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error: "answer generation failed, please retry",
			Code:  "UPSTREAM_FAILURE",
		})
		return
	}

	logger.Info("Chat answered",
		slog.String("scope", ParseScope(req.Scope).String()),
		slog.Bool("visualization", resp.CypherQuery != ""),
	)
	c.JSON(http.StatusOK, resp)
}

// HandleGenerateCypher handles POST /api/ai/generate-cypher.
func (h *Handlers) HandleGenerateCypher(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleGenerateCypher")

	var req CypherRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "prompt cannot be empty", Code: "BAD_REQUEST"})
		return
	}

	cypher, err := h.svc.GenerateCypher(c.Request.Context(), req.Prompt)
	if err != nil {
		logger.Error("Cypher synthesis failed", slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "query synthesis failed", Code: "UPSTREAM_FAILURE"})
		return
	}
	c.JSON(http.StatusOK, CypherResponse{Cypher: cypher})
}

// HandleGraphQuery handles POST /api/graph/query: materialize an
// already-known Cypher query into a visual graph.
func (h *Handlers) HandleGraphQuery(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleGraphQuery")

	var req GraphQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "BAD_REQUEST"})
		return
	}

	graph, err := h.svc.Materialize(c.Request.Context(), req.Cypher)
	if err != nil {
		logger.Error("Materialization failed", slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "query execution failed", Code: "MATERIALIZATION_FAILURE"})
		return
	}
	c.JSON(http.StatusOK, graph)
}

// HandleWholeGraph handles GET /api/graph: the legacy full-database view,
// built from catalog listings with domain identifiers as node keys.
func (h *Handlers) HandleWholeGraph(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleWholeGraph")

	graph, err := h.buildWholeGraph(c)
	if err != nil {
		logger.Error("Whole-graph build failed", slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "graph unavailable", Code: "STORE_FAILURE"})
		return
	}
	c.JSON(http.StatusOK, graph)
}

func (h *Handlers) buildWholeGraph(c *gin.Context) (*VisualGraph, error) {
	ctx := c.Request.Context()
	graph := NewVisualGraph()

	isolates, err := h.repo.AllIsolates(ctx)
	if err != nil {
		return nil, err
	}
	for _, iso := range isolates {
		id := catalog.EntityID{Kind: catalog.KindIsolate, Key: iso.Name}.String()
		graph.Nodes[id] = NodeRecord{
			ID:          id,
			Name:        iso.Name,
			Type:        "Isolate",
			Val:         sizeIsolate,
			Description: "Isolate from " + iso.OriginCountry,
			Properties: map[string]string{
				"host":           iso.Host,
				"originCountry":  iso.OriginCountry,
				"collectionDate": iso.CollectionDate,
			},
		}
	}

	groups, err := h.repo.AllOrthogroups(ctx)
	if err != nil {
		return nil, err
	}
	for _, og := range groups {
		id := catalog.EntityID{Kind: catalog.KindOrthogroup, Key: og.GroupID}.String()
		graph.Nodes[id] = NodeRecord{
			ID:          id,
			Name:        og.GroupID,
			Type:        "Orthogroup",
			Val:         sizeOrthogroup,
			Description: fmt.Sprintf("Orthologous group with %d genes", og.GeneCount),
		}
	}

	genes, err := h.repo.AllGenes(ctx)
	if err != nil {
		return nil, err
	}
	for _, gene := range genes {
		id := catalog.EntityID{Kind: catalog.KindGene, Key: gene.GeneID}.String()
		name := gene.Symbol
		if name == "" {
			name = gene.GeneID
		}
		graph.Nodes[id] = NodeRecord{
			ID:          id,
			Name:        name,
			Type:        "Gene",
			Val:         sizeGene,
			Description: gene.Description,
			Properties:  map[string]string{"symbol": gene.Symbol},
		}
		if gene.IsolateName != "" {
			target := catalog.EntityID{Kind: catalog.KindIsolate, Key: gene.IsolateName}.String()
			linkID := id + "->" + target
			graph.Links[linkID] = LinkRecord{ID: linkID, Source: id, Target: target, Label: "FOUND_IN"}
		}
		if gene.OrthogroupID != "" {
			target := catalog.EntityID{Kind: catalog.KindOrthogroup, Key: gene.OrthogroupID}.String()
			linkID := id + "->" + target
			graph.Links[linkID] = LinkRecord{ID: linkID, Source: id, Target: target, Label: "BELONGS_TO_OG"}
		}
	}

	graph.pruneDangling()
	return graph, nil
}

// HandleStats handles GET /api/dashboard/stats.
func (h *Handlers) HandleStats(c *gin.Context) {
	stats, err := h.repo.CountStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "stats unavailable", Code: "STORE_FAILURE"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// HandleListGenes handles GET /api/genes.
func (h *Handlers) HandleListGenes(c *gin.Context) {
	genes, err := h.repo.AllGenes(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "genes unavailable", Code: "STORE_FAILURE"})
		return
	}
	c.JSON(http.StatusOK, genes)
}

// HandleGetGene handles GET /api/genes/:id.
func (h *Handlers) HandleGetGene(c *gin.Context) {
	gene, err := h.repo.GeneByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "gene not found", Code: "NOT_FOUND"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "gene unavailable", Code: "STORE_FAILURE"})
		return
	}
	c.JSON(http.StatusOK, gene)
}

// HandleSearchGenes handles GET /api/genes/search?symbol=.
func (h *Handlers) HandleSearchGenes(c *gin.Context) {
	term := c.Query("symbol")
	if term == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "symbol parameter is required", Code: "MISSING_PARAMETER"})
		return
	}
	genes, err := h.repo.SearchGenes(c.Request.Context(), term, searchResultCap)
	if err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "search unavailable", Code: "STORE_FAILURE"})
		return
	}
	c.JSON(http.StatusOK, genes)
}

// HandleIngestGFF handles POST /api/ingestion/gff/:isolate with a multipart
// "file" field containing a GFF3 annotation file.
func (h *Handlers) HandleIngestGFF(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleIngestGFF")

	isolate := c.Param("isolate")
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file field is required", Code: "MISSING_PARAMETER"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "could not open upload", Code: "BAD_REQUEST"})
		return
	}
	defer file.Close()

	loaded, err := h.repo.LoadGFF(c.Request.Context(), isolate, file)
	if err != nil {
		logger.Error("GFF ingestion failed", slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "ingestion failed", Code: "INGESTION_FAILURE"})
		return
	}
	c.JSON(http.StatusOK, IngestResponse{Isolate: isolate, Genes: loaded})
}

// HandleHealth handles GET /api/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
