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
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all platform routes with the router.
//
// Description:
//
//	Registers the /api/* endpoints with the given Gin router group. The
//	router group should already have any required middleware applied.
//
// Endpoints:
//
//	POST /api/chat                    - Grounded chat over the knowledge graph
//	POST /api/ai/generate-cypher      - Standalone text-to-Cypher synthesis
//	POST /api/graph/query             - Materialize a Cypher query into a visual graph
//	GET  /api/graph                   - Legacy full-database graph view
//	GET  /api/dashboard/stats         - Entity counts
//	GET  /api/genes                   - List genes
//	GET  /api/genes/search            - Substring gene search
//	GET  /api/genes/:id               - Gene by stable id
//	POST /api/ingestion/gff/:isolate  - Bulk GFF3 gene ingestion
//	GET  /api/health                  - Health check
//
// Example:
//
//	svc := rag.NewService(llmClient, repo, store)
//	handlers := rag.NewHandlers(svc, repo)
//
//	api := router.Group("/api")
//	rag.RegisterRoutes(api, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	rg.POST("/chat", handlers.HandleChat)

	ai := rg.Group("/ai")
	{
		ai.POST("/generate-cypher", handlers.HandleGenerateCypher)
	}

	graph := rg.Group("/graph")
	{
		graph.GET("", handlers.HandleWholeGraph)
		graph.POST("/query", handlers.HandleGraphQuery)
	}

	rg.GET("/dashboard/stats", handlers.HandleStats)

	genes := rg.Group("/genes")
	{
		genes.GET("", handlers.HandleListGenes)
		// Registered before :id so the literal path wins.
		genes.GET("/search", handlers.HandleSearchGenes)
		genes.GET("/:id", handlers.HandleGetGene)
	}

	rg.POST("/ingestion/gff/:isolate", handlers.HandleIngestGFF)

	rg.GET("/health", handlers.HandleHealth)
}
