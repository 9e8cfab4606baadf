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
	"github.com/google/uuid"
)

// ErrorResponse is the JSON error envelope for all endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// CypherRequest is the standalone query-synthesis request body.
type CypherRequest struct {
	Prompt string `json:"prompt"`
}

// CypherResponse carries a synthesized query back to the client.
type CypherResponse struct {
	Cypher string `json:"cypher"`
}

// GraphQueryRequest is the direct materialization request body.
type GraphQueryRequest struct {
	Cypher string `json:"cypher"`
}

// IngestResponse reports a completed GFF ingestion.
type IngestResponse struct {
	Isolate string `json:"isolate"`
	Genes   int    `json:"genes"`
}

// getOrCreateRequestID returns the inbound X-Request-ID header, generating a
// fresh UUID when the client sent none. The id is echoed on the response.
func getOrCreateRequestID(c *gin.Context) string {
	id := c.GetHeader("X-Request-ID")
	if id == "" {
		id = uuid.NewString()
	}
	c.Header("X-Request-ID", id)
	return id
}
