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

import "strings"

// Scope selects which retrieval strategy runs for one request: the whole
// database, one focused entity, or the set of entities currently visible in
// the client's graph view. Scope is request-lifetime only.
type Scope int

const (
	ScopeGlobal Scope = iota
	ScopeEntity
	ScopeGraph
)

// ParseScope parses the client's scope string. Unknown or empty values fall
// back to ScopeGlobal, never an error.
func ParseScope(raw string) Scope {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "ENTITY":
		return ScopeEntity
	case "GRAPH":
		return ScopeGraph
	default:
		return ScopeGlobal
	}
}

// String returns the scope tag used in prompts and responses.
func (s Scope) String() string {
	switch s {
	case ScopeEntity:
		return "ENTITY"
	case ScopeGraph:
		return "GRAPH"
	default:
		return "GLOBAL"
	}
}
