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
	"strings"

	"github.com/AleutianAI/GanodermaGraph/services/llm"
)

// RawMessage is one client-supplied history entry. Role is free-form; only
// "user" and "assistant" (case-insensitive) survive normalization.
type RawMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NormalizeHistory turns an arbitrary client-supplied message list into a
// well-formed alternating user/assistant sequence usable as LLM history.
//
// Description:
//
//	Malformed input is repaired, never rejected:
//	  - roles other than user/assistant are dropped;
//	  - an assistant entry with no preceding user turn is dropped;
//	  - a user entry following an unanswered user entry replaces it
//	    (the newer question supersedes the older one);
//	  - an assistant entry following an assistant entry is dropped
//	    (the first reply stands);
//	  - a trailing unanswered user turn is stripped, because the current
//	    question is supplied separately from the history.
//
// Outputs:
//   - []llm.Message: Strictly alternating, starting with user, ending with
//     assistant. May be empty.
func NormalizeHistory(raw []RawMessage) []llm.Message {
	cleaned := make([]llm.Message, 0, len(raw))
	for _, m := range raw {
		role := strings.ToLower(strings.TrimSpace(m.Role))
		if role != "user" && role != "assistant" {
			continue
		}
		if len(cleaned) == 0 {
			if role == "assistant" {
				continue
			}
			cleaned = append(cleaned, llm.Message{Role: role, Content: m.Content})
			continue
		}
		last := cleaned[len(cleaned)-1].Role
		if role == last {
			if role == "user" {
				cleaned[len(cleaned)-1].Content = m.Content
			}
			continue
		}
		cleaned = append(cleaned, llm.Message{Role: role, Content: m.Content})
	}

	if len(cleaned) > 0 && cleaned[len(cleaned)-1].Role == "user" {
		cleaned = cleaned[:len(cleaned)-1]
	}
	return cleaned
}
