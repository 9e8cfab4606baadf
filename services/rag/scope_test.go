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

import "testing"

func TestParseScope(t *testing.T) {
	tests := []struct {
		in   string
		want Scope
	}{
		{"GLOBAL", ScopeGlobal},
		{"ENTITY", ScopeEntity},
		{"GRAPH", ScopeGraph},
		{"entity", ScopeEntity},
		{" graph ", ScopeGraph},
		{"", ScopeGlobal},
		{"SOMETHING_ELSE", ScopeGlobal},
	}
	for _, tt := range tests {
		if got := ParseScope(tt.in); got != tt.want {
			t.Errorf("ParseScope(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestScopeRoundTrip(t *testing.T) {
	for _, s := range []Scope{ScopeGlobal, ScopeEntity, ScopeGraph} {
		if got := ParseScope(s.String()); got != s {
			t.Errorf("ParseScope(%v.String()) = %v", s, got)
		}
	}
}
