// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package catalog

import "strings"

// Kind identifies which entity type a prefixed identifier refers to.
type Kind int

const (
	KindUnknown Kind = iota
	KindIsolate
	KindGene
	KindOrthogroup
)

// String returns the label name used for the kind in the graph store.
func (k Kind) String() string {
	switch k {
	case KindIsolate:
		return "Isolate"
	case KindGene:
		return "Gene"
	case KindOrthogroup:
		return "Orthogroup"
	default:
		return "Unknown"
	}
}

// prefix returns the wire prefix for the kind. Empty for KindUnknown.
func (k Kind) prefix() string {
	switch k {
	case KindIsolate:
		return "ISOLATE_"
	case KindGene:
		return "GENE_"
	case KindOrthogroup:
		return "OG_"
	default:
		return ""
	}
}

// EntityID is a parsed domain identifier: the kind of entity plus its
// business key. Clients exchange these as prefixed strings ("ISOLATE_<name>",
// "GENE_<geneId>", "OG_<groupId>"); this type is the single place where that
// convention is parsed and formatted.
type EntityID struct {
	Kind Kind
	Key  string
}

// ParseEntityID parses a prefixed identifier.
//
// Outputs:
//   - EntityID: The parsed identifier. Kind is KindUnknown when the prefix
//     is not recognized; Key then holds the raw input.
//   - bool: True when the prefix was recognized and the key is non-empty.
func ParseEntityID(raw string) (EntityID, bool) {
	for _, kind := range []Kind{KindIsolate, KindGene, KindOrthogroup} {
		p := kind.prefix()
		if strings.HasPrefix(raw, p) && len(raw) > len(p) {
			return EntityID{Kind: kind, Key: raw[len(p):]}, true
		}
	}
	return EntityID{Kind: KindUnknown, Key: raw}, false
}

// String formats the identifier back into its prefixed wire form.
// Unknown kinds render as the bare key.
func (id EntityID) String() string {
	return id.Kind.prefix() + id.Key
}
