// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines FeatureRecord and CodeExample.
package model

import (
	"strings"

	"github.com/specialistvlad/refgraph/internal/version"
)

// CodeExample is one fenced code block of a record. Dialect is the canonical
// tag ("cpp17") when the info string was recognized, otherwise the raw first
// word of the info string, which later yields an unknown-dialect warning.
type CodeExample struct {
	Dialect  string
	Source   string
	Location SourceLocation
}

// FeatureRecord is a documented language feature.
type FeatureRecord struct {
	ID          string
	Name        string
	Anchor      string
	Family      string // family key
	Introduced  version.Version
	Deprecated  *version.Version
	Description string
	Examples    []CodeExample
	Location    SourceLocation
}

// AvailableAt reports whether the record is available at v: introduced at or
// before v and not yet deprecated at v.
func (r *FeatureRecord) AvailableAt(v version.Version) bool {
	if r.Family != v.Family {
		return false
	}
	if !r.Introduced.AtMost(v) {
		return false
	}
	return r.Deprecated == nil || v.Less(*r.Deprecated)
}

// Clone returns a deep copy of the record.
func (r *FeatureRecord) Clone() *FeatureRecord {
	out := *r
	if r.Deprecated != nil {
		d := *r.Deprecated
		out.Deprecated = &d
	}
	if r.Examples != nil {
		out.Examples = make([]CodeExample, len(r.Examples))
		copy(out.Examples, r.Examples)
	}
	return &out
}

// FeatureID builds the id of a record from its family key and anchor slug.
func FeatureID(familyKey, anchor string) string {
	return familyKey + "/" + anchor
}

// SplitFeatureID splits an id into family key and anchor.
func SplitFeatureID(id string) (familyKey, anchor string, ok bool) {
	return strings.Cut(id, "/")
}
