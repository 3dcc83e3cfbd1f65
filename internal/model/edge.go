// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines edges and the unresolved link references they come from.
package model

import (
	"fmt"
	"strings"
)

// EdgeType classifies a relation between two features.
type EdgeType string

const (
	RelatesTo  EdgeType = "RELATES_TO"
	Requires   EdgeType = "REQUIRES"
	Supersedes EdgeType = "SUPERSEDES"
)

// EdgeTypes lists every edge type in canonical order.
var EdgeTypes = []EdgeType{RelatesTo, Requires, Supersedes}

// Edge is a resolved, typed relation. Source and Target are feature ids.
type Edge struct {
	Type   EdgeType `json:"type" yaml:"type" validate:"required,oneof=RELATES_TO REQUIRES SUPERSEDES"`
	Source string   `json:"source" yaml:"source" validate:"required"`
	Target string   `json:"target" yaml:"target" validate:"required"`
}

func (e Edge) String() string {
	return fmt.Sprintf("%s -%s-> %s", e.Source, e.Type, e.Target)
}

// CompareEdges orders edges by source, target, then type.
func CompareEdges(a, b Edge) int {
	if c := strings.Compare(a.Source, b.Source); c != 0 {
		return c
	}
	if c := strings.Compare(a.Target, b.Target); c != 0 {
		return c
	}
	return strings.Compare(string(a.Type), string(b.Type))
}

// LinkRef is an inline link found inside a record body, before resolution.
// TargetPath is relative to DocPath's directory; an empty TargetPath means
// the same document and an empty TargetAnchor means the document's first
// record.
type LinkRef struct {
	FromID       string
	DocPath      string
	TargetPath   string
	TargetAnchor string
	EdgeTypeHint EdgeType
	Text         string
	Location     SourceLocation
}

// Target renders the link destination as written, e.g. "a.md#foo".
func (l LinkRef) Target() string {
	if l.TargetAnchor == "" {
		return l.TargetPath
	}
	return l.TargetPath + "#" + l.TargetAnchor
}

// AnchorAlias maps a heading anchor of a document to the record that owns it.
// Every feature heading aliases itself; untagged sub-headings alias to their
// enclosing record.
type AnchorAlias struct {
	DocPath  string
	Anchor   string
	RecordID string
}

// Document is one input Markdown file. Path is relative to the corpus root
// with forward slashes.
type Document struct {
	Path string
	Text []byte
}
