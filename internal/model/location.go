// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines SourceLocation, the file and line span of a parsed item.
package model

import "fmt"

// SourceLocation is a 1-based, inclusive line span within a document. File is
// the document path relative to the corpus root, using forward slashes.
type SourceLocation struct {
	File      string `json:"file" yaml:"file"`
	StartLine int    `json:"startLine" yaml:"startLine"`
	EndLine   int    `json:"endLine" yaml:"endLine"`
}

// String renders the location as file:start or file:start-end.
func (l SourceLocation) String() string {
	switch {
	case l.File == "":
		return ""
	case l.StartLine == 0:
		return l.File
	case l.EndLine <= l.StartLine:
		return fmt.Sprintf("%s:%d", l.File, l.StartLine)
	default:
		return fmt.Sprintf("%s:%d-%d", l.File, l.StartLine, l.EndLine)
	}
}

// IsZero reports whether the location is unset.
func (l SourceLocation) IsZero() bool {
	return l == SourceLocation{}
}
