// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model provides the Go representation of the feature corpus: the
// records the extractor produces, the link references between them and the
// typed edges the builder resolves those links into.
//
// # Core Concepts
//
//   - FeatureRecord: one documented language feature. It is identified by
//     `<familyKey>/<slug>` and carries its introduction and optional
//     deprecation version.
//
//   - LinkRef: an unresolved Markdown link found inside a record body. The
//     builder turns it into an Edge or a dangling-reference diagnostic.
//
//   - Edge: a typed, directed relation between two records that both exist in
//     the frozen graph.
//
//   - SourceLocation: ties every record and example back to the file and lines
//     it came from, so diagnostics can point at the source.
//
// Values of this package are plain data. They hold no references to parser
// state and are safe to copy.
package model
