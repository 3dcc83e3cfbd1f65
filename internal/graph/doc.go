// Package graph holds one frozen generation of the feature graph and its
// JSON persistence format.
//
// # Lifecycle
//
//  1. **Built:** the builder resolves extractor drafts into records and edges
//     and calls Freeze.
//  2. **Persisted:** Encode / WriteFile store the generation as JSON with
//     sorted nodes and edges.
//  3. **Read:** Decode / ReadFile reconstruct an identical Graph for the
//     resolver, the reference validator and the example validator.
//
// A Graph is never mutated after Freeze. Accessors return copies, so any
// number of goroutines may query one generation concurrently. Re-running
// extraction produces a new Graph with a new generation id.
//
// # Invariants
//
//   - Node ids are unique.
//   - Every edge in Edges has both endpoints in the node set. Edges read
//     from a file whose endpoint is missing are kept aside in Dangling so the
//     reference validator can report them.
//   - Edges are unique on (type, source, target) and never self-referential.
package graph
