// Package dag provides a small directed graph keyed by string ids with the
// traversals the feature graph needs: strongly connected components, a
// canonical cycle inside each component, and reachability.
//
// Every traversal visits nodes and neighbors in sorted id order, so results
// are deterministic across runs.
package dag
