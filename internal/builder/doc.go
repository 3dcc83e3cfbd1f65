/*
Package builder turns the output of one extraction pass into a frozen
*graph.Graph.

Construction is a multi-pass process over an explicit extractor.Accumulator:

 1. Node pass: drafts are grouped by id. Every draft must name a known
    family and versions of that family; anything else is a fatal error since
    the extractor only emits catalog versions. Ids defined more than once are
    reported as DuplicateFeatureError and every draft sharing them is
    excluded.

 2. Anchor table: the (document, anchor) → id table and the first record of
    every document are built once and passed explicitly to resolution.

 3. Link pass: every unresolved link is resolved relative to the directory
    of its document. Unresolvable links become DanglingReferenceError
    diagnostics, links touching an excluded id become ExcludedEndpoint
    diagnostics and links back to their own record become
    SelfReferenceWarning diagnostics. All of them are collected in one pass.

 4. Freeze: surviving records and edges are frozen under a fresh generation
    id. Freeze runs in strict mode, so an edge with a missing endpoint can
    only come from a bug in this package.

Building is single-threaded.
*/
package builder
