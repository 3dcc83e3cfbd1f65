package builder

import (
	"context"
	"path"
	"strings"

	"github.com/specialistvlad/refgraph/internal/ctxlog"
	"github.com/specialistvlad/refgraph/internal/diag"
	"github.com/specialistvlad/refgraph/internal/extractor"
	"github.com/specialistvlad/refgraph/internal/model"
)

type anchorKey struct {
	doc    string
	anchor string
}

// anchorTable maps (document, anchor) to the id of the record owning the
// anchor, and every document to its first record.
type anchorTable struct {
	byAnchor map[anchorKey]string
	first    map[string]string
}

func newAnchorTable(acc *extractor.Accumulator) *anchorTable {
	t := &anchorTable{
		byAnchor: make(map[anchorKey]string, len(acc.Anchors)),
		first:    make(map[string]string),
	}
	for _, a := range acc.Anchors {
		key := anchorKey{doc: a.DocPath, anchor: a.Anchor}
		if _, ok := t.byAnchor[key]; !ok {
			t.byAnchor[key] = a.RecordID
		}
	}
	for _, r := range acc.Records {
		if _, ok := t.first[r.Location.File]; !ok {
			t.first[r.Location.File] = r.ID
		}
	}
	return t
}

// lookup resolves a link to the id it points at.
func (t *anchorTable) lookup(link model.LinkRef) (string, bool) {
	doc := link.DocPath
	if link.TargetPath != "" {
		target := strings.TrimPrefix(link.TargetPath, "/")
		if strings.HasPrefix(link.TargetPath, "/") {
			doc = path.Clean(target)
		} else {
			doc = path.Join(path.Dir(link.DocPath), target)
		}
	}
	if link.TargetAnchor == "" {
		id, ok := t.first[doc]
		return id, ok
	}
	id, ok := t.byAnchor[anchorKey{doc: doc, anchor: link.TargetAnchor}]
	return id, ok
}

// resolveLinks performs the link pass. Every link either becomes an edge or
// a diagnostic; nothing stops the pass early.
func resolveLinks(ctx context.Context, links []model.LinkRef, anchors *anchorTable, nodes *nodeSet, report *diag.Report) []model.Edge {
	logger := ctxlog.FromContext(ctx)

	edges := make([]model.Edge, 0, len(links))
	for _, link := range links {
		if nodes.excluded[link.FromID] {
			report.Add(diag.ExcludedEndpoint(link.FromID, link.Target(), link.FromID, link.Location))
			continue
		}
		if !nodes.known[link.FromID] {
			// The source draft never reached the node set.
			continue
		}
		target, ok := anchors.lookup(link)
		if !ok {
			logger.Debug("Dangling reference.", "source", link.FromID, "target", link.Target())
			report.Add(diag.DanglingReference(link.FromID, link.TargetPath, link.TargetAnchor, link.Location))
			continue
		}
		if nodes.excluded[target] {
			report.Add(diag.ExcludedEndpoint(link.FromID, link.Target(), target, link.Location))
			continue
		}
		if target == link.FromID {
			report.Add(diag.SelfReference(link.FromID, link.Location))
			continue
		}
		edgeType := link.EdgeTypeHint
		if edgeType == "" {
			edgeType = model.RelatesTo
		}
		edges = append(edges, model.Edge{Type: edgeType, Source: link.FromID, Target: target})
	}
	return edges
}
