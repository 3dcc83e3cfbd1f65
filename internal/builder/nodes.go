package builder

import (
	"context"
	"fmt"

	"github.com/specialistvlad/refgraph/internal/ctxlog"
	"github.com/specialistvlad/refgraph/internal/diag"
	"github.com/specialistvlad/refgraph/internal/model"
)

type nodeSet struct {
	records  []*model.FeatureRecord
	known    map[string]bool
	excluded map[string]bool
}

// collectNodes performs the first pass: it checks every draft against the
// catalog and drops ids that are defined more than once.
func (b *Builder) collectNodes(ctx context.Context, drafts []*model.FeatureRecord, report *diag.Report) (*nodeSet, error) {
	logger := ctxlog.FromContext(ctx)

	byID := make(map[string][]*model.FeatureRecord, len(drafts))
	var order []string
	for _, r := range drafts {
		if err := b.checkDraft(r); err != nil {
			return nil, err
		}
		if _, seen := byID[r.ID]; !seen {
			order = append(order, r.ID)
		}
		byID[r.ID] = append(byID[r.ID], r)
	}

	set := &nodeSet{
		known:    make(map[string]bool, len(order)),
		excluded: make(map[string]bool),
	}
	for _, id := range order {
		group := byID[id]
		if len(group) == 1 {
			set.records = append(set.records, group[0])
			set.known[id] = true
			continue
		}
		logger.Debug("Duplicate feature excluded.", "id", id, "definitions", len(group))
		set.excluded[id] = true
		for _, dup := range group[1:] {
			report.Add(diag.DuplicateFeature(id, group[0].Location, dup.Location))
		}
	}
	return set, nil
}

func (b *Builder) checkDraft(r *model.FeatureRecord) error {
	fam, err := b.catalog.Family(r.Family)
	if err != nil {
		return fmt.Errorf("draft %s at %s: %w", r.ID, r.Location, err)
	}
	if !fam.Contains(r.Introduced) {
		return fmt.Errorf("draft %s at %s: introduced version %q is not a %s version", r.ID, r.Location, r.Introduced.Name, fam.Name)
	}
	if r.Deprecated != nil && !fam.Contains(*r.Deprecated) {
		return fmt.Errorf("draft %s at %s: deprecated version %q is not a %s version", r.ID, r.Location, r.Deprecated.Name, fam.Name)
	}
	return nil
}
