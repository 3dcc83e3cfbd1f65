package extractor

import (
	"github.com/specialistvlad/refgraph/internal/diag"
	"github.com/specialistvlad/refgraph/internal/model"
)

// Result is the extraction output of one document.
type Result struct {
	Path        string
	Records     []*model.FeatureRecord
	Links       []model.LinkRef
	Anchors     []model.AnchorAlias
	Diagnostics []diag.Diagnostic
}

// Accumulator collects the results of one extraction pass.
type Accumulator struct {
	Records []*model.FeatureRecord
	Links   []model.LinkRef
	Anchors []model.AnchorAlias
	// Documents lists every input path in input order, including skipped ones.
	Documents []string
	Report    *diag.Report
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{Report: diag.NewReport()}
}

// Merge appends a document result.
func (a *Accumulator) Merge(r *Result) {
	a.Documents = append(a.Documents, r.Path)
	a.Records = append(a.Records, r.Records...)
	a.Links = append(a.Links, r.Links...)
	a.Anchors = append(a.Anchors, r.Anchors...)
	for _, d := range r.Diagnostics {
		a.Report.Add(d)
	}
}

func (a *Accumulator) addParseError(path string, err error) {
	a.Documents = append(a.Documents, path)
	a.Report.Add(diag.ParseError(path, err.Error()))
}
