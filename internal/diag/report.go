package diag

import (
	"cmp"
	"slices"
)

// Report is an ordered collection of diagnostics. It is not safe for
// concurrent use; concurrent producers collect locally and Extend a shared
// report after synchronizing.
type Report struct {
	items []Diagnostic
}

// NewReport returns a report holding a copy of ds.
func NewReport(ds ...Diagnostic) *Report {
	r := &Report{}
	for _, d := range ds {
		r.Add(d)
	}
	return r
}

// Add appends a diagnostic.
func (r *Report) Add(d Diagnostic) {
	r.items = append(r.items, d.Clone())
}

// Extend appends every diagnostic of other, in order. A nil other is a no-op.
func (r *Report) Extend(other *Report) {
	if other == nil {
		return
	}
	for _, d := range other.items {
		r.Add(d)
	}
}

// Len returns the number of diagnostics.
func (r *Report) Len() int { return len(r.items) }

// Items returns a copy of the diagnostics in insertion order.
func (r *Report) Items() []Diagnostic {
	out := make([]Diagnostic, 0, len(r.items))
	for _, d := range r.items {
		out = append(out, d.Clone())
	}
	return out
}

// BySeverity returns the diagnostics with the given severity.
func (r *Report) BySeverity(s Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.items {
		if d.Severity == s {
			out = append(out, d.Clone())
		}
	}
	return out
}

// OfKind returns the diagnostics of the given kind.
func (r *Report) OfKind(k Kind) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.items {
		if d.Kind == k {
			out = append(out, d.Clone())
		}
	}
	return out
}

// Errors returns the error-severity diagnostics.
func (r *Report) Errors() []Diagnostic { return r.BySeverity(SeverityError) }

// Warnings returns the warning-severity diagnostics.
func (r *Report) Warnings() []Diagnostic { return r.BySeverity(SeverityWarning) }

// HasErrors reports whether any diagnostic has error severity.
func (r *Report) HasErrors() bool {
	return slices.ContainsFunc(r.items, func(d Diagnostic) bool { return d.Severity == SeverityError })
}

// Sorted returns the diagnostics ordered by severity, file, line, kind and
// message. Output built from it is deterministic regardless of the order in
// which concurrent stages recorded findings.
func (r *Report) Sorted() []Diagnostic {
	out := r.Items()
	slices.SortStableFunc(out, Compare)
	return out
}

// Compare orders diagnostics for presentation.
func Compare(a, b Diagnostic) int {
	return cmp.Or(
		cmp.Compare(a.Severity, b.Severity),
		cmp.Compare(a.Location.File, b.Location.File),
		cmp.Compare(a.Location.StartLine, b.Location.StartLine),
		cmp.Compare(a.Kind, b.Kind),
		cmp.Compare(a.FeatureID, b.FeatureID),
		cmp.Compare(a.Target, b.Target),
		cmp.Compare(a.Message, b.Message),
	)
}

// Group is the diagnostics of one severity.
type Group struct {
	Severity Severity
	Items    []Diagnostic
}

// Grouped returns non-empty groups, errors first, each sorted.
func (r *Report) Grouped() []Group {
	var groups []Group
	for _, d := range r.Sorted() {
		if n := len(groups); n > 0 && groups[n-1].Severity == d.Severity {
			groups[n-1].Items = append(groups[n-1].Items, d)
			continue
		}
		groups = append(groups, Group{Severity: d.Severity, Items: []Diagnostic{d}})
	}
	return groups
}

// Counts returns the number of diagnostics per severity.
func (r *Report) Counts() map[Severity]int {
	counts := make(map[Severity]int, len(severityNames))
	for _, d := range r.items {
		counts[d.Severity]++
	}
	return counts
}
