package testutil

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/specialistvlad/refgraph/internal/diag"
)

// AssertKinds checks that r holds exactly the given diagnostic kinds, in any
// order and with repetition.
func AssertKinds(t *testing.T, r *diag.Report, kinds ...diag.Kind) {
	t.Helper()
	var got []diag.Kind
	for _, d := range r.Items() {
		got = append(got, d.Kind)
	}
	slices.Sort(got)
	want := slices.Clone(kinds)
	slices.Sort(want)
	assert.Equal(t, want, got, "diagnostic kinds; report:\n%v", r.Sorted())
}
