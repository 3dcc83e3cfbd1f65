package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	m := Default()
	require.NoError(t, m.Validate())

	catalog, err := m.Catalog()
	require.NoError(t, err)
	assert.Len(t, catalog.Families(), 2)
	assert.Equal(t, "C++26", catalog.MustFamily("cpp").Latest().Name)
}

func TestValidate_Rejects(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(m *Model)
		want   string
	}{
		{name: "no families", mutate: func(m *Model) { m.Families = nil }, want: "Families"},
		{name: "bad family key", mutate: func(m *Model) { m.Families[0].Key = "C 1" }, want: "Key"},
		{name: "duplicate version", mutate: func(m *Model) { m.Families[0].Versions = []string{"C89", "C89"} }, want: "Versions"},
		{name: "zero timeout", mutate: func(m *Model) { m.Check.Timeout = 0 }, want: "Timeout"},
		{name: "bad backend", mutate: func(m *Model) { m.Check.Backend = "clang" }, want: "Backend"},
		{name: "no workers", mutate: func(m *Model) { m.Check.WorkersPerDialect = 0 }, want: "WorkersPerDialect"},
		{name: "duplicate family", mutate: func(m *Model) { m.Families[1].Key = "c" }, want: "declared twice"},
		{
			name: "toolchain without command",
			mutate: func(m *Model) {
				m.Toolchains = []Toolchain{{Name: "gcc", Dialects: []string{"c"}}}
			},
			want: "Command",
		},
		{
			name: "toolchain for unknown dialect",
			mutate: func(m *Model) {
				m.Toolchains = []Toolchain{{Name: "rustc", Dialects: []string{"rust2021"}, Command: argv{"rustc"}}}
			},
			want: "unknown dialect",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := Default()
			tc.mutate(m)
			err := m.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

type argv []string

func (a argv) Render(CommandVars) ([]string, error) { return a, nil }
