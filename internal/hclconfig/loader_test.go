package hclconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/refgraph/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "refgraph.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	m, err := NewLoader().Load(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), m)
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	// --- Arrange ---
	path := writeConfig(t, `
family "cpp" {
  name           = "C++"
  versions       = ["C++11", "C++14", "C++17"]
  dialect_prefix = "cpp"
  std_prefix     = "c++"
}

family "objc" {
  name     = "Objective-C"
  versions = ["ObjC1", "ObjC2"]
}

extract {
  requires_phrases = ["needs"]
  max_file_size    = 1024
}

check {
  timeout             = "250ms"
  workers_per_dialect = 2
  backend             = "toolchain"
}

toolchain "gcc" {
  dialects = ["c"]
  command  = ["gcc", "-fsyntax-only", "-std=${std}", "-x", lang, "-"]
}
`)

	// --- Act ---
	m, err := NewLoader().Load(context.Background(), path)

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, m.Families, 3)
	assert.Equal(t, []string{"C++11", "C++14", "C++17"}, m.Families[1].Versions)
	assert.Empty(t, m.Families[1].Aliases, "a replaced family does not inherit built-in aliases")
	assert.Equal(t, "objc", m.Families[2].Key)

	assert.Equal(t, []string{"needs"}, m.Extract.RequiresPhrases)
	assert.Equal(t, config.Default().Extract.SupersedesPhrases, m.Extract.SupersedesPhrases)
	assert.Equal(t, 1024, m.Extract.MaxFileSize)

	assert.Equal(t, 250*time.Millisecond, m.Check.Timeout)
	assert.Equal(t, 2, m.Check.WorkersPerDialect)
	assert.Equal(t, config.BackendToolchain, m.Check.Backend)

	require.Len(t, m.Toolchains, 1)
	argv, err := m.Toolchains[0].Command.Render(config.CommandVars{Std: "c11", Lang: "c", Dialect: "c11"})
	require.NoError(t, err)
	assert.Equal(t, []string{"gcc", "-fsyntax-only", "-std=c11", "-x", "c", "-"}, argv)
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name string
		src  string
		want string
	}{
		{name: "syntax error", src: `check {`, want: "failed to parse"},
		{name: "unknown block", src: `server "x" {}`, want: "Unsupported block type"},
		{name: "unknown attribute", src: `color = "red"`, want: "Unsupported argument"},
		{name: "unknown extract attribute", src: `extract { mode = "fast" }`, want: "Unsupported argument"},
		{name: "bad duration", src: `check { timeout = "soon" }`, want: "check.timeout"},
		{name: "invalid backend", src: `check { backend = "clang" }`, want: "Backend"},
		{
			name: "unknown command variable",
			src: `toolchain "gcc" {
  dialects = ["c"]
  command  = ["gcc", flags]
}`,
			want: `unknown variable "flags"`,
		},
		{
			name: "command not a list",
			src: `toolchain "gcc" {
  dialects = ["c"]
  command  = 42
}`,
			want: "list of strings",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewLoader().Load(context.Background(), writeConfig(t, tc.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	_, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "missing.hcl"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
