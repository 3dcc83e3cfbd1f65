package syntax

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/refgraph/internal/config"
	"github.com/specialistvlad/refgraph/internal/version"
)

func testCatalog(t *testing.T) *version.Catalog {
	t.Helper()
	c, err := config.Default().Catalog()
	require.NoError(t, err)
	return c
}

func dialect(t *testing.T, c *version.Catalog, tag string) version.Dialect {
	t.Helper()
	d, err := c.ParseDialect(tag)
	require.NoError(t, err)
	return d
}

func TestTreeSitter_CheckSyntax(t *testing.T) {
	c := testCatalog(t)
	ts := NewTreeSitter()

	testCases := []struct {
		name     string
		dialect  string
		source   string
		wantLine int // 0 means the example must pass
	}{
		{
			name:    "c++ translation unit",
			dialect: "cpp17",
			source:  "#include <vector>\n\nint main() {\n  std::vector<int> v{1, 2};\n  return v.size();\n}\n",
		},
		{
			name:    "c++ statement fragment",
			dialect: "cpp11",
			source:  "auto f = [](int x) { return x + 1; };\nreturn f(2);\n",
		},
		{
			name:    "c translation unit",
			dialect: "c99",
			source:  "int sum(int n, int a[n]) {\n  int s = 0;\n  for (int i = 0; i < n; i++) s += a[i];\n  return s;\n}\n",
		},
		{
			name:    "c fragment",
			dialect: "c11",
			source:  "if (x > 0) {\n  x--;\n}\n",
		},
		{
			name:     "broken declaration",
			dialect:  "cpp14",
			source:   "int a = 1;\nint b = ;\n",
			wantLine: 2,
		},
		{
			name:     "unbalanced braces",
			dialect:  "c89",
			source:   "int main(void) {\n  return 0;\n}\n}\n",
			wantLine: 4,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			failure, err := ts.CheckSyntax(context.Background(), dialect(t, c, tc.dialect), tc.source)
			require.NoError(t, err)
			if tc.wantLine == 0 {
				assert.Nil(t, failure)
				return
			}
			require.NotNil(t, failure)
			assert.Equal(t, tc.wantLine, failure.Line)
			assert.NotEmpty(t, failure.Message)
		})
	}
}

func TestTreeSitter_UnknownFamily(t *testing.T) {
	_, err := NewTreeSitter().CheckSyntax(context.Background(), version.Dialect{Tag: "rust2021", Family: "rust"}, "fn main() {}")
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestToolchain_CheckSyntax(t *testing.T) {
	requireShell(t)
	c := testCatalog(t)
	cpp17 := dialect(t, c, "cpp17")

	t.Run("accepts", func(t *testing.T) {
		tc := NewToolchain(config.Toolchain{
			Name:     "fake",
			Dialects: []string{"cpp"},
			Command:  staticCommand{"sh", "-c", `cat >/dev/null; [ "$1" = "c++17" ] && [ "$2" = "c++" ]`, "sh", "${std}", "${lang}"},
		}, c)
		failure, err := tc.CheckSyntax(context.Background(), cpp17, "int x;")
		require.NoError(t, err)
		assert.Nil(t, failure)
	})

	t.Run("rejects with compiler line", func(t *testing.T) {
		tc := NewToolchain(config.Toolchain{
			Name:     "fake",
			Dialects: []string{"cpp17"},
			Command:  staticCommand{"sh", "-c", `cat >/dev/null; echo "<stdin>:2:7: error: expected ';'" >&2; exit 1`},
		}, c)
		failure, err := tc.CheckSyntax(context.Background(), cpp17, "int x\nint y")
		require.NoError(t, err)
		require.NotNil(t, failure)
		assert.Equal(t, 2, failure.Line)
		assert.Equal(t, "expected ';'", failure.Message)
	})

	t.Run("missing binary is unavailable", func(t *testing.T) {
		tc := NewToolchain(config.Toolchain{
			Name:     "ghost",
			Dialects: []string{"cpp"},
			Command:  staticCommand{"refgraph-no-such-compiler", "-std=${std}"},
		}, c)
		_, err := tc.CheckSyntax(context.Background(), cpp17, "int x;")
		assert.ErrorIs(t, err, ErrBackendUnavailable)
	})

	t.Run("deadline", func(t *testing.T) {
		tc := NewToolchain(config.Toolchain{
			Name:     "slow",
			Dialects: []string{"cpp"},
			Command:  staticCommand{"sh", "-c", "exec sleep 5"},
		}, c)
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := tc.CheckSyntax(ctx, cpp17, "int x;")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestCompilerFailure(t *testing.T) {
	assert.Equal(t, &Failure{Line: 3, Message: "unknown type name 'foo'"},
		compilerFailure("In file included from x:\n<stdin>:3:1: error: unknown type name 'foo'\n", 1))
	assert.Equal(t, &Failure{Message: "something broke"}, compilerFailure("\nsomething broke\n", 1))
	assert.Equal(t, &Failure{Message: "compiler exited with status 2"}, compilerFailure("", 2))
}

func TestSelector_For(t *testing.T) {
	c := testCatalog(t)
	cfg := config.Default()
	cfg.Toolchains = []config.Toolchain{{
		Name:     "gcc",
		Dialects: []string{"c"},
		Command:  staticCommand{"gcc", "-fsyntax-only", "-std=${std}", "-x", "${lang}", "-"},
	}}

	testCases := []struct {
		mode    string
		dialect string
		want    string
	}{
		{mode: config.BackendAuto, dialect: "c99", want: "toolchain:gcc"},
		{mode: config.BackendAuto, dialect: "cpp17", want: "tree-sitter"},
		{mode: config.BackendTreeSitter, dialect: "c99", want: "tree-sitter"},
		{mode: config.BackendToolchain, dialect: "c11", want: "toolchain:gcc"},
		{mode: config.BackendToolchain, dialect: "cpp20", want: config.BackendToolchain},
	}
	for _, tc := range testCases {
		t.Run(tc.mode+"/"+tc.dialect, func(t *testing.T) {
			s, err := NewSelector(cfg, c, tc.mode)
			require.NoError(t, err)
			assert.Equal(t, tc.want, s.For(dialect(t, c, tc.dialect)).Name())
		})
	}

	s, err := NewSelector(cfg, c, config.BackendToolchain)
	require.NoError(t, err)
	_, err = s.For(dialect(t, c, "cpp20")).CheckSyntax(context.Background(), dialect(t, c, "cpp20"), "")
	assert.ErrorIs(t, err, ErrBackendUnavailable)

	_, err = NewSelector(cfg, c, "clang-magic")
	assert.ErrorContains(t, err, "unknown syntax backend")
}

// staticCommand substitutes ${std}, ${lang} and ${dialect} into fixed
// arguments.
type staticCommand []string

func (c staticCommand) Render(vars config.CommandVars) ([]string, error) {
	r := strings.NewReplacer("${std}", vars.Std, "${lang}", vars.Lang, "${dialect}", vars.Dialect)
	out := make([]string, len(c))
	for i, arg := range c {
		out[i] = r.Replace(arg)
	}
	return out, nil
}
