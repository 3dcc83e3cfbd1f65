package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog(
		FamilySpec{Key: "c", Name: "C", Versions: []string{"C89", "C99", "C11", "C17", "C23"}, DialectPrefix: "c", StdPrefix: "c"},
		FamilySpec{Key: "cpp", Name: "C++", Versions: []string{"C++98", "C++11", "C++14", "C++17", "C++20", "C++23", "C++26"}, DialectPrefix: "cpp", StdPrefix: "c++", Aliases: []string{"c++", "cxx"}},
	)
	require.NoError(t, err)
	return c
}

func TestNewCatalog_Validation(t *testing.T) {
	testCases := []struct {
		name  string
		specs []FamilySpec
		err   string
	}{
		{name: "no families", specs: nil, err: "at least one family"},
		{name: "missing name", specs: []FamilySpec{{Key: "c", Versions: []string{"C89"}}}, err: "key and name are required"},
		{name: "no versions", specs: []FamilySpec{{Key: "c", Name: "C"}}, err: "at least one version"},
		{
			name:  "duplicate family",
			specs: []FamilySpec{{Key: "c", Name: "C", Versions: []string{"C89"}}, {Key: "C", Name: "C again", Versions: []string{"C99"}}},
			err:   "declared twice",
		},
		{
			name:  "version in two families",
			specs: []FamilySpec{{Key: "a", Name: "A", Versions: []string{"X1"}}, {Key: "b", Name: "B", Versions: []string{"X1"}}},
			err:   "declared by both",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCatalog(tc.specs...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.err)
		})
	}
}

func TestVersionOrdering(t *testing.T) {
	c := testCatalog(t)
	cpp := c.MustFamily("cpp")

	v11, err := cpp.Version("C++11")
	require.NoError(t, err)
	v17, err := cpp.Version("17")
	require.NoError(t, err)
	v20, err := cpp.Version("cpp20")
	require.NoError(t, err)

	assert.True(t, v11.Less(v17))
	assert.True(t, v17.AtMost(v17))
	assert.False(t, v20.AtMost(v17))
	assert.Equal(t, 0, v17.Compare(v17))
	assert.Equal(t, "C++26", cpp.Latest().Name)
}

func TestCompare_PanicsAcrossFamilies(t *testing.T) {
	c := testCatalog(t)
	v99, err := c.FindVersion("C99")
	require.NoError(t, err)
	v98, err := c.FindVersion("c++98")
	require.NoError(t, err)

	assert.Panics(t, func() { v99.Compare(v98) })
}

func TestCatalog_Lookups(t *testing.T) {
	c := testCatalog(t)

	f, err := c.Family("C++")
	require.NoError(t, err)
	assert.Equal(t, "cpp", f.Key)

	_, err = c.Family("rust")
	assert.ErrorIs(t, err, ErrUnknownFamily)

	v, err := c.ParseVersion("cpp", "c++14")
	require.NoError(t, err)
	assert.Equal(t, "C++14", v.Name)
	assert.Equal(t, 2, v.Ordinal)

	_, err = c.ParseVersion("c", "C++14")
	assert.ErrorIs(t, err, ErrUnknownVersion)

	assert.True(t, f.Contains(v))
	assert.False(t, c.MustFamily("c").Contains(v))
}

func TestParseDialect(t *testing.T) {
	c := testCatalog(t)

	testCases := []struct {
		in      string
		tag     string
		family  string
		version string
	}{
		{in: "cpp17", tag: "cpp17", family: "cpp", version: "C++17"},
		{in: "C++20", tag: "cpp20", family: "cpp", version: "C++20"},
		{in: "cxx11", tag: "cpp11", family: "cpp", version: "C++11"},
		{in: "c99", tag: "c99", family: "c", version: "C99"},
		{in: "cpp", tag: "cpp", family: "cpp"},
		{in: "c++", tag: "cpp", family: "cpp"},
		{in: "C", tag: "c", family: "c"},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			d, err := c.ParseDialect(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.tag, d.Tag)
			assert.Equal(t, tc.family, d.Family)
			if tc.version == "" {
				assert.False(t, d.Pinned())
				return
			}
			require.True(t, d.Pinned())
			assert.Equal(t, tc.version, d.Version.Name)
		})
	}

	for _, bad := range []string{"", "python", "cpp18", "c42"} {
		_, err := c.ParseDialect(bad)
		assert.ErrorIs(t, err, ErrUnknownDialect, bad)
	}
}

func TestPinAndStd(t *testing.T) {
	c := testCatalog(t)
	bare, err := c.ParseDialect("cpp")
	require.NoError(t, err)
	v14, err := c.FindVersion("C++14")
	require.NoError(t, err)

	pinned := c.Pin(bare, v14)
	assert.Equal(t, "cpp14", pinned.Tag)
	assert.Equal(t, "c++14", c.Std(pinned))
	assert.Equal(t, "c++", c.Lang(pinned))
	assert.Equal(t, "c++26", c.Std(bare))

	v99, err := c.FindVersion("C99")
	require.NoError(t, err)
	assert.Equal(t, bare, c.Pin(bare, v99), "pinning to another family is a no-op")
}
