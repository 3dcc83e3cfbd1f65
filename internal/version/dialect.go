package version

import (
	"fmt"
	"strings"
)

// Dialect is a normalized code example tag. A dialect without a Version
// (the bare family tag, e.g. "cpp") means "whatever version the enclosing
// feature was introduced in" and is pinned with Catalog.Pin.
type Dialect struct {
	Tag     string   // canonical tag, e.g. "cpp17" or "cpp"
	Family  string   // family key
	Version *Version // nil for bare family tags
}

// Pinned reports whether the dialect names a concrete version.
func (d Dialect) Pinned() bool { return d.Version != nil }

// Std returns the compiler -std value for a pinned dialect, e.g. "c++17".
func (c *Catalog) Std(d Dialect) string {
	f := c.MustFamily(d.Family)
	if d.Version == nil {
		return f.StdPrefix + strings.ToLower(f.Short(f.Latest()))
	}
	return f.StdPrefix + strings.ToLower(f.Short(*d.Version))
}

// Lang returns the language name a toolchain expects for the dialect family,
// which is the family's std prefix ("c", "c++").
func (c *Catalog) Lang(d Dialect) string {
	return c.MustFamily(d.Family).StdPrefix
}

// ParseDialect normalizes a tag such as "cpp20", "c++20", "C99" or "cpp".
func (c *Catalog) ParseDialect(tag string) (Dialect, error) {
	lower := strings.ToLower(strings.TrimSpace(tag))
	if lower == "" {
		return Dialect{}, fmt.Errorf("%w: empty tag", ErrUnknownDialect)
	}
	// Families are tried longest-prefix first so "cpp17" never matches "c".
	type candidate struct {
		family *Family
		prefix string
	}
	var candidates []candidate
	for _, f := range c.families {
		for _, p := range f.dialectPrefixes() {
			candidates = append(candidates, candidate{family: f, prefix: p})
		}
	}
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && len(candidates[j].prefix) > len(candidates[j-1].prefix); j-- {
			candidates[j], candidates[j-1] = candidates[j-1], candidates[j]
		}
	}
	for _, cand := range candidates {
		rest, ok := strings.CutPrefix(lower, cand.prefix)
		if !ok {
			continue
		}
		f := cand.family
		if rest == "" {
			return Dialect{Tag: strings.ToLower(f.DialectPrefix), Family: f.Key}, nil
		}
		if i, ok := f.byShort[rest]; ok {
			v := f.versions[i]
			return Dialect{Tag: c.tagFor(f, v), Family: f.Key, Version: &v}, nil
		}
	}
	return Dialect{}, fmt.Errorf("%w %q", ErrUnknownDialect, tag)
}

// Pin returns d with its version fixed to v when d is a bare family tag.
func (c *Catalog) Pin(d Dialect, v Version) Dialect {
	if d.Version != nil || v.Family != d.Family {
		return d
	}
	f := c.MustFamily(d.Family)
	return Dialect{Tag: c.tagFor(f, v), Family: f.Key, Version: &v}
}

func (c *Catalog) tagFor(f *Family, v Version) string {
	return strings.ToLower(f.DialectPrefix) + strings.ToLower(f.Short(v))
}
