// Package version models language families, their totally ordered version
// sequences and the dialect tags attached to code examples.
//
// A Catalog is built once from configuration and is immutable afterwards, so
// it can be shared freely between goroutines.
package version

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnknownFamily is returned when a family key or name is not in the catalog.
	ErrUnknownFamily = errors.New("unknown language family")
	// ErrUnknownVersion is returned when a version is not part of a family's sequence.
	ErrUnknownVersion = errors.New("unknown version")
	// ErrUnknownDialect is returned when a dialect tag matches no family.
	ErrUnknownDialect = errors.New("unknown dialect")
)

// Version is one element of a family's ordered sequence. The zero value is
// not a valid version.
type Version struct {
	Family  string // family key, e.g. "cpp"
	Name    string // canonical name, e.g. "C++17"
	Ordinal int    // position in the family sequence, starting at 0
}

// IsZero reports whether v is the zero Version.
func (v Version) IsZero() bool {
	return v.Family == "" && v.Name == ""
}

// String returns the canonical version name.
func (v Version) String() string {
	return v.Name
}

// Compare returns -1, 0 or +1. Versions of different families are not
// comparable and Compare panics for them, since that is always a caller bug.
func (v Version) Compare(o Version) int {
	if v.Family != o.Family {
		panic(fmt.Sprintf("version: comparing %s (%s) with %s (%s)", v.Name, v.Family, o.Name, o.Family))
	}
	switch {
	case v.Ordinal < o.Ordinal:
		return -1
	case v.Ordinal > o.Ordinal:
		return 1
	default:
		return 0
	}
}

// Less reports whether v sorts before o.
func (v Version) Less(o Version) bool { return v.Compare(o) < 0 }

// AtMost reports whether v <= o.
func (v Version) AtMost(o Version) bool { return v.Compare(o) <= 0 }

// FamilySpec describes a family for NewCatalog.
type FamilySpec struct {
	Key           string   // machine key used in ids and flags: "c", "cpp"
	Name          string   // display name used in persisted graphs: "C", "C++"
	Versions      []string // ordered, oldest first: "C++98", "C++11", ...
	DialectPrefix string   // prefix of dialect tags: "cpp" -> "cpp17"
	StdPrefix     string   // prefix of compiler -std values: "c++" -> "c++17"
	Aliases       []string // alternative dialect prefixes: "c++", "cxx"
}

// Family is a language lineage whose versions form one ordered sequence.
type Family struct {
	Key           string
	Name          string
	DialectPrefix string
	StdPrefix     string
	Aliases       []string

	versions []Version
	byName   map[string]int // lower-cased name -> ordinal
	byShort  map[string]int // "17" -> ordinal
}

// Versions returns the family's versions, oldest first.
func (f *Family) Versions() []Version {
	out := make([]Version, len(f.versions))
	copy(out, f.versions)
	return out
}

// Latest returns the newest version of the family.
func (f *Family) Latest() Version {
	return f.versions[len(f.versions)-1]
}

// Short returns the version name without the family name prefix ("C++17" -> "17").
func (f *Family) Short(v Version) string {
	if len(v.Name) > len(f.Name) && strings.EqualFold(v.Name[:len(f.Name)], f.Name) {
		return v.Name[len(f.Name):]
	}
	return v.Name
}

// Version looks up a version by its canonical name, its short form or its
// dialect tag, case-insensitively.
func (f *Family) Version(s string) (Version, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if i, ok := f.byName[key]; ok {
		return f.versions[i], nil
	}
	if i, ok := f.byShort[key]; ok {
		return f.versions[i], nil
	}
	for _, prefix := range f.dialectPrefixes() {
		if rest, ok := strings.CutPrefix(key, prefix); ok {
			if i, ok := f.byShort[rest]; ok {
				return f.versions[i], nil
			}
		}
	}
	return Version{}, fmt.Errorf("%w %q for family %s", ErrUnknownVersion, s, f.Name)
}

// Contains reports whether v belongs to this family's sequence.
func (f *Family) Contains(v Version) bool {
	if v.Family != f.Key || v.Ordinal < 0 || v.Ordinal >= len(f.versions) {
		return false
	}
	return f.versions[v.Ordinal].Name == v.Name
}

func (f *Family) dialectPrefixes() []string {
	prefixes := append([]string{strings.ToLower(f.DialectPrefix)}, lowerAll(f.Aliases)...)
	// Longest first so "cpp" wins over "c" style overlaps inside one family.
	sort.SliceStable(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })
	return prefixes
}

// Catalog is the immutable set of known families.
type Catalog struct {
	families []*Family
	byKey    map[string]*Family
	byName   map[string]*Family
}

// NewCatalog validates the specs and builds a catalog.
func NewCatalog(specs ...FamilySpec) (*Catalog, error) {
	if len(specs) == 0 {
		return nil, errors.New("version catalog requires at least one family")
	}
	c := &Catalog{
		byKey:  make(map[string]*Family),
		byName: make(map[string]*Family),
	}
	seenVersion := make(map[string]string)
	for _, spec := range specs {
		if spec.Key == "" || spec.Name == "" {
			return nil, fmt.Errorf("family %q: key and name are required", spec.Key)
		}
		if len(spec.Versions) == 0 {
			return nil, fmt.Errorf("family %q: at least one version is required", spec.Key)
		}
		key := strings.ToLower(spec.Key)
		if _, dup := c.byKey[key]; dup {
			return nil, fmt.Errorf("family %q declared twice", spec.Key)
		}
		f := &Family{
			Key:           key,
			Name:          spec.Name,
			DialectPrefix: spec.DialectPrefix,
			StdPrefix:     spec.StdPrefix,
			Aliases:       append([]string(nil), spec.Aliases...),
			byName:        make(map[string]int),
			byShort:       make(map[string]int),
		}
		if f.DialectPrefix == "" {
			f.DialectPrefix = key
		}
		if f.StdPrefix == "" {
			f.StdPrefix = strings.ToLower(spec.Name)
		}
		for i, name := range spec.Versions {
			lower := strings.ToLower(name)
			if owner, dup := seenVersion[lower]; dup {
				return nil, fmt.Errorf("version %q declared by both %s and %s", name, owner, spec.Name)
			}
			seenVersion[lower] = spec.Name
			v := Version{Family: key, Name: name, Ordinal: i}
			f.versions = append(f.versions, v)
			f.byName[lower] = i
			f.byShort[strings.ToLower(f.Short(v))] = i
		}
		c.families = append(c.families, f)
		c.byKey[key] = f
		c.byName[strings.ToLower(spec.Name)] = f
	}
	return c, nil
}

// Families returns the families in declaration order.
func (c *Catalog) Families() []*Family {
	out := make([]*Family, len(c.families))
	copy(out, c.families)
	return out
}

// Family looks up a family by key ("cpp") or display name ("C++").
func (c *Catalog) Family(s string) (*Family, error) {
	lower := strings.ToLower(strings.TrimSpace(s))
	if f, ok := c.byKey[lower]; ok {
		return f, nil
	}
	if f, ok := c.byName[lower]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, s)
}

// MustFamily is Family for callers holding a key that came from this catalog.
func (c *Catalog) MustFamily(key string) *Family {
	f, err := c.Family(key)
	if err != nil {
		panic(err)
	}
	return f
}

// FindVersion resolves a canonical version name across all families.
func (c *Catalog) FindVersion(name string) (Version, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, f := range c.families {
		if i, ok := f.byName[lower]; ok {
			return f.versions[i], nil
		}
	}
	return Version{}, fmt.Errorf("%w %q", ErrUnknownVersion, name)
}

// ParseVersion resolves a version within a family; s may be a canonical name,
// a short form or a dialect tag.
func (c *Catalog) ParseVersion(family, s string) (Version, error) {
	f, err := c.Family(family)
	if err != nil {
		return Version{}, err
	}
	return f.Version(s)
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(s))
	}
	return out
}
