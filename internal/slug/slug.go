// Package slug turns heading text into GitHub-style anchors.
package slug

import (
	"strconv"
	"strings"
	"unicode"
)

// Make returns the anchor of a heading: lower-cased, with every character
// other than letters, digits, spaces, '-' and '_' removed and each space
// replaced by '-'.
func Make(heading string) string {
	var b strings.Builder
	b.Grow(len(heading))
	for _, r := range strings.TrimSpace(heading) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case r == '-' || r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '\t':
			b.WriteByte('-')
		}
	}
	return b.String()
}

// Normalize lower-cases an anchor taken from a link so it compares equal to
// the output of Make.
func Normalize(anchor string) string {
	return strings.ToLower(strings.TrimSpace(anchor))
}

// Slugger hands out unique anchors within one document. Repeats of a slug get
// "-1", "-2", ... suffixes in order of appearance.
type Slugger struct {
	seen map[string]int
}

// NewSlugger returns an empty Slugger.
func NewSlugger() *Slugger {
	return &Slugger{seen: make(map[string]int)}
}

// Slug returns the unique anchor for heading.
func (s *Slugger) Slug(heading string) string {
	return s.Unique(Make(heading))
}

// Unique reserves base, or the first free "base-N" when base is taken.
func (s *Slugger) Unique(base string) string {
	n, taken := s.seen[base]
	if !taken {
		s.seen[base] = 0
		return base
	}
	for {
		n++
		candidate := base + "-" + strconv.Itoa(n)
		if _, clash := s.seen[candidate]; clash {
			continue
		}
		s.seen[base] = n
		s.seen[candidate] = 0
		return candidate
	}
}
