package extractor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/specialistvlad/refgraph/internal/version"
)

// trailingTag splits "Title (inner)" into title and inner.
var trailingTag = regexp.MustCompile(`^(.*?)\s*\(([^()]*)\)\s*$`)

// tagBody accepts "V", "since V", "V, deprecated in V2", "V; deprecated V2"
// and "V - V2".
var tagBody = regexp.MustCompile(`(?i)^(?:since\s+)?(\S+?)(?:\s*[,;]\s*deprecated(?:\s+in)?\s+(\S+)|\s*[-\x{2013}]\s*(\S+))?$`)

// versionTag is a parsed heading version tag.
type versionTag struct {
	title      string
	introduced version.Version
	deprecated *version.Version
	// rangeErr is set when a deprecation was written but rejected.
	rangeErr string
}

// parseVersionTag recognizes a feature heading. ok is false for headings
// without a tag or whose introduction version is not in the catalog.
func parseVersionTag(catalog *version.Catalog, heading string) (versionTag, bool) {
	m := trailingTag.FindStringSubmatch(heading)
	if m == nil {
		return versionTag{}, false
	}
	title, inner := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	if title == "" {
		return versionTag{}, false
	}
	body := tagBody.FindStringSubmatch(inner)
	if body == nil {
		return versionTag{}, false
	}
	introduced, err := catalog.FindVersion(body[1])
	if err != nil {
		return versionTag{}, false
	}

	tag := versionTag{title: title, introduced: introduced}
	depName := body[2]
	if depName == "" {
		depName = body[3]
	}
	if depName == "" {
		return tag, true
	}

	deprecated, err := catalog.FindVersion(depName)
	switch {
	case err != nil:
		tag.rangeErr = fmt.Sprintf("unknown deprecation version %q", depName)
	case deprecated.Family != introduced.Family:
		tag.rangeErr = fmt.Sprintf("deprecation %s is not a %s version", deprecated.Name, introduced.Name)
	case !introduced.Less(deprecated):
		tag.rangeErr = fmt.Sprintf("deprecated in %s, which does not follow %s", deprecated.Name, introduced.Name)
	default:
		tag.deprecated = &deprecated
	}
	return tag, true
}
