package diag

import (
	"fmt"
	"strings"
	"time"

	"github.com/specialistvlad/refgraph/internal/model"
)

// ParseError reports a document that could not be tokenized.
func ParseError(file, reason string) Diagnostic {
	return Diagnostic{
		Kind:     KindParseError,
		Severity: SeverityError,
		Message:  fmt.Sprintf("cannot parse %s: %s", file, reason),
		Location: model.SourceLocation{File: file},
	}
}

// DuplicateFeature reports two records sharing one id.
func DuplicateFeature(id string, first, second model.SourceLocation) Diagnostic {
	return Diagnostic{
		Kind:      KindDuplicateFeature,
		Severity:  SeverityError,
		Message:   fmt.Sprintf("feature %s is defined at %s and %s", id, first, second),
		FeatureID: id,
		Related:   []string{first.String()},
		Location:  second,
	}
}

// DanglingReference reports a link whose target anchor does not exist.
func DanglingReference(sourceID, path, anchor string, loc model.SourceLocation) Diagnostic {
	target := path
	if anchor != "" {
		target += "#" + anchor
	}
	return Diagnostic{
		Kind:      KindDanglingReference,
		Severity:  SeverityError,
		Message:   fmt.Sprintf("%s links to %s which does not exist", sourceID, target),
		FeatureID: sourceID,
		Target:    target,
		Location:  loc,
	}
}

// ExcludedEndpoint reports a link dropped because one of its ends was
// excluded as a duplicate.
func ExcludedEndpoint(sourceID, target, excludedID string, loc model.SourceLocation) Diagnostic {
	return Diagnostic{
		Kind:      KindExcludedEndpoint,
		Severity:  SeverityWarning,
		Message:   fmt.Sprintf("link %s -> %s dropped: %s is excluded as a duplicate", sourceID, target, excludedID),
		FeatureID: sourceID,
		Target:    target,
		Related:   []string{excludedID},
		Location:  loc,
	}
}

// SelfReference reports a link from a record to itself.
func SelfReference(id string, loc model.SourceLocation) Diagnostic {
	return Diagnostic{
		Kind:      KindSelfReference,
		Severity:  SeverityWarning,
		Message:   fmt.Sprintf("%s links to itself", id),
		FeatureID: id,
		Target:    id,
		Location:  loc,
	}
}

// CyclicRequirement reports a REQUIRES cycle.
func CyclicRequirement(family string, cycle []string) Diagnostic {
	d := Diagnostic{
		Kind:     KindCyclicRequirement,
		Severity: SeverityError,
		Message:  fmt.Sprintf("requirement cycle in %s: %s", family, strings.Join(cycle, " -> ")),
		Related:  append([]string(nil), cycle...),
	}
	if len(cycle) > 0 {
		d.FeatureID = cycle[0]
	}
	return d
}

// Reasons carried by VersionOrderViolation.
const (
	ReasonIntroducedLater = "introduced-later"
	ReasonDeprecated      = "deprecated"
	ReasonCrossFamily     = "cross-family"
)

// VersionOrderViolation reports a REQUIRES edge pulling in a feature that is
// not available at the queried version.
func VersionOrderViolation(from, to, reason, at string) Diagnostic {
	return Diagnostic{
		Kind:      KindVersionOrderViolation,
		Severity:  SeverityWarning,
		Message:   fmt.Sprintf("%s requires %s which is not available at %s (%s)", from, to, at, reason),
		FeatureID: from,
		Target:    to,
		Related:   []string{reason},
	}
}

// UnknownDialect reports an example tagged with a dialect that is not known
// for the record's family.
func UnknownDialect(id, dialect string, loc model.SourceLocation) Diagnostic {
	return Diagnostic{
		Kind:      KindUnknownDialect,
		Severity:  SeverityWarning,
		Message:   fmt.Sprintf("%s has an example in unknown dialect %q", id, dialect),
		FeatureID: id,
		Dialect:   dialect,
		Location:  loc,
	}
}

// OrphanFeature reports a record without any edges.
func OrphanFeature(id string, loc model.SourceLocation) Diagnostic {
	return Diagnostic{
		Kind:      KindOrphanFeature,
		Severity:  SeverityWarning,
		Message:   fmt.Sprintf("%s has no relations to other features", id),
		FeatureID: id,
		Location:  loc,
	}
}

// Timeout reports a syntax check that did not finish in time.
func Timeout(id, dialect string, after time.Duration, loc model.SourceLocation) Diagnostic {
	return Diagnostic{
		Kind:      KindTimeout,
		Severity:  SeverityWarning,
		Message:   fmt.Sprintf("syntax check of %s example timed out after %s", id, after),
		FeatureID: id,
		Dialect:   dialect,
		Location:  loc,
	}
}

// DanglingEdge reports a persisted edge whose endpoint is missing.
func DanglingEdge(e model.Edge, missing string) Diagnostic {
	return Diagnostic{
		Kind:      KindDanglingEdge,
		Severity:  SeverityError,
		Message:   fmt.Sprintf("edge %s refers to missing feature %s", e, missing),
		FeatureID: e.Source,
		Target:    e.Target,
	}
}

// InvalidVersionRange reports a deprecation that does not follow the
// introduction. The extractor records it as a warning and drops the
// deprecation; the reference validator reports persisted ones as errors.
func InvalidVersionRange(sev Severity, id, detail string, loc model.SourceLocation) Diagnostic {
	return Diagnostic{
		Kind:      KindInvalidVersionRange,
		Severity:  sev,
		Message:   fmt.Sprintf("%s has an invalid version range: %s", id, detail),
		FeatureID: id,
		Location:  loc,
	}
}

// SupersedesOrder reports a SUPERSEDES edge whose target is newer than its source.
func SupersedesOrder(e model.Edge, sourceVersion, targetVersion string) Diagnostic {
	return Diagnostic{
		Kind:      KindSupersedesOrder,
		Severity:  SeverityWarning,
		Message:   fmt.Sprintf("%s (%s) supersedes %s which was introduced later (%s)", e.Source, sourceVersion, e.Target, targetVersion),
		FeatureID: e.Source,
		Target:    e.Target,
	}
}

// SyntaxError reports an example rejected by its syntax backend.
func SyntaxError(id, dialect, message string, loc model.SourceLocation) Diagnostic {
	return Diagnostic{
		Kind:      KindSyntaxError,
		Severity:  SeverityError,
		Message:   fmt.Sprintf("%s example (%s): %s", id, dialect, message),
		FeatureID: id,
		Dialect:   dialect,
		Location:  loc,
	}
}

// BackendUnavailable reports a syntax backend that failed for a dialect.
func BackendUnavailable(dialect, backend string, err error) Diagnostic {
	return Diagnostic{
		Kind:     KindBackendUnavailable,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf("%s backend unavailable for %s: %v", backend, dialect, err),
		Dialect:  dialect,
		Related:  []string{backend},
	}
}

// ExampleSkipped reports an example that was not checked.
func ExampleSkipped(id, dialect, reason string, loc model.SourceLocation) Diagnostic {
	return Diagnostic{
		Kind:      KindExampleSkipped,
		Severity:  SeverityInfo,
		Message:   fmt.Sprintf("%s example (%s) skipped: %s", id, dialect, reason),
		FeatureID: id,
		Dialect:   dialect,
		Location:  loc,
	}
}
