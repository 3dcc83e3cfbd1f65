// Package diag defines the diagnostics taxonomy shared by every stage of the
// engine and the Report that aggregates them.
//
// Diagnostics are values, not errors. Stages record everything they find into
// a Report and keep going; only structurally undefined results (a cyclic
// requirement during resolution) are returned as Go errors.
package diag

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/refgraph/internal/model"
)

// Severity ranks diagnostics. The zero value is SeverityError so that an
// unset severity never hides a problem.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

var severityNames = [...]string{"error", "warning", "info"}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return fmt.Sprintf("severity(%d)", int(s))
	}
	return severityNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(severityNames) {
		return nil, fmt.Errorf("invalid severity %d", int(s))
	}
	return []byte(severityNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(b []byte) error {
	parsed, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSeverity parses "error", "warning" or "info".
func ParseSeverity(v string) (Severity, error) {
	for i, name := range severityNames {
		if strings.EqualFold(name, v) {
			return Severity(i), nil
		}
	}
	return 0, fmt.Errorf("unknown severity %q", v)
}

// Kind names a diagnostic category.
type Kind string

const (
	KindParseError            Kind = "ParseError"
	KindDuplicateFeature      Kind = "DuplicateFeatureError"
	KindDanglingReference     Kind = "DanglingReferenceError"
	KindCyclicRequirement     Kind = "CyclicRequirement"
	KindVersionOrderViolation Kind = "VersionOrderViolation"
	KindUnknownDialect        Kind = "UnknownDialectWarning"
	KindOrphanFeature         Kind = "OrphanFeatureWarning"
	KindTimeout               Kind = "TimeoutDiagnostic"
	KindSelfReference         Kind = "SelfReferenceWarning"
	KindExcludedEndpoint      Kind = "ExcludedEndpoint"
	KindDanglingEdge          Kind = "DanglingEdge"
	KindInvalidVersionRange   Kind = "InvalidVersionRange"
	KindSupersedesOrder       Kind = "SupersedesOrderWarning"
	KindSyntaxError           Kind = "SyntaxError"
	KindBackendUnavailable    Kind = "BackendUnavailable"
	KindExampleSkipped        Kind = "ExampleSkipped"
)

// Diagnostic is a single finding. Subject fields are optional and depend on
// the kind: FeatureID is the record the finding belongs to, Target is the
// other end of a link or edge, Related lists extra ids or locations (cycle
// members, the other definition of a duplicate).
type Diagnostic struct {
	Kind      Kind                 `json:"kind" yaml:"kind" validate:"required"`
	Severity  Severity             `json:"severity" yaml:"severity"`
	Message   string               `json:"message" yaml:"message" validate:"required"`
	FeatureID string               `json:"featureId,omitempty" yaml:"featureId,omitempty"`
	Target    string               `json:"target,omitempty" yaml:"target,omitempty"`
	Dialect   string               `json:"dialect,omitempty" yaml:"dialect,omitempty"`
	Related   []string             `json:"related,omitempty" yaml:"related,omitempty"`
	Location  model.SourceLocation `json:"location,omitzero" yaml:"location,omitempty"`
}

func (d Diagnostic) String() string {
	var b strings.Builder
	if loc := d.Location.String(); loc != "" {
		b.WriteString(loc)
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "%s: %s", d.Kind, d.Message)
	return b.String()
}

// Clone returns a copy that shares no slices with d.
func (d Diagnostic) Clone() Diagnostic {
	if d.Related != nil {
		d.Related = append([]string(nil), d.Related...)
	}
	return d
}

// CyclicRequirementError is returned by resolution when a REQUIRES cycle is
// reachable from the queried feature set. Cycle starts at its smallest id and
// follows the edges in order.
type CyclicRequirementError struct {
	Family string
	Cycle  []string
}

func (e *CyclicRequirementError) Error() string {
	return fmt.Sprintf("cyclic requirement in %s: %s", e.Family, strings.Join(e.Cycle, " -> "))
}

// Diagnostic converts the error into its report form.
func (e *CyclicRequirementError) Diagnostic() Diagnostic {
	return CyclicRequirement(e.Family, e.Cycle)
}
