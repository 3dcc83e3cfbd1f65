package app

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/specialistvlad/refgraph/internal/diag"
	"github.com/specialistvlad/refgraph/internal/examplecheck"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

func checkFormat(format string) error {
	switch format {
	case FormatText, FormatJSON, FormatYAML:
		return nil
	}
	return fmt.Errorf("%w: invalid format %q: must be 'text', 'json' or 'yaml'", ErrFatalInput, format)
}

// reportDoc is the structured form of a report.
type reportDoc struct {
	Generation  string                `json:"generation,omitempty" yaml:"generation,omitempty"`
	Counts      map[string]int        `json:"counts" yaml:"counts"`
	Examples    *examplecheck.Summary `json:"examples,omitempty" yaml:"examples,omitempty"`
	Diagnostics []diag.Diagnostic     `json:"diagnostics" yaml:"diagnostics"`
}

func newReportDoc(generation string, r *diag.Report, examples *examplecheck.Summary) reportDoc {
	counts := make(map[string]int)
	for _, sev := range []diag.Severity{diag.SeverityError, diag.SeverityWarning, diag.SeverityInfo} {
		counts[sev.String()] = 0
	}
	for sev, n := range r.Counts() {
		counts[sev.String()] = n
	}
	diags := r.Sorted()
	if diags == nil {
		diags = []diag.Diagnostic{}
	}
	return reportDoc{Generation: generation, Counts: counts, Examples: examples, Diagnostics: diags}
}

// writeReport prints r grouped by severity, errors first.
func writeReport(w io.Writer, format, generation string, r *diag.Report, examples *examplecheck.Summary) error {
	doc := newReportDoc(generation, r, examples)
	switch format {
	case FormatJSON:
		return encodeJSON(w, doc)
	case FormatYAML:
		return encodeYAML(w, doc)
	}

	var b strings.Builder
	for _, g := range r.Grouped() {
		fmt.Fprintf(&b, "%s (%d):\n", plural(g.Severity), len(g.Items))
		for _, d := range g.Items {
			fmt.Fprintf(&b, "  %s\n", d)
		}
	}
	if examples != nil {
		fmt.Fprintf(&b, "examples: %d checked, %d passed, %d failed, %d timed out, %d skipped, %d cached\n",
			examples.Checked, examples.Passed, examples.Failed, examples.TimedOut, examples.Skipped, examples.Cached)
	}
	fmt.Fprintf(&b, "summary: %d error(s), %d warning(s), %d info\n",
		doc.Counts["error"], doc.Counts["warning"], doc.Counts["info"])
	_, err := io.WriteString(w, b.String())
	return err
}

func plural(s diag.Severity) string {
	switch s {
	case diag.SeverityError:
		return "errors"
	case diag.SeverityWarning:
		return "warnings"
	default:
		return "info"
	}
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json output: %w", err)
	}
	return nil
}

func encodeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml output: %w", err)
	}
	return enc.Close()
}
