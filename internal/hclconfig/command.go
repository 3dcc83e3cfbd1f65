package hclconfig

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/specialistvlad/refgraph/internal/config"
	"github.com/specialistvlad/refgraph/internal/ctxlog"
)

// commandVariables are the names a toolchain command may reference.
var commandVariables = map[string]struct{}{
	"std":     {},
	"lang":    {},
	"dialect": {},
}

// commandExpr is a config.CommandTemplate backed by an HCL expression such as
// ["gcc", "-fsyntax-only", "-std=${std}", "-x", lang, "-"].
type commandExpr struct {
	name string
	expr hcl.Expression
}

var _ config.CommandTemplate = (*commandExpr)(nil)

// newCommandExpr checks that the expression only references known variables
// and renders to a non-empty list of strings for a sample dialect.
func newCommandExpr(ctx context.Context, expr hcl.Expression, toolchain string) (*commandExpr, error) {
	logger := ctxlog.FromContext(ctx).With("toolchain", toolchain)
	if !isExprDefined(expr) {
		return nil, fmt.Errorf("toolchain %q: command is required", toolchain)
	}
	for _, traversal := range expr.Variables() {
		root := traversal.RootName()
		if _, ok := commandVariables[root]; !ok {
			return nil, fmt.Errorf("%s: toolchain %q: unknown variable %q in command (allowed: std, lang, dialect)",
				traversal.SourceRange().String(), toolchain, root)
		}
	}

	c := &commandExpr{name: toolchain, expr: expr}
	if _, err := c.Render(config.CommandVars{Std: "c99", Lang: "c", Dialect: "c99"}); err != nil {
		return nil, err
	}
	logger.Debug("Toolchain command accepted.", "hcl_range", expr.Range().String())
	return c, nil
}

// Render implements config.CommandTemplate.
func (c *commandExpr) Render(vars config.CommandVars) ([]string, error) {
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"std":     cty.StringVal(vars.Std),
			"lang":    cty.StringVal(vars.Lang),
			"dialect": cty.StringVal(vars.Dialect),
		},
	}
	val, diags := c.expr.Value(evalCtx)
	if diags.HasErrors() {
		return nil, fmt.Errorf("toolchain %q: evaluating command: %w", c.name, diags)
	}
	list, err := convert.Convert(val, cty.List(cty.String))
	if err != nil {
		return nil, fmt.Errorf("toolchain %q: command must be a list of strings: %w", c.name, err)
	}
	if list.IsNull() || !list.IsWhollyKnown() || list.LengthInt() == 0 {
		return nil, fmt.Errorf("toolchain %q: command must be a non-empty list of strings", c.name)
	}

	argv := make([]string, 0, list.LengthInt())
	for it := list.ElementIterator(); it.Next(); {
		_, v := it.Element()
		if v.IsNull() {
			return nil, fmt.Errorf("toolchain %q: command contains null", c.name)
		}
		argv = append(argv, v.AsString())
	}
	return argv, nil
}

// isExprDefined checks if an HCL expression was actually present in the
// source. Placeholders for omitted attributes have a zero-width range.
func isExprDefined(expr hcl.Expression) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	return r.End.Byte > r.Start.Byte
}
