// Package hclconfig loads the engine configuration from an HCL file.
package hclconfig

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/specialistvlad/refgraph/internal/config"
	"github.com/specialistvlad/refgraph/internal/ctxlog"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

var _ config.Loader = (*Loader)(nil)

// Load parses path, merges it over config.Default and validates the result.
// An empty path yields the validated defaults.
func (l *Loader) Load(ctx context.Context, path string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	model := config.Default()

	if path == "" {
		logger.Debug("No configuration file given, using defaults.")
		if err := model.Validate(); err != nil {
			return nil, err
		}
		return model, nil
	}

	logger.Debug("HCL loader started.", "path", path)
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config %s: %w", path, err)
	}
	if err := l.merge(ctx, model, src, path); err != nil {
		return nil, err
	}
	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	logger.Debug("HCL loading complete.",
		"families", len(model.Families),
		"toolchains", len(model.Toolchains),
		"backend", model.Check.Backend,
	)
	return model, nil
}

// merge decodes src and applies its blocks to model.
func (l *Loader) merge(ctx context.Context, model *config.Model, src []byte, filename string) error {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	// Unknown blocks and attributes are reported against the schema here.
	var root fileRoot
	diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
	if diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	for _, f := range root.Families {
		translateFamily(ctx, model, f)
	}
	if root.Extract != nil {
		translateExtract(&model.Extract, root.Extract)
	}
	if root.Check != nil {
		if err := translateCheck(&model.Check, root.Check); err != nil {
			return fmt.Errorf("%s: %w", filename, err)
		}
	}
	for _, tc := range root.Toolchains {
		translated, err := translateToolchain(ctx, tc)
		if err != nil {
			return fmt.Errorf("%s: %w", filename, err)
		}
		model.Toolchains = append(model.Toolchains, translated)
	}
	return nil
}
