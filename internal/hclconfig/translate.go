// This file translates the decoded HCL blocks into the format-agnostic
// configuration model.

package hclconfig

import (
	"context"
	"fmt"
	"time"

	"github.com/specialistvlad/refgraph/internal/config"
	"github.com/specialistvlad/refgraph/internal/ctxlog"
)

func translateFamily(ctx context.Context, model *config.Model, b *familyBlock) {
	logger := ctxlog.FromContext(ctx).With("family", b.Key)

	f := config.Family{
		Key:      b.Key,
		Name:     b.Name,
		Versions: b.Versions,
		Aliases:  b.Aliases,
	}
	if b.DialectPrefix != nil {
		f.DialectPrefix = *b.DialectPrefix
	}
	if b.StdPrefix != nil {
		f.StdPrefix = *b.StdPrefix
	}

	for i := range model.Families {
		if model.Families[i].Key == b.Key {
			logger.Debug("Replacing built-in family.")
			model.Families[i] = f
			return
		}
	}
	logger.Debug("Adding family.")
	model.Families = append(model.Families, f)
}

func translateExtract(dst *config.Extract, b *extractBlock) {
	if b.RequiresPhrases != nil {
		dst.RequiresPhrases = b.RequiresPhrases
	}
	if b.SupersedesPhrases != nil {
		dst.SupersedesPhrases = b.SupersedesPhrases
	}
	if b.IgnoreLanguages != nil {
		dst.IgnoreLanguages = b.IgnoreLanguages
	}
	if b.MaxFileSize != nil {
		dst.MaxFileSize = *b.MaxFileSize
	}
	if b.Extension != nil {
		dst.Extension = *b.Extension
	}
}

func translateCheck(dst *config.Check, b *checkBlock) error {
	if b.Timeout != nil {
		d, err := time.ParseDuration(*b.Timeout)
		if err != nil {
			return fmt.Errorf("check.timeout: %w", err)
		}
		dst.Timeout = d
	}
	if b.WorkersPerDialect != nil {
		dst.WorkersPerDialect = *b.WorkersPerDialect
	}
	if b.Backend != nil {
		dst.Backend = *b.Backend
	}
	return nil
}

func translateToolchain(ctx context.Context, b *toolchainBlock) (config.Toolchain, error) {
	cmd, err := newCommandExpr(ctx, b.Command, b.Name)
	if err != nil {
		return config.Toolchain{}, err
	}
	return config.Toolchain{
		Name:     b.Name,
		Dialects: b.Dialects,
		Command:  cmd,
	}, nil
}
