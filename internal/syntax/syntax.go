// Package syntax provides the backends that decide whether a code example
// is syntactically valid for its dialect.
//
// A backend answers with a *Failure when the example is rejected and with an
// error when the backend itself could not run. Errors wrapping
// ErrBackendUnavailable mean the backend will not work for the dialect at
// all, so callers stop sending it examples of that dialect.
package syntax

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/refgraph/internal/config"
	"github.com/specialistvlad/refgraph/internal/version"
)

// ErrBackendUnavailable marks a backend that cannot serve a dialect, such as
// a missing compiler binary or a family without a grammar.
var ErrBackendUnavailable = errors.New("syntax backend unavailable")

// Failure is a rejected example. Line is 1-based within the example source,
// or 0 when the backend did not report one.
type Failure struct {
	Line    int
	Message string
}

func (f *Failure) String() string {
	if f.Line > 0 {
		return fmt.Sprintf("line %d: %s", f.Line, f.Message)
	}
	return f.Message
}

// Checker is a syntax backend. Implementations must be safe for concurrent
// use. dialect is always pinned to a concrete version.
type Checker interface {
	Name() string
	CheckSyntax(ctx context.Context, dialect version.Dialect, source string) (*Failure, error)
}

// Selector picks the backend for a dialect.
type Selector struct {
	mode       string
	catalog    *version.Catalog
	treeSitter *TreeSitter
	toolchains []*Toolchain
}

// NewSelector builds the backends described by cfg. mode overrides
// cfg.Check.Backend when non-empty.
func NewSelector(cfg *config.Model, catalog *version.Catalog, mode string) (*Selector, error) {
	if mode == "" {
		mode = cfg.Check.Backend
	}
	switch mode {
	case config.BackendAuto, config.BackendTreeSitter, config.BackendToolchain:
	default:
		return nil, fmt.Errorf("unknown syntax backend %q", mode)
	}
	s := &Selector{
		mode:       mode,
		catalog:    catalog,
		treeSitter: NewTreeSitter(),
	}
	for _, tc := range cfg.Toolchains {
		s.toolchains = append(s.toolchains, NewToolchain(tc, catalog))
	}
	return s, nil
}

// Mode returns the selection mode.
func (s *Selector) Mode() string { return s.mode }

// For returns the backend that checks dialect. With mode auto a toolchain
// configured for the dialect wins over tree-sitter.
func (s *Selector) For(dialect version.Dialect) Checker {
	var tc Checker
	for _, t := range s.toolchains {
		if t.Covers(dialect) {
			tc = t
			break
		}
	}
	switch s.mode {
	case config.BackendTreeSitter:
		return s.treeSitter
	case config.BackendToolchain:
		if tc == nil {
			return unavailable{name: config.BackendToolchain, reason: "no toolchain configured for " + dialect.Tag}
		}
		return tc
	default:
		if tc != nil {
			return tc
		}
		return s.treeSitter
	}
}

// unavailable is the backend of a dialect nothing can check.
type unavailable struct {
	name   string
	reason string
}

func (u unavailable) Name() string { return u.name }

func (u unavailable) CheckSyntax(context.Context, version.Dialect, string) (*Failure, error) {
	return nil, fmt.Errorf("%w: %s", ErrBackendUnavailable, u.reason)
}
