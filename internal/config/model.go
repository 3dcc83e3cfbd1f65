package config

import (
	"context"
	"strings"
	"time"
)

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads the file at path and merges it over Default. An empty path
	// returns the defaults.
	Load(ctx context.Context, path string) (*Model, error)
}

// Model is the unified representation of the engine configuration.
type Model struct {
	Families   []Family    `validate:"required,min=1,dive"`
	Extract    Extract     `validate:"required"`
	Check      Check       `validate:"required"`
	Toolchains []Toolchain `validate:"dive"`
}

// Family declares a language family and its ordered version sequence.
type Family struct {
	Key           string   `validate:"required,lowercase,familykey"`
	Name          string   `validate:"required"`
	Versions      []string `validate:"required,min=1,unique,dive,required"`
	DialectPrefix string   `validate:"omitempty,lowercase"`
	StdPrefix     string
	Aliases       []string `validate:"dive,required"`
}

// Extract configures the Markdown extractor.
type Extract struct {
	RequiresPhrases   []string `validate:"dive,required"`
	SupersedesPhrases []string `validate:"dive,required"`
	IgnoreLanguages   []string `validate:"dive,required"`
	MaxFileSize       int      `validate:"gt=0"`
	Extension         string   `validate:"required,startswith=."`
}

// Backend names accepted by Check.Backend.
const (
	BackendAuto       = "auto"
	BackendTreeSitter = "tree-sitter"
	BackendToolchain  = "toolchain"
)

// Check configures the example validator.
type Check struct {
	Timeout           time.Duration `validate:"gt=0"`
	WorkersPerDialect int           `validate:"gte=1,lte=256"`
	Backend           string        `validate:"oneof=auto tree-sitter toolchain"`
}

// Toolchain is an external compiler used to syntax-check examples of the
// listed dialects. A dialect entry is either a canonical dialect tag
// ("cpp17") or a family key ("cpp") covering every version of the family.
type Toolchain struct {
	Name     string          `validate:"required"`
	Dialects []string        `validate:"required,min=1,dive,required"`
	Command  CommandTemplate `validate:"required"`
}

// Covers reports whether the toolchain handles the dialect tag of family.
func (t Toolchain) Covers(family, tag string) bool {
	for _, d := range t.Dialects {
		if strings.EqualFold(d, tag) || strings.EqualFold(d, family) {
			return true
		}
	}
	return false
}

// CommandVars are the values substituted into a toolchain command.
type CommandVars struct {
	Std     string // compiler standard, e.g. "c++17"
	Lang    string // source language, e.g. "c++"
	Dialect string // canonical dialect tag, e.g. "cpp17"
}

// CommandTemplate renders the argv of a toolchain invocation. The source to
// check is written to the command's standard input.
type CommandTemplate interface {
	Render(vars CommandVars) ([]string, error)
}
