package hclconfig

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes every top-level block a configuration file may contain.
type fileRoot struct {
	Families   []*familyBlock    `hcl:"family,block"`
	Extract    *extractBlock     `hcl:"extract,block"`
	Check      *checkBlock       `hcl:"check,block"`
	Toolchains []*toolchainBlock `hcl:"toolchain,block"`
}

// familyBlock replaces the built-in family with the same key, or adds a new one.
type familyBlock struct {
	Key           string   `hcl:"key,label"`
	Name          string   `hcl:"name"`
	Versions      []string `hcl:"versions"`
	DialectPrefix *string  `hcl:"dialect_prefix,optional"`
	StdPrefix     *string  `hcl:"std_prefix,optional"`
	Aliases       []string `hcl:"aliases,optional"`
}

type extractBlock struct {
	RequiresPhrases   []string `hcl:"requires_phrases,optional"`
	SupersedesPhrases []string `hcl:"supersedes_phrases,optional"`
	IgnoreLanguages   []string `hcl:"ignore_languages,optional"`
	MaxFileSize       *int     `hcl:"max_file_size,optional"`
	Extension         *string  `hcl:"extension,optional"`
}

type checkBlock struct {
	Timeout           *string `hcl:"timeout,optional"`
	WorkersPerDialect *int    `hcl:"workers_per_dialect,optional"`
	Backend           *string `hcl:"backend,optional"`
}

// toolchainBlock keeps its command as a raw expression; it is evaluated per
// dialect with std, lang and dialect in scope.
type toolchainBlock struct {
	Name     string         `hcl:"name,label"`
	Dialects []string       `hcl:"dialects"`
	Command  hcl.Expression `hcl:"command"`
}
