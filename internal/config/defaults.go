package config

import "time"

// Default returns the built-in configuration: the C and C++ families, the
// standard phrase tables and the tree-sitter backend. No toolchain is
// configured by default.
func Default() *Model {
	return &Model{
		Families: []Family{
			{
				Key:           "c",
				Name:          "C",
				Versions:      []string{"C89", "C99", "C11", "C17", "C23"},
				DialectPrefix: "c",
				StdPrefix:     "c",
			},
			{
				Key:           "cpp",
				Name:          "C++",
				Versions:      []string{"C++98", "C++11", "C++14", "C++17", "C++20", "C++23", "C++26"},
				DialectPrefix: "cpp",
				StdPrefix:     "c++",
				Aliases:       []string{"c++", "cxx"},
			},
		},
		Extract: Extract{
			RequiresPhrases:   []string{"requires", "depends on"},
			SupersedesPhrases: []string{"supersedes", "replaces"},
			IgnoreLanguages:   []string{"text", "console", "sh", "shell", "bash", "output"},
			MaxFileSize:       4 << 20,
			Extension:         ".md",
		},
		Check: Check{
			Timeout:           10 * time.Second,
			WorkersPerDialect: 4,
			Backend:           BackendAuto,
		},
	}
}
