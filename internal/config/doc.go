// Package config defines the format-agnostic configuration model of the
// engine, along with the Loader interface for reading it from a source.
//
// The `config.Model` is the single source of truth for the version catalog,
// the extractor phrase tables and the example checker. Concrete loaders, such
// as the HCL one, are provided in separate packages and always start from
// Default so a partial file only overrides what it names.
package config
