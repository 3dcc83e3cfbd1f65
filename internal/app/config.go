package app

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Config holds the process-level settings an App is created with. Engine
// settings (families, phrases, backends) live in the config file.
type Config struct {
	ConfigPath string // optional HCL file

	LogFormat string `validate:"oneof=auto text json"`
	LogLevel  string `validate:"oneof=debug info warn error"`
	// Workers bounds parallel extraction. Zero keeps the engine default.
	Workers int `validate:"gte=0,lte=1024"`
}

// NewConfig normalizes and validates cfg.
func NewConfig(cfg Config) (*Config, error) {
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if cfg.LogFormat == "" {
		cfg.LogFormat = "auto"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFatalInput, describe(err))
	}
	return &cfg, nil
}

// describe turns validator field errors into flag-oriented messages.
func describe(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.Field() {
	case "LogFormat":
		return fmt.Errorf("invalid log-format %q: must be 'auto', 'text' or 'json'", fe.Value())
	case "LogLevel":
		return fmt.Errorf("invalid log-level %q: must be 'debug', 'info', 'warn' or 'error'", fe.Value())
	case "Workers":
		return fmt.Errorf("invalid workers %v: must be between 0 and 1024", fe.Value())
	}
	return err
}
