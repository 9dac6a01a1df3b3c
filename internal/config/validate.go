package config

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/frherrer/errgen/internal/domain"
)

// Validate checks the Config for required fields and valid values.
func Validate(cfg *Config) error {
	var errs []string

	// Input validation
	if len(cfg.Input.Directories) == 0 {
		errs = append(errs, "input.directories must not be empty")
	}
	if len(cfg.Input.Include) == 0 {
		errs = append(errs, "input.include must not be empty")
	}

	// Directive validation
	if cfg.Directives.BuildTag == "" {
		errs = append(errs, "directives.build_tag must not be empty")
	}
	if !isIdentifier(cfg.Directives.Prefix) {
		errs = append(errs, fmt.Sprintf("directives.prefix must be a valid identifier (got %q)", cfg.Directives.Prefix))
	}

	// Output validation
	if cfg.Output.FileSuffix == "" {
		errs = append(errs, "output.file_suffix must not be empty")
	}
	if !strings.HasSuffix(cfg.Output.FileSuffix, ".go") {
		errs = append(errs, "output.file_suffix must end with .go")
	}
	if strings.HasSuffix(cfg.Output.FileSuffix, "_test.go") {
		errs = append(errs, "output.file_suffix must not end with _test.go")
	}

	// Render validation
	if cfg.Render.BecauseSeparator == "" {
		errs = append(errs, "render.because_separator must not be empty")
	}
	if cfg.Render.SourceSeparator == "" {
		errs = append(errs, "render.source_separator must not be empty")
	}

	// Validate logging level
	if cfg.Logging.Level != "" {
		validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
		if !validLevels[cfg.Logging.Level] {
			errs = append(errs, fmt.Sprintf("logging.level must be one of: debug, info, warn, error (got %q)", cfg.Logging.Level))
		}
	}

	if len(errs) > 0 {
		return domain.NewError(domain.KindConfig, "", 0, fmt.Sprintf("validation failed: %s", strings.Join(errs, "; ")), nil)
	}

	return nil
}

// isIdentifier reports whether s is a valid Go identifier.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if unicode.IsLetter(r) || r == '_' {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}
