package config

import (
	"fmt"
	"strings"
)

// Validate checks value ranges and enumerations
func (s *Settings) Validate() error {
	var errs []string

	switch strings.ToLower(s.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("format must be text or json, got: %q", s.Format))
	}

	switch strings.ToLower(s.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("log_format must be text or json, got: %q", s.LogFormat))
	}

	if s.Workers <= 0 {
		errs = append(errs, fmt.Sprintf("workers must be positive, got: %d", s.Workers))
	}
	if s.MaxAge < 0 {
		errs = append(errs, fmt.Sprintf("max_age must not be negative, got: %v", s.MaxAge))
	}
	if strings.TrimSpace(s.Database) == "" {
		errs = append(errs, "database path must not be empty")
	}
	if strings.TrimSpace(s.GemfileLock) == "" {
		errs = append(errs, "gemfile_lock must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
