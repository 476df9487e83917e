package config

import (
	"fmt"
	"strings"
)

// RequiredVariables is the fixed set of configuration values every
// deployment depends on. Validation runs before any phase with side
// effects on external systems.
var RequiredVariables = []string{
	// AI provider keys
	"OPENAI_API_KEY",
	"ANTHROPIC_API_KEY",

	// Data stores and brokers
	"DATABASE_URL",
	"REDIS_URL",
	"RABBITMQ_URL",

	// Auth
	"JWT_SECRET_KEY",

	// Deployment platform and cloud credentials
	"VERCEL_TOKEN",
	"AWS_ACCESS_KEY_ID",
	"AWS_SECRET_ACCESS_KEY",
}

// minSecretKeyLength is the advisory floor for JWT_SECRET_KEY.
const minSecretKeyLength = 32

// ValidationError reports every missing required variable at once.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required variables: %s", strings.Join(e.Missing, ", "))
}

// ValidationResult is the outcome of validating an EnvironmentConfig.
type ValidationResult struct {
	// Missing lists every required variable that is absent or empty
	Missing []string
	// Warnings lists advisory format findings; these never abort a run
	Warnings []string
}

// Valid reports whether all required variables are present.
func (r *ValidationResult) Valid() bool {
	return len(r.Missing) == 0
}

// Err returns a ValidationError when invalid, nil otherwise.
func (r *ValidationResult) Err() error {
	if r.Valid() {
		return nil
	}
	return &ValidationError{Missing: r.Missing}
}

// Validate checks the config against RequiredVariables.
//
// This is a batch collector, not fail-fast: every missing variable is
// reported in one result so the operator fixes them in one pass. Format
// checks are advisory only and surface as warnings.
func Validate(cfg *EnvironmentConfig) *ValidationResult {
	result := &ValidationResult{}

	for _, name := range RequiredVariables {
		if v, ok := cfg.Get(name); !ok || v == "" {
			result.Missing = append(result.Missing, name)
		}
	}

	result.Warnings = append(result.Warnings, formatWarnings(cfg)...)
	return result
}

// formatWarnings performs loose well-formedness checks on values that are
// present. Violations never abort the run.
func formatWarnings(cfg *EnvironmentConfig) []string {
	var warnings []string

	if v, ok := cfg.Get("DATABASE_URL"); ok && v != "" {
		if !strings.HasPrefix(v, "postgresql://") && !strings.HasPrefix(v, "postgres://") {
			warnings = append(warnings, "DATABASE_URL does not look like a postgres connection string")
		}
	}

	if v, ok := cfg.Get("JWT_SECRET_KEY"); ok && v != "" {
		if len(v) < minSecretKeyLength {
			warnings = append(warnings, fmt.Sprintf("JWT_SECRET_KEY is shorter than %d characters", minSecretKeyLength))
		}
	}

	if v, ok := cfg.Get("OPENAI_API_KEY"); ok && v != "" {
		if !strings.HasPrefix(v, "sk-") {
			warnings = append(warnings, "OPENAI_API_KEY does not start with expected prefix sk-")
		}
	}

	if v, ok := cfg.Get("ANTHROPIC_API_KEY"); ok && v != "" {
		if !strings.HasPrefix(v, "sk-ant-") {
			warnings = append(warnings, "ANTHROPIC_API_KEY does not start with expected prefix sk-ant-")
		}
	}

	return warnings
}
