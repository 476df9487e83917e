package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"

	"github.com/convoyops/deployctl/logging"
)

// ErrConfigurationMissing indicates that neither the requested environment
// file nor the production fallback exists. Nothing has been executed when
// this is returned.
var ErrConfigurationMissing = errors.New("no resolvable environment file")

// EnvironmentConfig is the resolved set of configuration values for one
// target environment. It is built once per run and passed by reference;
// the process environment is never mutated.
type EnvironmentConfig struct {
	environment string
	source      string
	values      map[string]string
}

// Environment returns the environment name the config was requested for.
func (c *EnvironmentConfig) Environment() string {
	return c.environment
}

// Source returns the file the values were loaded from.
func (c *EnvironmentConfig) Source() string {
	return c.source
}

// Get returns the value for a key, with ok reporting presence.
func (c *EnvironmentConfig) Get(key string) (string, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Value returns the value for a key, or empty string if absent.
func (c *EnvironmentConfig) Value(key string) string {
	return c.values[key]
}

// Len returns the number of loaded values.
func (c *EnvironmentConfig) Len() int {
	return len(c.values)
}

// Environ renders the config as KEY=VALUE pairs in sorted key order,
// suitable for appending to an exec.Cmd environment.
func (c *EnvironmentConfig) Environ() []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+c.values[k])
	}
	return pairs
}

// LoadEnvironment resolves and parses the environment file for the named
// environment.
//
// Resolution order: .env.<environment>; if that is absent and the requested
// environment is not production, .env.production with a warning; otherwise
// ErrConfigurationMissing.
func LoadEnvironment(dir string, environment string) (*EnvironmentConfig, error) {
	logger := logging.ComponentLogger("envloader")

	if environment == "" {
		environment = EnvironmentProduction
	}
	if !IsValidEnvironment(environment) {
		logger.Warn().
			Str("environment", environment).
			Strs("known", ValidEnvironments()).
			Msg("Unknown environment name, relying on file resolution only")
	}

	path := filepath.Join(dir, ".env."+environment)
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if environment == EnvironmentProduction {
			return nil, fmt.Errorf("%w: %s", ErrConfigurationMissing, path)
		}

		fallback := filepath.Join(dir, ".env."+EnvironmentProduction)
		if _, err := os.Stat(fallback); err != nil {
			return nil, fmt.Errorf("%w: neither %s nor %s", ErrConfigurationMissing, path, fallback)
		}
		logger.Warn().
			Str("requested", path).
			Str("fallback", fallback).
			Msg("Environment file not found, falling back to production file")
		path = fallback
	}

	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment file %s: %w", path, err)
	}

	logger.Info().
		Str("environment", environment).
		Str("source", path).
		Int("variables", len(values)).
		Msg("Loaded environment configuration")

	return &EnvironmentConfig{
		environment: environment,
		source:      path,
		values:      values,
	}, nil
}
