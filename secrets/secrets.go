// Package secrets reads file-backed credentials that must never pass
// through environment files, such as the GitHub App signing key.
package secrets

import (
	"bytes"
	"fmt"
	"os"
)

// ResolvePath returns the secret file path from the named environment
// variable, or the fallback when unset.
func ResolvePath(envVar, fallback string) string {
	if path := os.Getenv(envVar); path != "" {
		return path
	}
	return fallback
}

// ReadFile loads a secret file. Trailing newlines are stripped so that
// keys copied with a final line break verify cleanly.
func ReadFile(path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("secret file path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret file %s: %w", path, err)
	}

	data = bytes.TrimRight(data, "\r\n")
	if len(data) == 0 {
		return nil, fmt.Errorf("secret file %s is empty", path)
	}

	return data, nil
}
