package rollback

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RenderReport produces the markdown incident artifact deterministically
// from the rollback result. It is emitted regardless of success or failure.
func RenderReport(result *Result) string {
	var b strings.Builder
	req := result.Request

	fmt.Fprintf(&b, "# Rollback Report\n\n")
	fmt.Fprintf(&b, "- **Environment**: %s\n", req.Environment)
	if req.RunID != "" {
		fmt.Fprintf(&b, "- **Target run**: %s\n", req.RunID)
	}
	fmt.Fprintf(&b, "- **Scope**: %s\n", req.Scope)
	if req.Reason != "" {
		fmt.Fprintf(&b, "- **Reason**: %s\n", req.Reason)
	}
	if req.Operator != "" {
		fmt.Fprintf(&b, "- **Operator**: %s\n", req.Operator)
	}
	fmt.Fprintf(&b, "- **Started**: %s\n", result.StartedAt.Format(time.RFC3339))
	if !result.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "- **Finished**: %s\n", result.FinishedAt.Format(time.RFC3339))
	}
	if result.LogPath != "" {
		fmt.Fprintf(&b, "- **Log**: %s\n", result.LogPath)
	}

	fmt.Fprintf(&b, "\n## Components Rolled Back\n\n")
	for _, comp := range result.Components {
		if comp.OK() {
			line := fmt.Sprintf("- ✅ %s", comp.Name)
			if comp.Detail != "" {
				line += " — " + comp.Detail
			}
			b.WriteString(line + "\n")
		} else {
			fmt.Fprintf(&b, "- ❌ %s — %s\n", comp.Name, comp.Err.Error())
		}
	}

	fmt.Fprintf(&b, "\n## Cache Invalidation\n\n")
	switch {
	case result.CacheErr != nil:
		fmt.Fprintf(&b, "- ❌ failed: %s\n", result.CacheErr.Error())
	default:
		fmt.Fprintf(&b, "- ✅ %d keys deleted (%s)\n", result.CacheKeysDeleted, strings.Join(CachePatterns, ", "))
	}

	return b.String()
}

// WriteReport writes the write-once incident artifact.
func WriteReport(result *Result, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("rollback-report-%s-%s.md",
		result.Request.Environment, result.StartedAt.Format("20060102-150405")))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create report %s: %w", path, err)
	}
	defer file.Close()

	if _, err := file.WriteString(RenderReport(result)); err != nil {
		return "", fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return path, nil
}
