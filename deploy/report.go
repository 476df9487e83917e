package deploy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// phaseIcon maps terminal phase states onto report markers. Pending phases
// are not rendered at all.
func phaseIcon(status PhaseStatus) string {
	switch status {
	case PhaseSucceeded:
		return "✅"
	case PhaseSkipped:
		return "⏭️"
	case PhaseFailed:
		return "❌"
	default:
		return ""
	}
}

// RenderReport produces the markdown deployment report deterministically
// from the run state.
func RenderReport(run *Run) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Deployment Report\n\n")
	fmt.Fprintf(&b, "- **Run**: %s\n", run.ID)
	fmt.Fprintf(&b, "- **Environment**: %s\n", run.Environment)
	fmt.Fprintf(&b, "- **Started**: %s\n", run.StartedAt.Format(time.RFC3339))
	if !run.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "- **Finished**: %s\n", run.FinishedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "- **Status**: %s\n", run.Status)
	if run.LogPath != "" {
		fmt.Fprintf(&b, "- **Log**: %s\n", run.LogPath)
	}

	fmt.Fprintf(&b, "\n## Phases\n\n")
	for _, phase := range run.Phases {
		icon := phaseIcon(phase.Status)
		if icon == "" {
			continue
		}
		line := fmt.Sprintf("- %s %s — %s", icon, phase.Name, phase.Status)
		if phase.Status == PhaseFailed {
			if step := failedStep(phase); step != nil {
				line += fmt.Sprintf(": %s", step.Description)
			}
		}
		b.WriteString(line + "\n")
	}

	if run.Status == RunAborted {
		fmt.Fprintf(&b, "\n## Rollback\n\n")
		fmt.Fprintf(&b, "To revert this run's effects:\n\n")
		fmt.Fprintf(&b, "    deployctl rollback %s %s\n", run.Environment, run.ID)
	}

	return b.String()
}

func failedStep(phase *Phase) *Step {
	for i := range phase.Steps {
		if phase.Steps[i].Err != nil {
			return &phase.Steps[i]
		}
	}
	return nil
}

// WriteReport writes the report artifact for a run. Reports are write-once;
// an existing file for the same run is an error.
func WriteReport(run *Run, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("deployment-report-%s.md", run.ID))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create report %s: %w", path, err)
	}
	defer file.Close()

	if _, err := file.WriteString(RenderReport(run)); err != nil {
		return "", fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return path, nil
}
