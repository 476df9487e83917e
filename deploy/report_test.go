package deploy

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func abortedRun() *Run {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	run := NewRun("staging", now, SkipFlags{Database: true})
	run.Status = RunAborted
	run.FinishedAt = now.Add(4 * time.Minute)

	run.Phases[0].Status = PhaseSucceeded
	run.Phases[1].Status = PhaseSkipped
	run.Phases[2].Status = PhaseFailed
	run.Phases[2].Steps = []Step{
		{Description: "Apply api manifests", Command: "kubectl apply", Err: os.ErrInvalid},
	}
	// edge-deploy and verification never ran: they stay pending
	return run
}

func TestRenderReportRoundTrip(t *testing.T) {
	report := RenderReport(abortedRun())

	// Exactly one of each terminal marker; pending phases are unrendered
	assert.Equal(t, 1, strings.Count(report, "✅"))
	assert.Equal(t, 1, strings.Count(report, "⏭️"))
	assert.Equal(t, 1, strings.Count(report, "❌"))
	assert.Contains(t, report, "**Status**: aborted")
	assert.NotContains(t, report, "edge-deploy")
	assert.NotContains(t, report, "verification")

	// The failed line names the failing step
	assert.Contains(t, report, "cluster-workloads — failed: Apply api manifests")
}

func TestRenderReportIncludesRollbackCommand(t *testing.T) {
	run := abortedRun()
	report := RenderReport(run)

	assert.Contains(t, report, "deployctl rollback staging "+run.ID)
}

func TestRenderReportSucceededHasNoRollbackSection(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	run := NewRun("staging", now, SkipFlags{})
	run.Status = RunSucceeded
	for _, phase := range run.Phases {
		phase.Status = PhaseSucceeded
	}

	report := RenderReport(run)
	assert.Equal(t, 5, strings.Count(report, "✅"))
	assert.NotContains(t, report, "## Rollback")
}

func TestWriteReportIsWriteOnce(t *testing.T) {
	dir := t.TempDir()
	run := abortedRun()

	path, err := WriteReport(run, dir)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Contains(t, path, "deployment-report-"+run.ID+".md")

	_, err = WriteReport(run, dir)
	assert.Error(t, err)
}
