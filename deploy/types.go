package deploy

import (
	"fmt"
	"time"
)

// RunStatus is the overall state of a deployment run.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunAborted   RunStatus = "aborted"
)

// PhaseStatus is the state of one phase. failed is terminal for the phase
// and, by default, for the run.
type PhaseStatus string

const (
	PhasePending   PhaseStatus = "pending"
	PhaseSkipped   PhaseStatus = "skipped"
	PhaseRunning   PhaseStatus = "running"
	PhaseSucceeded PhaseStatus = "succeeded"
	PhaseFailed    PhaseStatus = "failed"
)

// PhaseName identifies one of the five deployment phases.
type PhaseName string

const (
	PhaseInfrastructure   PhaseName = "infrastructure"
	PhaseDatabase         PhaseName = "database"
	PhaseClusterWorkloads PhaseName = "cluster-workloads"
	PhaseEdgeDeploy       PhaseName = "edge-deploy"
	PhaseVerification     PhaseName = "verification"
)

// PhaseOrder is the fixed execution order. Later phases assume earlier
// phases are fully settled.
var PhaseOrder = []PhaseName{
	PhaseInfrastructure,
	PhaseDatabase,
	PhaseClusterWorkloads,
	PhaseEdgeDeploy,
	PhaseVerification,
}

// Step is a single unit of work within a phase: one external command or
// collaborator script invocation.
type Step struct {
	// Description is the human-readable failure message for the step
	Description string

	// Command is the literal command line executed through the runner
	Command string

	// Timeout bounds readiness waits; zero means no per-step deadline
	Timeout time.Duration

	// Filled in by the executor
	ExitCode int
	Err      error
}

// Phase is one named stage of a run with its ordered steps.
type Phase struct {
	Name   PhaseName
	Skip   bool
	Status PhaseStatus
	Steps  []Step
}

// SkipFlags holds the per-phase operator overrides surfaced as CLI flags.
type SkipFlags struct {
	Infrastructure bool
	Database       bool
	Kubernetes     bool
	Vercel         bool
	Tests          bool
}

// skipFor maps a phase name onto its flag.
func (f SkipFlags) skipFor(name PhaseName) bool {
	switch name {
	case PhaseInfrastructure:
		return f.Infrastructure
	case PhaseDatabase:
		return f.Database
	case PhaseClusterWorkloads:
		return f.Kubernetes
	case PhaseEdgeDeploy:
		return f.Vercel
	case PhaseVerification:
		return f.Tests
	default:
		return false
	}
}

// Run is one full or partial execution of the phase sequence for a target
// environment. Only the Controller mutates it; once the report is written
// it is not touched again.
type Run struct {
	ID          string
	Environment string
	Status      RunStatus
	Phases      []*Phase
	StartedAt   time.Time
	FinishedAt  time.Time
	LogPath     string
	ReportPath  string
}

// NewRunID builds the run identifier from environment and timestamp.
func NewRunID(environment string, now time.Time) string {
	return fmt.Sprintf("%s-%s", environment, now.Format("20060102-150405"))
}

// NewRun creates a pending run with all five phases in fixed order.
func NewRun(environment string, now time.Time, skip SkipFlags) *Run {
	run := &Run{
		ID:          NewRunID(environment, now),
		Environment: environment,
		Status:      RunPending,
		StartedAt:   now,
	}
	for _, name := range PhaseOrder {
		run.Phases = append(run.Phases, &Phase{
			Name:   name,
			Skip:   skip.skipFor(name),
			Status: PhasePending,
		})
	}
	return run
}

// Phase returns the named phase, or nil if absent.
func (r *Run) Phase(name PhaseName) *Phase {
	for _, p := range r.Phases {
		if p.Name == name {
			return p
		}
	}
	return nil
}
