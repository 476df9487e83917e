package deploy

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/convoyops/deployctl/runner"
	"github.com/convoyops/deployctl/ui"
)

// Executor runs the ordered steps of one phase through the Command Runner.
type Executor struct {
	runner runner.Runner
	logger zerolog.Logger
}

// NewExecutor creates a phase executor bound to one run's runner.
func NewExecutor(r runner.Runner, logger zerolog.Logger) *Executor {
	return &Executor{runner: r, logger: logger}
}

// ExecutePhase drives the phase state machine:
// pending -> (skipped | running), running -> (succeeded | failed).
//
// A skipped phase executes zero steps. Steps run in fixed order and the
// phase stops at the first failure; the returned error is the failing
// step's *runner.CommandError.
func (e *Executor) ExecutePhase(ctx context.Context, phase *Phase) error {
	if phase.Skip {
		phase.Status = PhaseSkipped
		e.logger.Info().Str("phase", string(phase.Name)).Msg("Phase skipped by operator")
		ui.Skipped(fmt.Sprintf("Phase %s skipped", phase.Name))
		return nil
	}

	phase.Status = PhaseRunning
	e.logger.Info().
		Str("phase", string(phase.Name)).
		Int("steps", len(phase.Steps)).
		Msg("Phase started")
	ui.Title(fmt.Sprintf("Phase: %s", phase.Name))

	for i := range phase.Steps {
		step := &phase.Steps[i]
		ui.Info(step.Description)

		var err error
		if step.Timeout > 0 {
			err = e.runner.RunWithTimeout(ctx, step.Command, step.Description, step.Timeout)
		} else {
			err = e.runner.Run(ctx, step.Command, step.Description)
		}
		if err != nil {
			step.Err = err
			var cmdErr *runner.CommandError
			if errors.As(err, &cmdErr) {
				step.ExitCode = cmdErr.ExitCode
			}
			phase.Status = PhaseFailed
			ui.Error(fmt.Sprintf("Phase %s failed: %s", phase.Name, step.Description))
			return fmt.Errorf("phase %s failed: %w", phase.Name, err)
		}
	}

	phase.Status = PhaseSucceeded
	e.logger.Info().Str("phase", string(phase.Name)).Msg("Phase succeeded")
	ui.Success(fmt.Sprintf("Phase %s succeeded", phase.Name))
	return nil
}
