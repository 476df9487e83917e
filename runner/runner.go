// Package runner executes single external commands, capturing their output
// to the run's log file and mapping failures to a typed error. It has no
// knowledge of phases; every phase reuses the same primitive.
package runner

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/rs/zerolog"

	"github.com/convoyops/deployctl/config"
	"github.com/convoyops/deployctl/logging"
)

// Runner executes one external command within the run's environment.
type Runner interface {
	// Run executes the command line, appending it and its combined output
	// to the run log. A non-nil error is always a *CommandError.
	Run(ctx context.Context, command string, message string) error

	// RunWithTimeout bounds the command with its own deadline; expiry is
	// reported as KindTimeout.
	RunWithTimeout(ctx context.Context, command string, message string, timeout time.Duration) error
}

// ExecRunner runs commands through the shell with the environment config
// appended to the process environment. Output goes to the run log only.
type ExecRunner struct {
	runLog *logging.RunLog
	env    []string
	logger zerolog.Logger

	// echo additionally mirrors command output to the operator's
	// terminal, used by semi-interactive rollback steps
	echo io.Writer
}

// NewExecRunner creates a runner for one run. The environment config is
// rendered once; the process environment itself is never mutated.
func NewExecRunner(runLog *logging.RunLog, envCfg *config.EnvironmentConfig) *ExecRunner {
	env := os.Environ()
	if envCfg != nil {
		env = append(env, envCfg.Environ()...)
	}
	return &ExecRunner{
		runLog: runLog,
		env:    env,
		logger: logging.ComponentLogger("runner"),
	}
}

// WithEcho mirrors command output to w in addition to the run log.
// The log keeps the total execution order either way.
func (r *ExecRunner) WithEcho(w io.Writer) *ExecRunner {
	r.echo = w
	return r
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, command string, message string) error {
	r.runLog.Command(command)
	r.logger.Debug().Str("command", command).Msg("Executing command")

	out := r.runLog.Writer()
	if r.echo != nil {
		out = io.MultiWriter(out, r.echo)
	}

	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)
	cmd.Env = r.env
	cmd.Stdout = out
	cmd.Stderr = out

	err := cmd.Run()
	if err == nil {
		return nil
	}

	cmdErr := classify(ctx, command, message, err)
	r.runLog.Printf("FAILED: %s", cmdErr.Error())
	r.logger.Error().
		Str("command", command).
		Str("kind", string(cmdErr.Kind)).
		Int("exit_code", cmdErr.ExitCode).
		Msg(message)
	return cmdErr
}

// RunWithTimeout implements Runner.
func (r *ExecRunner) RunWithTimeout(ctx context.Context, command string, message string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return r.Run(ctx, command, message)
}

// classify maps an exec failure onto the error taxonomy.
func classify(ctx context.Context, command string, message string, err error) *CommandError {
	cmdErr := &CommandError{
		Message: message,
		Command: command,
		Err:     err,
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		cmdErr.Kind = KindTimeout
		return cmdErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		cmdErr.Kind = KindExit
		cmdErr.ExitCode = exitErr.ExitCode()
		return cmdErr
	}

	// The shell itself could not be started
	cmdErr.Kind = KindNotFound
	return cmdErr
}
