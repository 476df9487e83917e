package deploy

import (
	"context"
	"fmt"
	"time"

	"github.com/convoyops/deployctl/config"
	"github.com/convoyops/deployctl/logging"
	"github.com/convoyops/deployctl/prompt"
	"github.com/convoyops/deployctl/runner"
	"github.com/convoyops/deployctl/ui"
)

// Notifier receives run lifecycle events. Failures inside a notifier are
// its own concern; they must never fail the run.
type Notifier interface {
	RunStarted(ctx context.Context, run *Run)
	RunFinished(ctx context.Context, run *Run)
}

// DeployOptions is the operator input for one deployment invocation.
type DeployOptions struct {
	Environment string
	Skip        SkipFlags

	// CommitChanges stages, commits, and pushes uncommitted repository
	// changes before any infra-affecting phase, so the deployed artifact
	// matches the versioned source.
	CommitChanges bool
}

// Controller owns the full ordered phase sequence, the run identifier,
// the log file, and the end-of-run report.
type Controller struct {
	settings *config.Settings
	confirm  prompt.Confirmer
	notifier Notifier

	// seams for tests
	newRunner func(*logging.RunLog, *config.EnvironmentConfig) runner.Runner
	now       func() time.Time
}

// NewController creates the deployment entry point. notifier may be nil.
func NewController(settings *config.Settings, confirm prompt.Confirmer, notifier Notifier) *Controller {
	return &Controller{
		settings: settings,
		confirm:  confirm,
		notifier: notifier,
		newRunner: func(runLog *logging.RunLog, envCfg *config.EnvironmentConfig) runner.Runner {
			return runner.NewExecRunner(runLog, envCfg)
		},
		now: time.Now,
	}
}

// Deploy executes the full run: load -> validate -> optional commit gate ->
// phases in fixed order -> report. The first failing phase halts the run;
// downstream phases stay pending and a report is still written together
// with the literal rollback invocation.
func (c *Controller) Deploy(ctx context.Context, opts DeployOptions) (*Run, error) {
	envCfg, err := config.LoadEnvironment(c.settings.Paths.EnvFileDir, opts.Environment)
	if err != nil {
		return nil, err
	}
	environment := envCfg.Environment()

	run := NewRun(environment, c.now(), opts.Skip)
	logger := logging.RunLogger(run.ID, environment)

	runLog, err := logging.OpenRunLog(c.settings.Paths.LogDir, run.ID)
	if err != nil {
		return nil, err
	}
	defer runLog.Close()
	run.LogPath = runLog.Path()

	runLog.Printf("deployment run %s for environment %s", run.ID, environment)
	ui.Title(fmt.Sprintf("Deploying %s (run %s)", environment, run.ID))

	// Validation is fatal before any phase with side effects executes.
	// All missing variables are reported at once.
	validation := config.Validate(envCfg)
	for _, warning := range validation.Warnings {
		logger.Warn().Msg(warning)
		ui.Warning(warning)
	}
	if !validation.Valid() {
		verr := validation.Err()
		runLog.Printf("FATAL: %s", verr.Error())
		ui.Error(verr.Error())
		return c.finish(ctx, run, runLog, verr)
	}

	if environment == config.EnvironmentProduction {
		ok, perr := c.confirm.Confirm("Deploy to production?")
		if perr != nil {
			return c.finish(ctx, run, runLog, perr)
		}
		if !ok {
			aerr := fmt.Errorf("production deployment not confirmed")
			runLog.Printf("FATAL: %s", aerr.Error())
			return c.finish(ctx, run, runLog, aerr)
		}
	}

	r := c.newRunner(runLog, envCfg)

	if opts.CommitChanges {
		if err := c.commitPendingChanges(ctx, r, run); err != nil {
			runLog.Printf("FATAL: %s", err.Error())
			ui.Error(err.Error())
			return c.finish(ctx, run, runLog, err)
		}
	}

	run.Status = RunRunning
	if c.notifier != nil {
		c.notifier.RunStarted(ctx, run)
	}

	for _, phase := range run.Phases {
		if !phase.Skip {
			phase.Steps = stepsFor(phase.Name, c.settings, environment)
		}
	}

	executor := NewExecutor(r, logger)

	var runErr error
	for _, phase := range run.Phases {
		if err := executor.ExecutePhase(ctx, phase); err != nil {
			runLog.Printf("FATAL: %s", err.Error())
			runErr = err
			break
		}
	}
	if runErr == nil {
		run.Status = RunSucceeded
	}

	return c.finish(ctx, run, runLog, runErr)
}

// commitPendingChanges guards the infra-affecting phases behind a clean
// repository. The chained command is a no-op on a clean tree.
func (c *Controller) commitPendingChanges(ctx context.Context, r runner.Runner, run *Run) error {
	ok, err := c.confirm.Confirm("Commit and push pending local changes?")
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("pending local changes not committed")
	}

	cmd := fmt.Sprintf(
		`git diff --quiet && git diff --cached --quiet || { git add -A && git commit -m "deploy: %s" && git push; }`,
		run.ID,
	)
	return r.Run(ctx, cmd, "Commit pending local changes")
}

// finish stamps the run, writes the report, notifies, and surfaces the
// rollback invocation on failure. The run is immutable afterwards.
func (c *Controller) finish(ctx context.Context, run *Run, runLog *logging.RunLog, runErr error) (*Run, error) {
	if runErr != nil {
		run.Status = RunAborted
	}
	run.FinishedAt = c.now()

	reportPath, err := WriteReport(run, c.settings.Paths.ReportDir)
	if err != nil {
		logger := logging.RunLogger(run.ID, run.Environment)
		logger.Error().Err(err).Msg("Failed to write deployment report")
	} else {
		run.ReportPath = reportPath
		runLog.Printf("report written to %s", reportPath)
	}

	if c.notifier != nil {
		c.notifier.RunFinished(ctx, run)
	}

	switch run.Status {
	case RunSucceeded:
		ui.Success(fmt.Sprintf("Deployment %s succeeded", run.ID))
	default:
		ui.Error(fmt.Sprintf("Deployment %s aborted", run.ID))
		ui.Info(fmt.Sprintf("To roll back: deployctl rollback %s %s", run.Environment, run.ID))
	}

	return run, runErr
}
