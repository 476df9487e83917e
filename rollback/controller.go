package rollback

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/convoyops/deployctl/config"
	"github.com/convoyops/deployctl/deploy"
	"github.com/convoyops/deployctl/logging"
	"github.com/convoyops/deployctl/prompt"
	"github.com/convoyops/deployctl/runner"
	"github.com/convoyops/deployctl/ui"
)

// Controller reverts a prior deployment's effects for a named environment.
// It shares the environment loader and command runner with the deployment
// controller but is a separate entry point.
type Controller struct {
	settings *config.Settings
	confirm  prompt.Confirmer
	cache    CacheInvalidator

	// seams for tests
	newRunner func(*logging.RunLog, *config.EnvironmentConfig) runner.Runner
	now       func() time.Time
}

// NewController creates the rollback entry point.
func NewController(settings *config.Settings, confirm prompt.Confirmer) *Controller {
	return &Controller{
		settings: settings,
		confirm:  confirm,
		cache:    &RedisInvalidator{Timeout: settings.Timeouts.CacheInvalidate},
		newRunner: func(runLog *logging.RunLog, envCfg *config.EnvironmentConfig) runner.Runner {
			// Rollback is semi-interactive: the operator needs to see
			// backup listings, so output is mirrored to the terminal.
			return runner.NewExecRunner(runLog, envCfg).WithEcho(os.Stdout)
		},
		now: time.Now,
	}
}

// Rollback reverts the selected component scope and always ends by emitting
// the incident artifact, because a rollback is itself an operational event
// requiring audit.
func (c *Controller) Rollback(ctx context.Context, req Request) (*Result, error) {
	envCfg, err := config.LoadEnvironment(c.settings.Paths.EnvFileDir, req.Environment)
	if err != nil {
		return nil, err
	}
	req.Environment = envCfg.Environment()

	logger := logging.RollbackLogger(req.Environment)
	result := &Result{Request: req, StartedAt: c.now()}

	runLog, err := logging.OpenRunLog(c.settings.Paths.LogDir,
		fmt.Sprintf("rollback-%s-%s", req.Environment, result.StartedAt.Format("20060102-150405")))
	if err != nil {
		return nil, err
	}
	defer runLog.Close()
	result.LogPath = runLog.Path()

	runLog.Printf("rollback of environment %s (target run %s, scope %s): %s",
		req.Environment, req.RunID, req.Scope, req.Reason)
	ui.Title(fmt.Sprintf("Rolling back %s (scope %s)", req.Environment, req.Scope))

	r := c.newRunner(runLog, envCfg)

	if req.Scope == ScopeAll || req.Scope == ScopeCluster {
		result.Components = append(result.Components, c.rollbackCluster(ctx, r, req.Environment))
	}
	if req.Scope == ScopeAll || req.Scope == ScopeEdge {
		result.Components = append(result.Components, c.rollbackEdge(ctx, r))
	}
	if req.Scope == ScopeAll || req.Scope == ScopeDatabase {
		result.Components = append(result.Components, c.rollbackDatabase(ctx, r, req))
	}

	// Cross-cutting consistency action: reverted services must not serve
	// stale derived state.
	c.invalidateCaches(ctx, envCfg, runLog, result, logger)

	result.FinishedAt = c.now()

	reportPath, rerr := WriteReport(result, c.settings.Paths.ReportDir)
	if rerr != nil {
		logger.Error().Err(rerr).Msg("Failed to write rollback report")
	} else {
		result.ReportPath = reportPath
		runLog.Printf("incident report written to %s", reportPath)
	}

	if err := result.Err(); err != nil {
		ui.Error(fmt.Sprintf("Rollback of %s finished with failures", req.Environment))
		return result, err
	}
	ui.Success(fmt.Sprintf("Rollback of %s complete", req.Environment))
	return result, nil
}

// rollbackCluster undoes each known workload to its previous revision and
// blocks until the rollout settles, dependents before their dependencies.
func (c *Controller) rollbackCluster(ctx context.Context, r runner.Runner, environment string) ComponentResult {
	ns := deploy.Namespace(c.settings, environment)
	res := ComponentResult{Name: "cluster-workloads"}

	workloads := deploy.ClusterWorkloads
	for i := len(workloads) - 1; i >= 0; i-- {
		workload := workloads[i]
		ui.Info(fmt.Sprintf("Rolling back workload %s", workload))

		// Workloads not present in the cluster are skipped.
		undo := fmt.Sprintf(
			"kubectl -n %s get deployment/%s >/dev/null 2>&1 || exit 0; kubectl -n %s rollout undo deployment/%s",
			ns, workload, ns, workload)
		if err := r.Run(ctx, undo, fmt.Sprintf("Undo rollout of %s", workload)); err != nil {
			res.Err = err
			return res
		}

		status := fmt.Sprintf(
			"kubectl -n %s get deployment/%s >/dev/null 2>&1 || exit 0; kubectl -n %s rollout status deployment/%s --timeout=%s",
			ns, workload, ns, workload, c.settings.Timeouts.RolloutUndo)
		if err := r.RunWithTimeout(ctx, status, fmt.Sprintf("Wait for %s rollback to settle", workload), c.settings.Timeouts.RolloutUndo); err != nil {
			res.Err = err
			return res
		}
	}

	res.Detail = fmt.Sprintf("%d workloads reverted to previous revision", len(workloads))
	return res
}

// rollbackEdge reverts each published project to its previous deployment
// using the edge platform's own rollback operation.
func (c *Controller) rollbackEdge(ctx context.Context, r runner.Runner) ComponentResult {
	res := ComponentResult{Name: "edge-deploy"}

	for _, project := range deploy.EdgeProjects {
		ui.Info(fmt.Sprintf("Rolling back edge project %s", project))
		cmd := fmt.Sprintf(`vercel rollback --cwd %s --yes --token "$VERCEL_TOKEN"`, project)
		if err := r.Run(ctx, cmd, fmt.Sprintf("Roll back edge project %s", project)); err != nil {
			res.Err = err
			return res
		}
	}

	res.Detail = fmt.Sprintf("%d projects reverted to previous deployment", len(deploy.EdgeProjects))
	return res
}

// rollbackDatabase reverts database state using the operator-selected
// strategy. The strategy is never auto-selected.
func (c *Controller) rollbackDatabase(ctx context.Context, r runner.Runner, req Request) ComponentResult {
	res := ComponentResult{Name: "database"}

	strategy := req.DBStrategy
	if strategy == "" {
		answer, err := c.confirm.Input("Database rollback strategy (backup|migrate)")
		if err != nil {
			res.Err = err
			return res
		}
		strategy = DatabaseStrategy(answer)
	}

	switch strategy {
	case StrategyBackup:
		res.Err = c.restoreFromBackup(ctx, r, req.Environment)
		if res.Err == nil {
			res.Detail = "restored from backup"
		}
	case StrategyMigrate:
		cmd := fmt.Sprintf(`migrate -path %s -database "$DATABASE_URL" down 1`, c.settings.Paths.MigrationsDir)
		res.Err = r.Run(ctx, cmd, "Execute down-migration")
		if res.Err == nil {
			res.Detail = "reverted one migration"
		}
	default:
		res.Err = fmt.Errorf("unknown database rollback strategy %q", strategy)
	}
	return res
}

// restoreFromBackup lists available backups, prompts for one, and restores it.
func (c *Controller) restoreFromBackup(ctx context.Context, r runner.Runner, environment string) error {
	list := fmt.Sprintf(
		`aws rds describe-db-snapshots --db-instance-identifier %s-db --query "DBSnapshots[].{ID:DBSnapshotIdentifier,Created:SnapshotCreateTime}" --output table`,
		environment)
	if err := r.Run(ctx, list, "List available database backups"); err != nil {
		return err
	}

	backupID, err := c.confirm.Input("Backup identifier to restore")
	if err != nil {
		return err
	}
	if backupID == "" {
		return fmt.Errorf("no backup identifier provided")
	}

	restore := fmt.Sprintf("./scripts/restore-db-backup.sh %s %s", environment, backupID)
	return r.Run(ctx, restore, fmt.Sprintf("Restore database backup %s", backupID))
}

// invalidateCaches deletes the fixed key patterns from the environment's
// redis. A missing REDIS_URL downgrades to a warning; a delete failure is
// recorded on the result like any other component failure.
func (c *Controller) invalidateCaches(ctx context.Context, envCfg *config.EnvironmentConfig, runLog *logging.RunLog, result *Result, logger zerolog.Logger) {
	redisURL, ok := envCfg.Get("REDIS_URL")
	if !ok || redisURL == "" {
		logger.Warn().Msg("REDIS_URL not configured, skipping cache invalidation")
		runLog.Printf("cache invalidation skipped: REDIS_URL not configured")
		return
	}

	ui.Info("Invalidating dependent caches")
	deleted, err := c.cache.Invalidate(ctx, redisURL)
	result.CacheKeysDeleted = deleted
	result.CacheErr = err
	if err != nil {
		runLog.Printf("FAILED: cache invalidation: %s", err.Error())
		return
	}
	runLog.Printf("cache invalidation deleted %d keys", deleted)
}
