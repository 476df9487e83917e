package main

import (
	"context"
	"os"
	"os/signal"
	"os/user"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/convoyops/deployctl/config"
	"github.com/convoyops/deployctl/deploy"
	"github.com/convoyops/deployctl/github"
	"github.com/convoyops/deployctl/logging"
	"github.com/convoyops/deployctl/prompt"
	"github.com/convoyops/deployctl/rollback"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var settings *config.Settings

	root := &cobra.Command{
		Use:           "deployctl",
		Short:         "Deployment orchestration and rollback controller",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			settings = cfg
			logging.InitLogger(cfg.App.LogLevel, cfg.App.LogFormat)
			return nil
		},
	}

	root.AddCommand(newDeployCmd(&settings))
	root.AddCommand(newRollbackCmd(&settings))
	return root
}

func newDeployCmd(settings **config.Settings) *cobra.Command {
	var (
		skip    deploy.SkipFlags
		commit  bool
		assume  bool
		noInput bool
	)

	cmd := &cobra.Command{
		Use:   "deploy <environment>",
		Short: "Run the ordered deployment phase sequence for an environment",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			environment := config.EnvironmentProduction
			if len(args) > 0 {
				environment = args[0]
			}

			ctx, stop := signalContext()
			defer stop()

			controller := deploy.NewController(*settings, confirmer(assume, noInput), notifier(*settings))
			run, err := controller.Deploy(ctx, deploy.DeployOptions{
				Environment:   environment,
				Skip:          skip,
				CommitChanges: commit,
			})
			if err != nil {
				return err
			}
			log.Info().
				Str("run_id", run.ID).
				Str("report", run.ReportPath).
				Msg("Deployment complete")
			return nil
		},
	}

	cmd.Flags().BoolVar(&skip.Infrastructure, "skip-infrastructure", false, "skip the infrastructure provisioning phase")
	cmd.Flags().BoolVar(&skip.Database, "skip-database", false, "skip the database migration phase")
	cmd.Flags().BoolVar(&skip.Kubernetes, "skip-kubernetes", false, "skip the cluster workload rollout phase")
	cmd.Flags().BoolVar(&skip.Vercel, "skip-vercel", false, "skip the edge deploy phase")
	cmd.Flags().BoolVar(&skip.Tests, "skip-tests", false, "skip the post-deploy verification phase")
	cmd.Flags().BoolVar(&commit, "commit", false, "commit and push pending local changes before deploying")
	cmd.Flags().BoolVarP(&assume, "yes", "y", false, "answer yes to every confirmation gate")
	cmd.Flags().BoolVar(&noInput, "no-input", false, "answer no to every confirmation gate (CI mode)")
	return cmd
}

func newRollbackCmd(settings **config.Settings) *cobra.Command {
	var (
		component  string
		reason     string
		dbStrategy string
		assume     bool
	)

	cmd := &cobra.Command{
		Use:   "rollback <environment> <run-id>",
		Short: "Revert a prior deployment's effects for an environment",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := rollback.ParseScope(component)
			if err != nil {
				return err
			}

			runID := ""
			if len(args) > 1 {
				runID = args[1]
			}

			ctx, stop := signalContext()
			defer stop()

			controller := rollback.NewController(*settings, confirmer(assume, false))
			result, err := controller.Rollback(ctx, rollback.Request{
				Environment: args[0],
				RunID:       runID,
				Scope:       scope,
				Reason:      reason,
				Operator:    operatorIdentity(),
				DBStrategy:  rollback.DatabaseStrategy(dbStrategy),
			})
			if err != nil {
				return err
			}
			log.Info().
				Str("report", result.ReportPath).
				Msg("Rollback complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&component, "component", string(rollback.ScopeAll), "component scope: all, edge, cluster, or database")
	cmd.Flags().StringVar(&reason, "reason", "", "reason recorded in the incident report")
	cmd.Flags().StringVar(&dbStrategy, "db-strategy", "", "database rollback strategy: backup or migrate (prompted when unset)")
	cmd.Flags().BoolVarP(&assume, "yes", "y", false, "answer yes to every confirmation gate")
	return cmd
}

func confirmer(assumeYes bool, noInput bool) prompt.Confirmer {
	switch {
	case assumeYes:
		return prompt.AlwaysYes{}
	case noInput:
		return prompt.AlwaysNo{}
	default:
		return &prompt.Interactive{In: os.Stdin, Out: os.Stdout}
	}
}

// notifier returns the GitHub deployment notifier, or nil when not
// configured. A nil concrete pointer must not leak into the interface.
func notifier(settings *config.Settings) deploy.Notifier {
	if n := github.NewNotifier(settings); n != nil {
		return n
	}
	return nil
}

func operatorIdentity() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
