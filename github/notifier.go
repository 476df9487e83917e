// Package github records each deployment run as a GitHub deployment with
// status updates, when a GitHub App is configured. The notifier is
// best-effort: its failures are warnings and never fail a run.
package github

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/google/go-github/v58/github"
	"github.com/rs/zerolog"

	"github.com/convoyops/deployctl/config"
	"github.com/convoyops/deployctl/deploy"
	"github.com/convoyops/deployctl/logging"
)

// Notifier implements deploy.Notifier against the GitHub Deployments API.
type Notifier struct {
	factory *ClientFactory
	cfg     config.GitHubSettings
	logger  zerolog.Logger

	deploymentID int64
}

var _ deploy.Notifier = (*Notifier)(nil)

// NewNotifier creates a deployment notifier, or nil when the GitHub App is
// not configured.
func NewNotifier(settings *config.Settings) *Notifier {
	cfg := settings.GitHub
	if cfg.AppID == 0 || cfg.Owner == "" || cfg.Repo == "" {
		return nil
	}

	logger := logging.ComponentLogger("github")
	return &Notifier{
		factory: NewClientFactory(cfg, settings.Secrets.GitHubPrivateKey, logger),
		cfg:     cfg,
		logger:  logger,
	}
}

// RunStarted creates the GitHub deployment and marks it in_progress.
func (n *Notifier) RunStarted(ctx context.Context, run *deploy.Run) {
	client, err := n.factory.CreateClientForOrg(ctx, n.cfg.Owner)
	if err != nil {
		n.logger.Warn().Err(err).Msg("Failed to create GitHub client, skipping deployment tracking")
		return
	}

	ref := headCommit()

	// Create deployment request
	deploymentRequest := &github.DeploymentRequest{
		Ref:                   github.String(ref),
		Task:                  github.String("deploy"),
		Environment:           github.String(run.Environment),
		Description:           github.String(fmt.Sprintf("deployctl run %s", run.ID)),
		ProductionEnvironment: github.Bool(run.Environment == config.EnvironmentProduction),
		RequiredContexts:      &[]string{}, // Skip status checks for external deployments
		AutoMerge:             github.Bool(false),
		Payload: map[string]interface{}{
			"run_id":     run.ID,
			"created_at": time.Now().UTC().Format(time.RFC3339),
		},
	}

	deployment, _, err := client.Repositories.CreateDeployment(ctx, n.cfg.Owner, n.cfg.Repo, deploymentRequest)
	if err != nil {
		n.logger.Warn().Err(err).Msg("Failed to create GitHub deployment")
		return
	}
	n.deploymentID = deployment.GetID()

	n.logger.Info().
		Int64("deployment_id", n.deploymentID).
		Str("environment", run.Environment).
		Msg("Created GitHub deployment")

	n.updateStatus(ctx, client, run, "in_progress",
		fmt.Sprintf("Deploying to %s environment", run.Environment))
}

// RunFinished posts the terminal status for the run's deployment.
func (n *Notifier) RunFinished(ctx context.Context, run *deploy.Run) {
	if n.deploymentID == 0 {
		return
	}

	client, err := n.factory.CreateClientForOrg(ctx, n.cfg.Owner)
	if err != nil {
		n.logger.Warn().Err(err).Msg("Failed to create GitHub client for final status")
		return
	}

	state := "failure"
	description := fmt.Sprintf("Deployment to %s aborted", run.Environment)
	if run.Status == deploy.RunSucceeded {
		state = "success"
		description = fmt.Sprintf("Successfully deployed to %s environment", run.Environment)
	}

	n.updateStatus(ctx, client, run, state, description)
}

func (n *Notifier) updateStatus(ctx context.Context, client *github.Client, run *deploy.Run, state string, description string) {
	statusRequest := &github.DeploymentStatusRequest{
		State:        github.String(state),
		Description:  github.String(truncateDescription(description, 140)),
		AutoInactive: github.Bool(true), // Automatically mark previous deployments as inactive
	}

	status, _, err := client.Repositories.CreateDeploymentStatus(ctx, n.cfg.Owner, n.cfg.Repo, n.deploymentID, statusRequest)
	if err != nil {
		n.logger.Warn().Err(err).
			Str("state", state).
			Msg("Failed to update GitHub deployment status")
		return
	}

	n.logger.Info().
		Str("state", status.GetState()).
		Int64("deployment_id", n.deploymentID).
		Msg("Updated GitHub deployment status")
}

// headCommit resolves the commit under deployment, falling back to the
// default branch name when the tree is not a git checkout.
func headCommit() string {
	out, err := exec.Command("git", "rev-parse", "HEAD").Output()
	if err != nil {
		return "main"
	}
	return strings.TrimSpace(string(out))
}

// truncateDescription ensures description doesn't exceed GitHub's limit
func truncateDescription(desc string, maxLen int) string {
	if len(desc) <= maxLen {
		return desc
	}
	return desc[:maxLen-3] + "..."
}
