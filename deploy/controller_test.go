package deploy

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convoyops/deployctl/config"
	"github.com/convoyops/deployctl/logging"
	"github.com/convoyops/deployctl/prompt"
	"github.com/convoyops/deployctl/runner"
)

const completeEnvFile = `OPENAI_API_KEY=sk-openai-key
ANTHROPIC_API_KEY=sk-ant-key
DATABASE_URL=postgresql://db.internal:5432/app
REDIS_URL=redis://cache.internal:6379/0
RABBITMQ_URL=amqp://broker.internal:5672
JWT_SECRET_KEY=0123456789abcdef0123456789abcdef
VERCEL_TOKEN=tok_deploy
AWS_ACCESS_KEY_ID=AKIAEXAMPLE
AWS_SECRET_ACCESS_KEY=secret
`

func testSettings(t *testing.T) *config.Settings {
	t.Helper()
	base := t.TempDir()
	return &config.Settings{
		Paths: config.PathSettings{
			EnvFileDir:    base,
			LogDir:        filepath.Join(base, "logs"),
			ReportDir:     filepath.Join(base, "reports"),
			SmokeTest:     "./scripts/smoke-test.sh",
			TerraformDir:  "infrastructure/terraform",
			MigrationsDir: "database/migrations",
			ManifestDir:   "kubernetes",
		},
		Timeouts: config.TimeoutSettings{
			WorkloadReady: 5 * time.Minute,
			RolloutUndo:   3 * time.Minute,
		},
		Kubernetes: config.KubernetesSettings{
			NamespacePrefix: "saas",
			ClusterName:     "saas-cluster",
			Region:          "us-east-1",
		},
	}
}

func writeEnv(t *testing.T, settings *config.Settings, environment string, content string) {
	t.Helper()
	path := filepath.Join(settings.Paths.EnvFileDir, ".env."+environment)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func testController(settings *config.Settings, confirm prompt.Confirmer, fake *fakeRunner) *Controller {
	c := NewController(settings, confirm, nil)
	c.newRunner = func(*logging.RunLog, *config.EnvironmentConfig) runner.Runner {
		return fake
	}
	c.now = func() time.Time {
		return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	}
	return c
}

func TestDeployStagingSkipsVercelAndTests(t *testing.T) {
	settings := testSettings(t)
	writeEnv(t, settings, "staging", completeEnvFile)
	fake := &fakeRunner{}
	c := testController(settings, prompt.AlwaysYes{}, fake)

	run, err := c.Deploy(context.Background(), DeployOptions{
		Environment: "staging",
		Skip:        SkipFlags{Vercel: true, Tests: true},
	})
	require.NoError(t, err)

	assert.Equal(t, RunSucceeded, run.Status)
	assert.Equal(t, PhaseSucceeded, run.Phase(PhaseInfrastructure).Status)
	assert.Equal(t, PhaseSucceeded, run.Phase(PhaseDatabase).Status)
	assert.Equal(t, PhaseSucceeded, run.Phase(PhaseClusterWorkloads).Status)
	assert.Equal(t, PhaseSkipped, run.Phase(PhaseEdgeDeploy).Status)
	assert.Equal(t, PhaseSkipped, run.Phase(PhaseVerification).Status)

	// Phases ran in fixed order
	joined := strings.Join(fake.commands, "\n")
	assert.Less(t, strings.Index(joined, "terraform"), strings.Index(joined, "migrate"))
	assert.Less(t, strings.Index(joined, "migrate"), strings.Index(joined, "kubectl"))
	assert.NotContains(t, joined, "vercel")
	assert.NotContains(t, joined, "smoke-test")

	assert.FileExists(t, run.ReportPath)
	assert.FileExists(t, run.LogPath)
}

func TestDeployHaltsAfterPhaseFailure(t *testing.T) {
	settings := testSettings(t)
	writeEnv(t, settings, "staging", completeEnvFile)
	fake := &fakeRunner{failSubstr: "migrate"}
	c := testController(settings, prompt.AlwaysYes{}, fake)

	run, err := c.Deploy(context.Background(), DeployOptions{Environment: "staging"})
	require.Error(t, err)

	assert.Equal(t, RunAborted, run.Status)
	assert.Equal(t, PhaseSucceeded, run.Phase(PhaseInfrastructure).Status)
	assert.Equal(t, PhaseFailed, run.Phase(PhaseDatabase).Status)

	// Downstream phases never execute: pending, not skipped or succeeded
	assert.Equal(t, PhasePending, run.Phase(PhaseClusterWorkloads).Status)
	assert.Equal(t, PhasePending, run.Phase(PhaseEdgeDeploy).Status)
	assert.Equal(t, PhasePending, run.Phase(PhaseVerification).Status)

	assert.NotContains(t, strings.Join(fake.commands, "\n"), "kubectl")

	report, rerr := os.ReadFile(run.ReportPath)
	require.NoError(t, rerr)
	assert.Contains(t, string(report), "deployctl rollback staging "+run.ID)
}

func TestDeployAllPhasesSkipped(t *testing.T) {
	settings := testSettings(t)
	writeEnv(t, settings, "staging", completeEnvFile)
	fake := &fakeRunner{}
	c := testController(settings, prompt.AlwaysYes{}, fake)

	run, err := c.Deploy(context.Background(), DeployOptions{
		Environment: "staging",
		Skip: SkipFlags{
			Infrastructure: true,
			Database:       true,
			Kubernetes:     true,
			Vercel:         true,
			Tests:          true,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, RunSucceeded, run.Status)
	assert.Empty(t, fake.commands)
	for _, phase := range run.Phases {
		assert.Equal(t, PhaseSkipped, phase.Status)
	}
}

func TestDeployValidationReportsAllMissing(t *testing.T) {
	settings := testSettings(t)
	// DATABASE_URL and JWT_SECRET_KEY both unset
	writeEnv(t, settings, "staging", `OPENAI_API_KEY=sk-openai-key
ANTHROPIC_API_KEY=sk-ant-key
REDIS_URL=redis://cache.internal:6379/0
RABBITMQ_URL=amqp://broker.internal:5672
VERCEL_TOKEN=tok_deploy
AWS_ACCESS_KEY_ID=AKIAEXAMPLE
AWS_SECRET_ACCESS_KEY=secret
`)
	fake := &fakeRunner{}
	c := testController(settings, prompt.AlwaysYes{}, fake)

	run, err := c.Deploy(context.Background(), DeployOptions{Environment: "staging"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "JWT_SECRET_KEY")

	// Fatal before any phase with side effects
	assert.Empty(t, fake.commands)
	assert.Equal(t, RunAborted, run.Status)
	for _, phase := range run.Phases {
		assert.Equal(t, PhasePending, phase.Status)
	}
}

func TestDeployMissingEnvironmentFile(t *testing.T) {
	settings := testSettings(t)
	fake := &fakeRunner{}
	c := testController(settings, prompt.AlwaysYes{}, fake)

	_, err := c.Deploy(context.Background(), DeployOptions{Environment: "staging"})
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrConfigurationMissing)
	assert.Empty(t, fake.commands)
}

func TestDeployProductionDeclined(t *testing.T) {
	settings := testSettings(t)
	writeEnv(t, settings, "production", completeEnvFile)
	fake := &fakeRunner{}
	c := testController(settings, prompt.AlwaysNo{}, fake)

	run, err := c.Deploy(context.Background(), DeployOptions{Environment: "production"})
	require.Error(t, err)

	assert.Equal(t, RunAborted, run.Status)
	assert.Empty(t, fake.commands)
}

func TestDeployCommitPendingChangesRunsFirst(t *testing.T) {
	settings := testSettings(t)
	writeEnv(t, settings, "staging", completeEnvFile)
	fake := &fakeRunner{}
	c := testController(settings, prompt.AlwaysYes{}, fake)

	_, err := c.Deploy(context.Background(), DeployOptions{
		Environment:   "staging",
		CommitChanges: true,
	})
	require.NoError(t, err)

	require.NotEmpty(t, fake.commands)
	assert.Contains(t, fake.commands[0], "git add -A")
	assert.Contains(t, fake.commands[1], "terraform")
}

func TestDeployReportWriteFailureKeepsRunResult(t *testing.T) {
	settings := testSettings(t)
	writeEnv(t, settings, "staging", completeEnvFile)
	// Occupy the report directory path with a regular file so the report
	// cannot be created.
	require.NoError(t, os.WriteFile(settings.Paths.ReportDir, []byte("not a directory"), 0o644))
	fake := &fakeRunner{}
	c := testController(settings, prompt.AlwaysYes{}, fake)

	run, err := c.Deploy(context.Background(), DeployOptions{Environment: "staging"})
	require.NoError(t, err)

	assert.Equal(t, RunSucceeded, run.Status)
	assert.Empty(t, run.ReportPath)
	assert.FileExists(t, run.LogPath)
}

func TestDeployCommitDeclinedAborts(t *testing.T) {
	settings := testSettings(t)
	writeEnv(t, settings, "staging", completeEnvFile)
	fake := &fakeRunner{}
	c := testController(settings, prompt.AlwaysNo{}, fake)

	run, err := c.Deploy(context.Background(), DeployOptions{
		Environment:   "staging",
		CommitChanges: true,
	})
	require.Error(t, err)
	assert.Equal(t, RunAborted, run.Status)
	assert.Empty(t, fake.commands)
}
