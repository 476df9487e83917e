package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/convoyops/deployctl/secrets"
)

// Settings holds the orchestrator's own configuration, as opposed to the
// per-environment EnvironmentConfig that is deployed to external systems.
type Settings struct {
	// Paths
	Paths PathSettings `envPrefix:"DEPLOYCTL_"`

	// Timeouts for bounded readiness waits
	Timeouts TimeoutSettings `envPrefix:"DEPLOYCTL_"`

	// Kubernetes target
	Kubernetes KubernetesSettings `envPrefix:"DEPLOYCTL_K8S_"`

	// GitHub deployment tracking (optional)
	GitHub GitHubSettings `envPrefix:"GITHUB_"`

	// Application Configuration
	App AppSettings `envPrefix:"APP_"`

	// Secrets (loaded from files)
	Secrets SecretsSettings
}

type PathSettings struct {
	// EnvFileDir is where .env.<environment> files are resolved
	EnvFileDir string `env:"ENV_DIR" envDefault:"."`
	LogDir     string `env:"LOG_DIR" envDefault:"logs"`
	ReportDir  string `env:"REPORT_DIR" envDefault:"reports"`
	// SmokeTest is the verification collaborator invoked with the environment name
	SmokeTest string `env:"SMOKE_TEST" envDefault:"./scripts/smoke-test.sh"`
	// TerraformDir holds the provisioning configuration
	TerraformDir string `env:"TERRAFORM_DIR" envDefault:"infrastructure/terraform"`
	// MigrationsDir holds database migration files
	MigrationsDir string `env:"MIGRATIONS_DIR" envDefault:"database/migrations"`
	// ManifestDir holds workload manifests applied in dependency order
	ManifestDir string `env:"MANIFEST_DIR" envDefault:"kubernetes"`
}

type TimeoutSettings struct {
	WorkloadReady   time.Duration `env:"WORKLOAD_READY_TIMEOUT" envDefault:"5m"`
	RolloutUndo     time.Duration `env:"ROLLOUT_UNDO_TIMEOUT" envDefault:"3m"`
	CacheInvalidate time.Duration `env:"CACHE_INVALIDATE_TIMEOUT" envDefault:"30s"`
}

type KubernetesSettings struct {
	NamespacePrefix string `env:"NAMESPACE_PREFIX" envDefault:"saas"`
	ClusterName     string `env:"CLUSTER_NAME" envDefault:"saas-cluster"`
	Region          string `env:"REGION" envDefault:"us-east-1"`
}

type GitHubSettings struct {
	// GitHub App ID; zero disables deployment tracking
	AppID int64 `env:"APP_ID"`

	// Repository that deployment records are created against
	Owner string `env:"OWNER"`
	Repo  string `env:"REPO"`

	// Set GITHUB_ENTERPRISE_URL to use Enterprise GitHub,
	// leave empty for GitHub.com
	EnterpriseURL string `env:"ENTERPRISE_URL"`
}

type AppSettings struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`
}

type SecretsSettings struct {
	GitHubPrivateKey []byte
}

// Load loads orchestrator settings from environment variables and files
func Load() (*Settings, error) {
	// Load .env file if exists (for local development)
	if err := godotenv.Load(); err != nil {
		// Ignore error, use environment variables if no .env file
	}

	cfg := &Settings{}

	// Parse environment variables using caarlos0/env
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	// The GitHub notifier is optional; only load its key when enabled
	if cfg.GitHub.AppID != 0 {
		if err := loadSecrets(cfg); err != nil {
			return nil, fmt.Errorf("failed to load secrets: %w", err)
		}
	}

	return cfg, nil
}

// loadSecrets loads secrets from files
func loadSecrets(cfg *Settings) error {
	privateKeyPath := secrets.ResolvePath("GITHUB_PRIVATE_KEY_PATH", ".private/github-app.private-key.pem")

	privateKey, err := secrets.ReadFile(privateKeyPath)
	if err != nil {
		return fmt.Errorf("failed to load GitHub App private key: %w", err)
	}
	cfg.Secrets.GitHubPrivateKey = privateKey

	return nil
}
