package deploy

import (
	"fmt"
	"strings"

	"github.com/convoyops/deployctl/config"
)

// ClusterWorkloads lists the deployable workloads in dependency order:
// shared caches and brokers before the services that use them. The
// rollback controller reverses workloads from the same list.
var ClusterWorkloads = []string{
	"redis",
	"rabbitmq",
	"api",
	"worker",
	"frontend",
}

// EdgeProjects lists the artifacts published to the edge platform.
var EdgeProjects = []string{
	"frontend",
	"api",
}

// Namespace derives the cluster namespace for an environment.
func Namespace(settings *config.Settings, environment string) string {
	return settings.Kubernetes.NamespacePrefix + "-" + environment
}

// stepsFor builds the ordered step list for one phase. Steps reference
// environment values through shell expansion; the runner supplies them to
// the command's environment without touching the process scope.
func stepsFor(name PhaseName, settings *config.Settings, environment string) []Step {
	switch name {
	case PhaseInfrastructure:
		return infrastructureSteps(settings)
	case PhaseDatabase:
		return databaseSteps(settings)
	case PhaseClusterWorkloads:
		return clusterSteps(settings, environment)
	case PhaseEdgeDeploy:
		return edgeSteps(environment)
	case PhaseVerification:
		return verificationSteps(settings, environment)
	default:
		return nil
	}
}

func infrastructureSteps(settings *config.Settings) []Step {
	tf := fmt.Sprintf("terraform -chdir=%s", settings.Paths.TerraformDir)
	return []Step{
		{
			Description: "Initialize provisioning configuration",
			Command:     tf + " init -input=false",
		},
		{
			Description: "Validate provisioning configuration",
			Command:     tf + " validate",
		},
		{
			Description: "Plan infrastructure changes",
			Command:     tf + " plan -input=false -out=tfplan",
		},
		{
			Description: "Apply infrastructure changes",
			Command:     tf + " apply -input=false tfplan",
		},
		{
			Description: "Reconfigure cluster access credentials",
			Command: fmt.Sprintf("aws eks update-kubeconfig --name %s --region %s",
				settings.Kubernetes.ClusterName, settings.Kubernetes.Region),
		},
	}
}

func databaseSteps(settings *config.Settings) []Step {
	return []Step{
		{
			Description: "Ensure migration tool is present",
			Command:     "command -v migrate",
		},
		{
			Description: "Apply pending database migrations",
			Command:     fmt.Sprintf(`migrate -path %s -database "$DATABASE_URL" up`, settings.Paths.MigrationsDir),
		},
	}
}

func clusterSteps(settings *config.Settings, environment string) []Step {
	ns := Namespace(settings, environment)
	steps := []Step{
		{
			Description: "Ensure namespace exists",
			Command:     fmt.Sprintf("kubectl get namespace %s >/dev/null 2>&1 || kubectl create namespace %s", ns, ns),
		},
		{
			Description: "Materialize application secrets",
			Command:     materializeSecretsCommand(ns),
		},
	}

	for _, workload := range ClusterWorkloads {
		steps = append(steps, Step{
			Description: fmt.Sprintf("Apply %s manifests", workload),
			Command:     fmt.Sprintf("kubectl -n %s apply -f %s/%s.yaml", ns, settings.Paths.ManifestDir, workload),
		})
	}

	steps = append(steps, Step{
		Description: "Wait for all workloads to report ready",
		Command: fmt.Sprintf("kubectl -n %s wait --for=condition=available deployment --all --timeout=%s",
			ns, settings.Timeouts.WorkloadReady),
		Timeout: settings.Timeouts.WorkloadReady,
	})
	return steps
}

// materializeSecretsCommand regenerates the application secret from the
// environment config. The dry-run/apply pipe keeps the step idempotent.
func materializeSecretsCommand(namespace string) string {
	literals := make([]string, 0, len(config.RequiredVariables))
	for _, name := range config.RequiredVariables {
		literals = append(literals, fmt.Sprintf(`--from-literal=%s="$%s"`, name, name))
	}
	return fmt.Sprintf("kubectl -n %s create secret generic app-secrets %s --dry-run=client -o yaml | kubectl -n %s apply -f -",
		namespace, strings.Join(literals, " "), namespace)
}

func edgeSteps(environment string) []Step {
	prod := ""
	if environment == config.EnvironmentProduction {
		prod = " --prod"
	}

	steps := make([]Step, 0, len(EdgeProjects))
	for _, project := range EdgeProjects {
		steps = append(steps, Step{
			Description: fmt.Sprintf("Publish %s to edge platform", project),
			Command:     fmt.Sprintf(`vercel deploy --cwd %s --yes --token "$VERCEL_TOKEN"%s`, project, prod),
		})
	}
	return steps
}

func verificationSteps(settings *config.Settings, environment string) []Step {
	return []Step{
		{
			Description: "Run smoke tests against public endpoints",
			Command:     fmt.Sprintf("%s %s", settings.Paths.SmokeTest, environment),
		},
	}
}
