package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v58/github"
	"github.com/rs/zerolog"

	"github.com/convoyops/deployctl/config"
)

// ClientFactory creates authenticated GitHub clients
type ClientFactory struct {
	config     config.GitHubSettings
	privateKey []byte
	logger     zerolog.Logger
	// Cache for installation IDs by organization
	installationCache map[string]int64
}

// NewClientFactory creates a new GitHub client factory
func NewClientFactory(cfg config.GitHubSettings, privateKey []byte, logger zerolog.Logger) *ClientFactory {
	return &ClientFactory{
		config:            cfg,
		privateKey:        privateKey,
		logger:            logger,
		installationCache: make(map[string]int64),
	}
}

// CreateClientForOrg creates a GitHub client authenticated as the App
// installation for the given organization, on Enterprise when
// GITHUB_ENTERPRISE_URL is configured, GitHub.com otherwise.
func (f *ClientFactory) CreateClientForOrg(ctx context.Context, org string) (*github.Client, error) {
	// Check if we have a cached installation ID for this org
	if installationID, exists := f.installationCache[org]; exists {
		return f.createInstallationClient(installationID)
	}

	// Create GitHub App transport to find installations
	atr, err := ghinstallation.NewAppsTransport(
		http.DefaultTransport,
		f.config.AppID,
		f.privateKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create app transport: %w", err)
	}

	appClient := github.NewClient(&http.Client{Transport: atr})
	if f.config.EnterpriseURL != "" {
		baseURL := strings.TrimSuffix(f.config.EnterpriseURL, "/")
		atr.BaseURL = baseURL + "/api/v3"
		appClient.BaseURL, _ = appClient.BaseURL.Parse(baseURL + "/api/v3/")
		appClient.UploadURL, _ = appClient.UploadURL.Parse(baseURL + "/api/uploads/")
	}

	// Find installation for the organization
	installations, _, err := appClient.Apps.ListInstallations(ctx, &github.ListOptions{PerPage: 100})
	if err != nil {
		return nil, fmt.Errorf("failed to list app installations: %w", err)
	}

	var targetInstallationID int64
	for _, installation := range installations {
		if installation.Account.GetLogin() == org {
			targetInstallationID = installation.GetID()
			// Cache the installation ID
			f.installationCache[org] = targetInstallationID
			break
		}
	}

	if targetInstallationID == 0 {
		return nil, fmt.Errorf("no installation found for organization '%s'", org)
	}

	f.logger.Info().
		Int64("app_id", f.config.AppID).
		Int64("installation_id", targetInstallationID).
		Str("organization", org).
		Msg("Found GitHub App installation for organization")

	return f.createInstallationClient(targetInstallationID)
}

// createInstallationClient creates a client for a specific installation ID
func (f *ClientFactory) createInstallationClient(installationID int64) (*github.Client, error) {
	// Create GitHub App installation transport
	itr, err := ghinstallation.New(
		http.DefaultTransport,
		f.config.AppID,
		installationID,
		f.privateKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create installation transport: %w", err)
	}

	client := github.NewClient(&http.Client{Transport: itr})
	if f.config.EnterpriseURL != "" {
		baseURL := strings.TrimSuffix(f.config.EnterpriseURL, "/")
		itr.BaseURL = baseURL + "/api/v3"
		client.BaseURL, _ = client.BaseURL.Parse(baseURL + "/api/v3/")
		client.UploadURL, _ = client.UploadURL.Parse(baseURL + "/api/uploads/")
	}

	return client, nil
}
