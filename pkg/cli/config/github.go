package config

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/releasebot/pkg/domain/interfaces"
	"github.com/m-mizutani/releasebot/pkg/domain/model"
	"github.com/m-mizutani/releasebot/pkg/infra/git"
	githubinfra "github.com/m-mizutani/releasebot/pkg/infra/github"
	"github.com/urfave/cli/v3"
)

// GitHub holds GitHub configuration
type GitHub struct {
	Owner          string
	Repo           string
	Token          string `masq:"secret"`
	AppID          int64
	InstallationID int64
	PrivateKey     string `masq:"secret"`
	WebhookSecret  string `masq:"secret"`
	ConfigPath     string
	IdentityName   string
	IdentityEmail  string
	APIURL         string
	GraphQLURL     string
}

// Flags returns CLI flags for GitHub configuration
func (c *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "github-owner",
			Usage:       "Owner of the released repository",
			Destination: &c.Owner,
			Sources:     cli.EnvVars("RELEASEBOT_GITHUB_OWNER"),
		},
		&cli.StringFlag{
			Name:        "github-repo",
			Usage:       "Name of the released repository",
			Destination: &c.Repo,
			Sources:     cli.EnvVars("RELEASEBOT_GITHUB_REPO"),
		},
		&cli.StringFlag{
			Name:        "github-token",
			Usage:       "Personal access token; exclusive with GitHub App settings",
			Destination: &c.Token,
			Sources:     cli.EnvVars("RELEASEBOT_GITHUB_TOKEN", "GITHUB_TOKEN"),
		},
		&cli.Int64Flag{
			Name:        "github-app-id",
			Usage:       "GitHub App ID",
			Destination: &c.AppID,
			Sources:     cli.EnvVars("RELEASEBOT_GITHUB_APP_ID"),
		},
		&cli.Int64Flag{
			Name:        "github-installation-id",
			Usage:       "GitHub App installation ID",
			Destination: &c.InstallationID,
			Sources:     cli.EnvVars("RELEASEBOT_GITHUB_INSTALLATION_ID"),
		},
		&cli.StringFlag{
			Name:        "github-private-key",
			Usage:       "GitHub App private key, PEM content or file path",
			Destination: &c.PrivateKey,
			Sources:     cli.EnvVars("RELEASEBOT_GITHUB_PRIVATE_KEY"),
		},
		&cli.StringFlag{
			Name:        "github-webhook-secret",
			Usage:       "GitHub webhook secret",
			Destination: &c.WebhookSecret,
			Sources:     cli.EnvVars("RELEASEBOT_GITHUB_WEBHOOK_SECRET"),
		},
		&cli.StringFlag{
			Name:        "github-config-path",
			Usage:       "Path of the release policy file in the repository",
			Value:       githubinfra.DefaultConfigPath,
			Destination: &c.ConfigPath,
			Sources:     cli.EnvVars("RELEASEBOT_GITHUB_CONFIG_PATH"),
		},
		&cli.StringFlag{
			Name:        "github-identity-name",
			Usage:       "Commit author name of the bot; looked up from the account when empty",
			Destination: &c.IdentityName,
			Sources:     cli.EnvVars("RELEASEBOT_GITHUB_IDENTITY_NAME"),
		},
		&cli.StringFlag{
			Name:        "github-identity-email",
			Usage:       "Commit author e-mail of the bot",
			Destination: &c.IdentityEmail,
			Sources:     cli.EnvVars("RELEASEBOT_GITHUB_IDENTITY_EMAIL"),
		},
		&cli.StringFlag{
			Name:        "github-api-url",
			Usage:       "REST API base URL for GitHub Enterprise",
			Destination: &c.APIURL,
			Sources:     cli.EnvVars("RELEASEBOT_GITHUB_API_URL"),
		},
		&cli.StringFlag{
			Name:        "github-graphql-url",
			Usage:       "GraphQL endpoint for GitHub Enterprise",
			Destination: &c.GraphQLURL,
			Sources:     cli.EnvVars("RELEASEBOT_GITHUB_GRAPHQL_URL"),
		},
	}
}

// FullName is "owner/repo"
func (c *GitHub) FullName() string {
	return c.Owner + "/" + c.Repo
}

// Validate checks that the repository and exactly one credential are set
func (c *GitHub) Validate() error {
	if c.Owner == "" || c.Repo == "" {
		return goerr.New("--github-owner and --github-repo are required", goerr.T(model.ErrTagConfiguration))
	}

	useApp := c.AppID != 0 || c.InstallationID != 0 || c.PrivateKey != ""
	switch {
	case c.Token != "" && useApp:
		return goerr.New("GitHub token and GitHub App settings are exclusive", goerr.T(model.ErrTagConfiguration))
	case c.Token == "" && !useApp:
		return goerr.New("either GitHub token or GitHub App settings are required", goerr.T(model.ErrTagConfiguration))
	case useApp && (c.AppID == 0 || c.InstallationID == 0 || c.PrivateKey == ""):
		return goerr.New("GitHub App requires app ID, installation ID and private key", goerr.T(model.ErrTagConfiguration))
	}

	if (c.IdentityName == "") != (c.IdentityEmail == "") {
		return goerr.New("GitHub identity name and e-mail must be set together", goerr.T(model.ErrTagConfiguration))
	}
	return nil
}

func (c *GitHub) privateKey() ([]byte, error) {
	if strings.Contains(c.PrivateKey, "-----BEGIN") {
		return []byte(c.PrivateKey), nil
	}
	key, err := os.ReadFile(c.PrivateKey)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read GitHub App private key",
			goerr.V("path", c.PrivateKey),
			goerr.T(model.ErrTagConfiguration))
	}
	return key, nil
}

// Auth returns the authenticated HTTP client for the API and the remote URL
// used by git. With a GitHub App the remote URL carries a fresh installation
// token every time it is built.
func (c *GitHub) Auth(ctx context.Context) (*http.Client, git.RemoteURL, error) {
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}

	if c.Token != "" {
		return githubinfra.NewTokenHTTPClient(ctx, c.Token), git.StaticURL(git.TokenURL(c.Owner, c.Repo, c.Token)), nil
	}

	key, err := c.privateKey()
	if err != nil {
		return nil, nil, err
	}
	httpClient, token, err := githubinfra.NewAppHTTPClient(c.AppID, c.InstallationID, key)
	if err != nil {
		return nil, nil, err
	}

	remote := func(ctx context.Context) (string, error) {
		t, err := token(ctx)
		if err != nil {
			return "", err
		}
		return git.TokenURL(c.Owner, c.Repo, t), nil
	}
	return httpClient, remote, nil
}

// NewClient creates the hosting client. repo is the working copy used to
// prepare release pull requests.
func (c *GitHub) NewClient(httpClient *http.Client, repo interfaces.Repository) (*githubinfra.Client, error) {
	opts := []githubinfra.Option{
		githubinfra.WithRepository(repo),
		githubinfra.WithConfigPath(c.ConfigPath),
	}
	if c.IdentityName != "" {
		opts = append(opts, githubinfra.WithIdentity(c.IdentityName, c.IdentityEmail))
	}
	if c.APIURL != "" || c.GraphQLURL != "" {
		opts = append(opts, githubinfra.WithBaseURL(c.APIURL, c.GraphQLURL))
	}

	client, err := githubinfra.NewClient(c.Owner, c.Repo, httpClient, opts...)
	if err != nil {
		return nil, err
	}
	return client, nil
}
