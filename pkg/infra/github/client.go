package github

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/releasebot/pkg/domain/interfaces"
	"github.com/m-mizutani/releasebot/pkg/domain/model"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
)

// DefaultConfigPath is where the release policy lives in the repository
const DefaultConfigPath = "release-conf.yaml"

const defaultPageSize = 50

// Client talks to one GitHub repository. REST is used for mutations and
// GraphQL for the cursor walks over issues and pull requests.
type Client struct {
	rest    *github.Client
	graphql *githubv4.Client

	owner string
	name  string

	repo       interfaces.Repository
	configPath string
	pageSize   int
	identity   *model.UserContact
}

var _ interfaces.HostingClient = (*Client)(nil)

// Option configures a Client
type Option func(*clientConfig)

type clientConfig struct {
	restURL    string
	graphqlURL string
	repo       interfaces.Repository
	configPath string
	pageSize   int
	identity   *model.UserContact
}

// WithBaseURL points the client at a GitHub Enterprise server or a test
// server. rest must be the REST API root and graphql the GraphQL endpoint.
func WithBaseURL(rest, graphql string) Option {
	return func(c *clientConfig) {
		c.restURL = rest
		c.graphqlURL = graphql
	}
}

// WithRepository sets the local checkout used to prepare release pull
// requests
func WithRepository(repo interfaces.Repository) Option {
	return func(c *clientConfig) {
		c.repo = repo
	}
}

// WithConfigPath changes the path of the release policy file
func WithConfigPath(path string) Option {
	return func(c *clientConfig) {
		c.configPath = path
	}
}

// WithPageSize sets the number of edges fetched per GraphQL page
func WithPageSize(n int) Option {
	return func(c *clientConfig) {
		c.pageSize = n
	}
}

// WithIdentity fixes the commit identity instead of asking the API. GitHub
// App installations cannot read their own user profile.
func WithIdentity(name, email string) Option {
	return func(c *clientConfig) {
		c.identity = &model.UserContact{Name: name, Email: email}
	}
}

// NewTokenHTTPClient returns an HTTP client authenticated with a personal
// access token
func NewTokenHTTPClient(ctx context.Context, token string) *http.Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return oauth2.NewClient(ctx, src)
}

// TokenFunc returns a token that also authenticates git over https
type TokenFunc func(ctx context.Context) (string, error)

// NewAppHTTPClient returns an HTTP client authenticated as a GitHub App
// installation, and a TokenFunc yielding the current installation token
func NewAppHTTPClient(appID, installationID int64, privateKey []byte) (*http.Client, TokenFunc, error) {
	itr, err := ghinstallation.New(http.DefaultTransport, appID, installationID, privateKey)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to create GitHub App transport",
			goerr.V("app_id", appID),
			goerr.V("installation_id", installationID),
			goerr.T(model.ErrTagConfiguration))
	}

	token := func(ctx context.Context) (string, error) {
		t, err := itr.Token(ctx)
		if err != nil {
			return "", goerr.Wrap(err, "failed to get installation token",
				goerr.V("installation_id", installationID))
		}
		return t, nil
	}
	return &http.Client{Transport: itr}, token, nil
}

// NewClient creates a client for the repository owner/name
func NewClient(owner, name string, httpClient *http.Client, opts ...Option) (*Client, error) {
	if owner == "" || name == "" {
		return nil, goerr.New("repository owner and name are required",
			goerr.V("owner", owner),
			goerr.V("name", name),
			goerr.T(model.ErrTagConfiguration))
	}

	cfg := &clientConfig{
		configPath: DefaultConfigPath,
		pageSize:   defaultPageSize,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	rest := github.NewClient(httpClient)
	graphql := githubv4.NewClient(httpClient)

	if cfg.restURL != "" {
		base := cfg.restURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid GitHub API URL", goerr.V("url", cfg.restURL))
		}
		rest.BaseURL = u
	}
	if cfg.graphqlURL != "" {
		graphql = githubv4.NewEnterpriseClient(cfg.graphqlURL, httpClient)
	}

	return &Client{
		rest:       rest,
		graphql:    graphql,
		owner:      owner,
		name:       name,
		repo:       cfg.repo,
		configPath: cfg.configPath,
		pageSize:   cfg.pageSize,
		identity:   cfg.identity,
	}, nil
}

// Configuration implements interfaces.HostingClient. A missing file is an
// empty policy.
func (c *Client) Configuration(ctx context.Context) ([]byte, error) {
	file, _, resp, err := c.rest.Repositories.GetContents(ctx, c.owner, c.name, c.configPath, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get release configuration",
			goerr.V("path", c.configPath))
	}
	if file == nil {
		return nil, goerr.New("release configuration path is a directory", goerr.V("path", c.configPath))
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode release configuration", goerr.V("path", c.configPath))
	}
	return []byte(content), nil
}

// UserContact implements interfaces.HostingClient
func (c *Client) UserContact(ctx context.Context) (*model.UserContact, error) {
	if c.identity != nil {
		contact := *c.identity
		return &contact, nil
	}

	user, _, err := c.rest.Users.Get(ctx, "")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get authenticated user")
	}

	name := user.GetName()
	if name == "" {
		name = user.GetLogin()
	}
	email := user.GetEmail()
	if email == "" {
		email = user.GetLogin() + "@users.noreply.github.com"
	}
	return &model.UserContact{Name: name, Email: email}, nil
}
