package pypi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/releasebot/pkg/domain/interfaces"
	"github.com/m-mizutani/releasebot/pkg/infra/shell"
)

// DefaultBaseURL is the public Python package index
const DefaultBaseURL = "https://pypi.org"

// Index publishes Python packages with build and twine
type Index struct {
	project       string
	baseURL       string
	repositoryURL string
	python        string
	httpClient    *http.Client
	exec          shell.Executor
}

var _ interfaces.PackageIndex = (*Index)(nil)

// Option configures an Index
type Option func(*Index)

// WithBaseURL changes where the JSON API is queried
func WithBaseURL(base string) Option {
	return func(x *Index) {
		x.baseURL = base
	}
}

// WithRepositoryURL changes where twine uploads to, e.g. TestPyPI
func WithRepositoryURL(u string) Option {
	return func(x *Index) {
		x.repositoryURL = u
	}
}

// WithPython sets the python interpreter used for build and twine
func WithPython(python string) Option {
	return func(x *Index) {
		x.python = python
	}
}

// WithHTTPClient replaces http.DefaultClient
func WithHTTPClient(client *http.Client) Option {
	return func(x *Index) {
		x.httpClient = client
	}
}

// New creates an Index for project. Upload credentials are taken by twine
// from the environment of exec.
func New(project string, exec shell.Executor, opts ...Option) *Index {
	x := &Index{
		project:    project,
		baseURL:    DefaultBaseURL,
		python:     "python3",
		httpClient: http.DefaultClient,
		exec:       exec,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

type projectInfo struct {
	Info struct {
		Version string `json:"version"`
	} `json:"info"`
}

// LatestVersion implements interfaces.PackageIndex
func (x *Index) LatestVersion(ctx context.Context) (string, error) {
	endpoint, err := url.JoinPath(x.baseURL, "pypi", x.project, "json")
	if err != nil {
		return "", goerr.Wrap(err, "invalid package index URL", goerr.V("base", x.baseURL))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create request", goerr.V("url", endpoint))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := x.httpClient.Do(req)
	if err != nil {
		return "", goerr.Wrap(err, "failed to query package index", goerr.V("url", endpoint))
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		ctxlog.From(ctx).Info("Project is not on the package index yet", "project", x.project)
		return "", nil
	default:
		return "", goerr.New("unexpected status from package index",
			goerr.V("url", endpoint),
			goerr.V("status", resp.StatusCode))
	}

	var info projectInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", goerr.Wrap(err, "failed to decode package index response", goerr.V("url", endpoint))
	}
	return info.Info.Version, nil
}

// Release implements interfaces.PackageIndex
func (x *Index) Release(ctx context.Context, dir string) ([]string, error) {
	logger := ctxlog.From(ctx)
	dist := filepath.Join(dir, "dist")

	if err := os.RemoveAll(dist); err != nil {
		return nil, goerr.Wrap(err, "failed to clean dist directory", goerr.V("dir", dist))
	}

	if _, err := x.exec.Run(ctx, dir, x.python, "-m", "build", "--sdist", "--wheel", "--outdir", dist, "."); err != nil {
		return nil, goerr.Wrap(err, "failed to build package")
	}

	files, err := distFiles(dist)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, goerr.New("build produced no artifacts", goerr.V("dir", dist))
	}

	for _, f := range files {
		if info, err := os.Stat(f); err == nil {
			logger.Info("Built artifact", "file", filepath.Base(f), "size", humanize.Bytes(uint64(info.Size())))
		}
	}

	args := []string{"-m", "twine", "upload", "--non-interactive"}
	if x.repositoryURL != "" {
		args = append(args, "--repository-url", x.repositoryURL)
	}
	args = append(args, files...)

	if _, err := x.exec.Run(ctx, dir, x.python, args...); err != nil {
		return nil, goerr.Wrap(err, "failed to upload package", goerr.V("project", x.project))
	}

	return files, nil
}

func distFiles(dist string) ([]string, error) {
	entries, err := os.ReadDir(dist)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to read dist directory", goerr.V("dir", dist))
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		files = append(files, filepath.Join(dist, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
