package git

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/releasebot/pkg/domain/interfaces"
	"github.com/m-mizutani/releasebot/pkg/domain/model"
	"github.com/m-mizutani/releasebot/pkg/infra/shell"
)

// defaultLogLimit caps the commit subjects returned when no lower bound is
// known
const defaultLogLimit = 50

// RemoteURL returns the URL of origin. It is called before every network
// operation so that short lived credentials can be refreshed.
type RemoteURL func(ctx context.Context) (string, error)

// Repository is a local clone driven by the git command
type Repository struct {
	exec    shell.Executor
	remote  RemoteURL
	dir     string
	ownsDir bool
	branch  string
}

var _ interfaces.Repository = (*Repository)(nil)

// Option configures a Repository
type Option func(*Repository)

// WithDir clones into dir instead of a temporary directory. The directory is
// kept on Cleanup.
func WithDir(dir string) Option {
	return func(r *Repository) {
		r.dir = dir
	}
}

// StaticURL is a RemoteURL that never changes
func StaticURL(url string) RemoteURL {
	return func(ctx context.Context) (string, error) {
		return url, nil
	}
}

// TokenURL builds an authenticated https URL for a GitHub repository
func TokenURL(owner, name, token string) string {
	if token == "" {
		return "https://github.com/" + owner + "/" + name + ".git"
	}
	return "https://x-access-token:" + token + "@github.com/" + owner + "/" + name + ".git"
}

// Clone clones the repository and remembers its default branch
func Clone(ctx context.Context, exec shell.Executor, remote RemoteURL, opts ...Option) (*Repository, error) {
	r := &Repository{
		exec:   exec,
		remote: remote,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.dir == "" {
		dir, err := os.MkdirTemp("", "releasebot-")
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create working directory", goerr.T(model.ErrTagRepository))
		}
		r.dir = dir
		r.ownsDir = true
	}

	url, err := r.remote(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get remote URL", goerr.T(model.ErrTagRepository))
	}

	if _, err := r.exec.Run(ctx, "", "git", "clone", url, r.dir); err != nil {
		r.removeOwnedDir(ctx)
		return nil, goerr.Wrap(err, "failed to clone repository", goerr.T(model.ErrTagRepository))
	}

	head, err := r.git(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		r.removeOwnedDir(ctx)
		return nil, goerr.Wrap(err, "failed to detect default branch", goerr.T(model.ErrTagRepository))
	}
	r.branch = strings.TrimSpace(head)

	ctxlog.From(ctx).Info("Cloned repository", "dir", r.dir, "branch", r.branch)
	return r, nil
}

func (r *Repository) git(ctx context.Context, args ...string) (string, error) {
	return r.exec.Run(ctx, r.dir, "git", args...)
}

func (r *Repository) refreshRemote(ctx context.Context) error {
	url, err := r.remote(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to get remote URL")
	}
	if _, err := r.git(ctx, "remote", "set-url", "origin", url); err != nil {
		return goerr.Wrap(err, "failed to set remote URL")
	}
	return nil
}

// Dir implements interfaces.Repository
func (r *Repository) Dir() string {
	return r.dir
}

// Branch is the default branch detected at clone time
func (r *Repository) Branch() string {
	return r.branch
}

// Pull implements interfaces.Repository. Local changes are discarded; the
// clone is a mirror of the default branch.
func (r *Repository) Pull(ctx context.Context) error {
	if err := r.refreshRemote(ctx); err != nil {
		return err
	}

	steps := [][]string{
		{"fetch", "--prune", "origin"},
		{"checkout", "--force", r.branch},
		{"reset", "--hard", "origin/" + r.branch},
	}
	for _, args := range steps {
		if _, err := r.git(ctx, args...); err != nil {
			return goerr.Wrap(err, "failed to pull", goerr.V("branch", r.branch))
		}
	}
	return nil
}

// FetchTags implements interfaces.Repository
func (r *Repository) FetchTags(ctx context.Context) error {
	if err := r.refreshRemote(ctx); err != nil {
		return err
	}
	if _, err := r.git(ctx, "fetch", "--tags", "--force", "origin"); err != nil {
		return goerr.Wrap(err, "failed to fetch tags")
	}
	return nil
}

// Checkout implements interfaces.Repository
func (r *Repository) Checkout(ctx context.Context, ref string) error {
	if _, err := r.git(ctx, "checkout", "--force", ref); err != nil {
		return goerr.Wrap(err, "failed to check out", goerr.V("ref", ref))
	}
	return nil
}

// CreateBranch implements interfaces.Repository. An existing local branch of
// the same name is reset.
func (r *Repository) CreateBranch(ctx context.Context, branch string) error {
	if _, err := r.git(ctx, "checkout", "-B", branch); err != nil {
		return goerr.Wrap(err, "failed to create branch", goerr.V("branch", branch))
	}
	return nil
}

// CommitAll implements interfaces.Repository
func (r *Repository) CommitAll(ctx context.Context, message string, author model.CommitAuthor) error {
	if _, err := r.git(ctx, "add", "--all"); err != nil {
		return goerr.Wrap(err, "failed to stage changes")
	}

	if _, err := r.git(ctx,
		"-c", "user.name="+author.Name,
		"-c", "user.email="+author.Email,
		"commit", "--message", message,
	); err != nil {
		return goerr.Wrap(err, "failed to commit", goerr.V("message", message))
	}
	return nil
}

// Push implements interfaces.Repository
func (r *Repository) Push(ctx context.Context, branch string) error {
	if err := r.refreshRemote(ctx); err != nil {
		return err
	}
	if _, err := r.git(ctx, "push", "--force", "origin", branch); err != nil {
		return goerr.Wrap(err, "failed to push", goerr.V("branch", branch))
	}
	return nil
}

// Log implements interfaces.Repository
func (r *Repository) Log(ctx context.Context, from, to string) ([]string, error) {
	args := []string{"log", "--format=%s"}
	if from == "" {
		args = append(args, "-n", strconv.Itoa(defaultLogLimit), to)
	} else {
		args = append(args, from+".."+to)
	}

	out, err := r.git(ctx, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read log", goerr.V("from", from), goerr.V("to", to))
	}

	var subjects []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			subjects = append(subjects, line)
		}
	}
	return subjects, nil
}

// Cleanup implements interfaces.Repository. Only a temporary directory
// created by Clone is removed.
func (r *Repository) Cleanup() error {
	if !r.ownsDir {
		return nil
	}
	if err := os.RemoveAll(r.dir); err != nil {
		return goerr.Wrap(err, "failed to remove working directory", goerr.V("dir", r.dir))
	}
	return nil
}

func (r *Repository) removeOwnedDir(ctx context.Context) {
	if err := r.Cleanup(); err != nil {
		ctxlog.From(ctx).Warn("Failed to remove working directory", "error", err)
	}
}
