package fedora

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/releasebot/pkg/domain/interfaces"
	"github.com/m-mizutani/releasebot/pkg/domain/model"
	"github.com/m-mizutani/releasebot/pkg/infra/shell"
)

// Packager updates a Fedora dist-git package with fedpkg and starts a build
// for every requested branch. Branches other than the first are fast
// forwarded to it.
type Packager struct {
	pkg       string
	exec      shell.Executor
	principal string
	keytab    string
	workDir   string

	builds []string
}

var _ interfaces.DownstreamTrigger = (*Packager)(nil)

// Option configures a Packager
type Option func(*Packager)

// WithKeytab authenticates to Fedora infrastructure with kinit before each
// release
func WithKeytab(principal, keytab string) Option {
	return func(x *Packager) {
		x.principal = principal
		x.keytab = keytab
	}
}

// WithWorkDir sets the parent of the temporary dist-git clones
func WithWorkDir(dir string) Option {
	return func(x *Packager) {
		x.workDir = dir
	}
}

// New creates a Packager for the dist-git package pkg
func New(pkg string, exec shell.Executor, opts ...Option) *Packager {
	x := &Packager{
		pkg:  pkg,
		exec: exec,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Builds implements interfaces.DownstreamTrigger
func (x *Packager) Builds() []string {
	return append([]string(nil), x.builds...)
}

// Release implements interfaces.DownstreamTrigger. It reports false when any
// branch failed to build; the branches that did build are in Builds.
func (x *Packager) Release(ctx context.Context, req *model.ReleaseRequest) (bool, error) {
	logger := ctxlog.From(ctx)
	x.builds = nil

	if len(req.FedoraBranches) == 0 {
		return false, goerr.New("no Fedora branch to release", goerr.T(model.ErrTagConfiguration))
	}

	if x.keytab != "" {
		if _, err := x.exec.Run(ctx, "", "kinit", "-k", "-t", x.keytab, x.principal); err != nil {
			return false, goerr.Wrap(err, "failed to authenticate to Fedora", goerr.V("principal", x.principal))
		}
	}

	tmp, err := os.MkdirTemp(x.workDir, "releasebot-fedora-")
	if err != nil {
		return false, goerr.Wrap(err, "failed to create dist-git directory")
	}
	defer func() {
		if err := os.RemoveAll(tmp); err != nil {
			logger.Warn("Failed to remove dist-git directory", "error", err, "dir", tmp)
		}
	}()

	dir := filepath.Join(tmp, x.pkg)
	if _, err := x.exec.Run(ctx, tmp, "fedpkg", "clone", x.pkg, dir); err != nil {
		return false, goerr.Wrap(err, "failed to clone dist-git", goerr.V("package", x.pkg))
	}

	first := req.FedoraBranches[0]
	if err := x.updateSpec(ctx, dir, first, req); err != nil {
		return false, err
	}
	x.build(ctx, dir, first)

	for _, branch := range req.FedoraBranches[1:] {
		if err := x.mergeInto(ctx, dir, first, branch); err != nil {
			logger.Error("Failed to update Fedora branch", "error", err, "branch", branch)
			continue
		}
		x.build(ctx, dir, branch)
	}

	return len(x.builds) == len(req.FedoraBranches), nil
}

// updateSpec bumps the spec file to the new upstream version on branch
func (x *Packager) updateSpec(ctx context.Context, dir, branch string, req *model.ReleaseRequest) error {
	spec := x.pkg + ".spec"
	version := req.Version.String()
	user := fmt.Sprintf("%s <%s>", req.CommitName, req.CommitEmail)

	steps := [][]string{
		{"fedpkg", "switch-branch", branch},
		{"rpmdev-bumpspec", "--new", version, "--comment", "New upstream release " + version, "--userstring", user, spec},
		{"spectool", "--get-files", spec},
	}
	for _, step := range steps {
		if _, err := x.exec.Run(ctx, dir, step[0], step[1:]...); err != nil {
			return goerr.Wrap(err, "failed to update spec file", goerr.V("branch", branch), goerr.V("step", step[0]))
		}
	}

	sources, err := filepath.Glob(filepath.Join(dir, "*"+version+"*.tar.gz"))
	if err != nil || len(sources) == 0 {
		return goerr.New("new source archive not found", goerr.V("version", version), goerr.V("dir", dir))
	}

	steps = [][]string{
		append([]string{"fedpkg", "new-sources"}, sources...),
		{"git", "-c", "user.name=" + req.CommitName, "-c", "user.email=" + req.CommitEmail,
			"commit", "--all", "--message", version + " upstream release"},
		{"fedpkg", "push"},
	}
	for _, step := range steps {
		if _, err := x.exec.Run(ctx, dir, step[0], step[1:]...); err != nil {
			return goerr.Wrap(err, "failed to push spec update", goerr.V("branch", branch), goerr.V("step", step[0]))
		}
	}
	return nil
}

func (x *Packager) mergeInto(ctx context.Context, dir, from, branch string) error {
	steps := [][]string{
		{"fedpkg", "switch-branch", branch},
		{"git", "merge", "--ff-only", from},
		{"fedpkg", "push"},
	}
	for _, step := range steps {
		if _, err := x.exec.Run(ctx, dir, step[0], step[1:]...); err != nil {
			return goerr.Wrap(err, "failed to merge release", goerr.V("branch", branch), goerr.V("from", from))
		}
	}
	return nil
}

func (x *Packager) build(ctx context.Context, dir, branch string) {
	logger := ctxlog.From(ctx)

	if _, err := x.exec.Run(ctx, dir, "fedpkg", "switch-branch", branch); err != nil {
		logger.Error("Failed to switch Fedora branch", "error", err, "branch", branch)
		return
	}
	if _, err := x.exec.Run(ctx, dir, "fedpkg", "build"); err != nil {
		logger.Error("Fedora build failed", "error", err, "branch", branch)
		return
	}

	logger.Info("Fedora build succeeded", "branch", branch)
	x.builds = append(x.builds, branch)
}
