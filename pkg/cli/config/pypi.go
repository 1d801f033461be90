package config

import (
	"github.com/m-mizutani/releasebot/pkg/infra/pypi"
	"github.com/m-mizutani/releasebot/pkg/infra/shell"
	"github.com/urfave/cli/v3"
)

// PyPI holds package index configuration
type PyPI struct {
	Project       string
	RepositoryURL string
	Python        string
	Token         string `masq:"secret"`
}

// Flags returns CLI flags for PyPI configuration
func (c *PyPI) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "pypi-project",
			Usage:       "Project name on PyPI; PyPI releases are disabled when empty",
			Destination: &c.Project,
			Sources:     cli.EnvVars("RELEASEBOT_PYPI_PROJECT"),
		},
		&cli.StringFlag{
			Name:        "pypi-repository-url",
			Usage:       "Upload URL passed to twine (e.g. TestPyPI)",
			Destination: &c.RepositoryURL,
			Sources:     cli.EnvVars("RELEASEBOT_PYPI_REPOSITORY_URL"),
		},
		&cli.StringFlag{
			Name:        "pypi-python",
			Usage:       "Python interpreter used to build distributions",
			Value:       "python3",
			Destination: &c.Python,
			Sources:     cli.EnvVars("RELEASEBOT_PYPI_PYTHON"),
		},
		&cli.StringFlag{
			Name:        "pypi-token",
			Usage:       "PyPI API token used by twine",
			Destination: &c.Token,
			Sources:     cli.EnvVars("RELEASEBOT_PYPI_TOKEN"),
		},
	}
}

// Enabled reports whether a project is configured
func (c *PyPI) Enabled() bool {
	return c.Project != ""
}

// NewIndex creates the package index client
func (c *PyPI) NewIndex() *pypi.Index {
	shellOpts := []shell.Option{}
	if c.Token != "" {
		shellOpts = append(shellOpts,
			shell.WithEnv("TWINE_USERNAME=__token__", "TWINE_PASSWORD="+c.Token),
			shell.WithSecret(c.Token),
		)
	}

	opts := []pypi.Option{pypi.WithPython(c.Python)}
	if c.RepositoryURL != "" {
		opts = append(opts, pypi.WithRepositoryURL(c.RepositoryURL))
	}
	return pypi.New(c.Project, shell.New(shellOpts...), opts...)
}
