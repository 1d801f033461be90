package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// DefaultVersionFiles are bumped by the release pull request when the
// repository does not name its own
var DefaultVersionFiles = []string{"setup.py", "*/__init__.py", "pyproject.toml"}

// ReleaseConf is the release policy read from release-conf.yaml in the
// repository at the start of every cycle
type ReleaseConf struct {
	TriggerOnIssue  bool     `yaml:"trigger_on_issue"`
	Labels          []string `yaml:"labels"`
	PyPI            *bool    `yaml:"pypi"`
	Fedora          bool     `yaml:"fedora"`
	FedoraBranches  []string `yaml:"fedora_branches"`
	RefreshInterval int      `yaml:"refresh_interval"`
	VersionFiles    []string `yaml:"version_files"`
	AuthorName      string   `yaml:"author_name"`
	AuthorEmail     string   `yaml:"author_email"`
}

// Validate checks the policy for contradictions
func (x *ReleaseConf) Validate() error {
	if x.Fedora && len(x.FedoraBranches) == 0 {
		return goerr.New("fedora release requested without fedora_branches",
			goerr.T(ErrTagConfiguration))
	}
	if x.Fedora && !x.PyPIEnabled() {
		// Fedora builds package the sources uploaded to PyPI
		return goerr.New("fedora release requires the pypi release",
			goerr.T(ErrTagConfiguration))
	}
	if x.RefreshInterval < 0 {
		return goerr.New("refresh_interval must not be negative",
			goerr.V("refresh_interval", x.RefreshInterval),
			goerr.T(ErrTagConfiguration))
	}
	if (x.AuthorName == "") != (x.AuthorEmail == "") {
		return goerr.New("author_name and author_email must be set together",
			goerr.T(ErrTagConfiguration))
	}
	for _, label := range x.Labels {
		if label == "" {
			return goerr.New("empty label in labels", goerr.T(ErrTagConfiguration))
		}
	}
	return nil
}

// PyPIEnabled reports whether the PyPI target is active. It is on unless
// explicitly disabled.
func (x *ReleaseConf) PyPIEnabled() bool {
	return x.PyPI == nil || *x.PyPI
}

// Interval returns the refresh interval override, or fallback when unset
func (x *ReleaseConf) Interval(fallback time.Duration) time.Duration {
	if x == nil || x.RefreshInterval == 0 {
		return fallback
	}
	return time.Duration(x.RefreshInterval) * time.Second
}

// Files returns the files bumped by a release pull request
func (x *ReleaseConf) Files() []string {
	if len(x.VersionFiles) == 0 {
		return DefaultVersionFiles
	}
	return x.VersionFiles
}
