package config

import (
	"github.com/m-mizutani/releasebot/pkg/infra/fedora"
	"github.com/m-mizutani/releasebot/pkg/infra/shell"
	"github.com/urfave/cli/v3"
)

// Fedora holds downstream packaging configuration
type Fedora struct {
	Package   string
	Principal string
	Keytab    string
}

// Flags returns CLI flags for Fedora configuration
func (c *Fedora) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "fedora-package",
			Usage:       "dist-git package name; Fedora releases are disabled when empty",
			Destination: &c.Package,
			Sources:     cli.EnvVars("RELEASEBOT_FEDORA_PACKAGE"),
		},
		&cli.StringFlag{
			Name:        "fedora-principal",
			Usage:       "Kerberos principal for Fedora infrastructure",
			Destination: &c.Principal,
			Sources:     cli.EnvVars("RELEASEBOT_FEDORA_PRINCIPAL"),
		},
		&cli.StringFlag{
			Name:        "fedora-keytab",
			Usage:       "Kerberos keytab file for the principal",
			Destination: &c.Keytab,
			Sources:     cli.EnvVars("RELEASEBOT_FEDORA_KEYTAB"),
		},
	}
}

// Enabled reports whether a package is configured
func (c *Fedora) Enabled() bool {
	return c.Package != ""
}

// NewPackager creates the Fedora packager
func (c *Fedora) NewPackager() *fedora.Packager {
	var opts []fedora.Option
	if c.Keytab != "" {
		opts = append(opts, fedora.WithKeytab(c.Principal, c.Keytab))
	}
	return fedora.New(c.Package, shell.New(), opts...)
}
