package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/releasebot/pkg/domain/model"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// File holds the locations of the optional process configuration files
type File struct {
	Config  string
	EnvFile string
}

// Flags returns CLI flags for configuration files
func (c *File) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "TOML file giving values to flags that are not set otherwise",
			Destination: &c.Config,
			Sources:     cli.EnvVars("RELEASEBOT_CONFIG"),
		},
		&cli.StringFlag{
			Name:        "env-file",
			Usage:       "dotenv file loaded into the environment; a missing file is ignored",
			Value:       ".env",
			Destination: &c.EnvFile,
			Sources:     cli.EnvVars("RELEASEBOT_ENV_FILE"),
		},
	}
}

// LoadEnv loads the dotenv file. Variables already in the environment win.
func (c *File) LoadEnv() error {
	if c.EnvFile == "" {
		return nil
	}
	if err := godotenv.Load(c.EnvFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return goerr.Wrap(err, "failed to load env file",
			goerr.V("path", c.EnvFile),
			goerr.T(model.ErrTagConfiguration))
	}
	return nil
}

// ReadValues reads the TOML file into flag name and value pairs. Tables are
// flattened with "-", so [github] owner = "x" is the value of
// --github-owner. Arrays become comma separated values.
func ReadValues(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read config file",
			goerr.V("path", path),
			goerr.T(model.ErrTagConfiguration))
	}

	var doc map[string]any
	if err := toml.Unmarshal(raw, &doc); err != nil {
		return nil, goerr.Wrap(err, "failed to parse config file",
			goerr.V("path", path),
			goerr.T(model.ErrTagConfiguration))
	}

	values := make(map[string]string)
	flatten("", doc, values)
	return values, nil
}

func flatten(prefix string, doc map[string]any, out map[string]string) {
	for key, v := range doc {
		name := key
		if prefix != "" {
			name = prefix + "-" + key
		}

		switch value := v.(type) {
		case map[string]any:
			flatten(name, value, out)
		case []any:
			items := make([]string, 0, len(value))
			for _, item := range value {
				items = append(items, fmt.Sprint(item))
			}
			out[name] = strings.Join(items, ",")
		default:
			out[name] = fmt.Sprint(value)
		}
	}
}

// Apply sets flags of cmd from the TOML file at path unless they were given
// on the command line or by environment variables. Keys naming flags that
// neither cmd nor its ancestors have are returned as ignored.
func (c *File) Apply(cmd *cli.Command) ([]string, error) {
	if c.Config == "" {
		return nil, nil
	}

	values, err := ReadValues(c.Config)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	var ignored []string
	for _, name := range names {
		if !hasFlag(cmd, name) {
			ignored = append(ignored, name)
			continue
		}
		if cmd.IsSet(name) {
			continue
		}
		if err := cmd.Set(name, values[name]); err != nil {
			return nil, goerr.Wrap(err, "invalid value in config file",
				goerr.V("path", c.Config),
				goerr.V("flag", name),
				goerr.T(model.ErrTagConfiguration))
		}
	}
	return ignored, nil
}

// hasFlag looks name up in cmd and its ancestors
func hasFlag(cmd *cli.Command, name string) bool {
	for _, c := range cmd.Lineage() {
		for _, f := range c.Flags {
			if slices.Contains(f.Names(), name) {
				return true
			}
		}
	}
	return false
}
