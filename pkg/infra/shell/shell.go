package shell

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// ErrTagCommand marks failures of external commands
var ErrTagCommand = goerr.NewTag("command")

// Executor runs external commands. Implementations return stdout and wrap
// stderr into the error on failure.
type Executor interface {
	Run(ctx context.Context, dir, name string, args ...string) (string, error)
}

// Command is the os/exec backed Executor
type Command struct {
	env     []string
	secrets []string
}

// Option configures a Command
type Option func(*Command)

// WithEnv appends KEY=VALUE pairs to the environment of every command
func WithEnv(env ...string) Option {
	return func(c *Command) {
		c.env = append(c.env, env...)
	}
}

// WithSecret masks s in logs and errors
func WithSecret(s string) Option {
	return func(c *Command) {
		if s != "" {
			c.secrets = append(c.secrets, s)
		}
	}
}

// New creates a Command
func New(opts ...Option) *Command {
	c := &Command{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ Executor = (*Command)(nil)

// Run implements Executor
func (c *Command) Run(ctx context.Context, dir, name string, args ...string) (string, error) {
	line := c.mask(strings.Join(append([]string{name}, args...), " "))
	ctxlog.From(ctx).Debug("Running command", "command", line, "dir", dir)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), c.env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", goerr.New("command failed",
			goerr.V("command", line),
			goerr.V("dir", dir),
			goerr.V("error", c.mask(err.Error())),
			goerr.V("stderr", c.mask(strings.TrimSpace(stderr.String()))),
			goerr.T(ErrTagCommand))
	}

	return stdout.String(), nil
}

func (c *Command) mask(s string) string {
	for _, secret := range c.secrets {
		s = strings.ReplaceAll(s, secret, "********")
	}
	return s
}
