package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/releasebot/pkg/cli/config"
	"github.com/m-mizutani/releasebot/pkg/domain/model"
	"github.com/m-mizutani/releasebot/pkg/utils/errutil"
	"github.com/urfave/cli/v3"
)

func cmdPlan(file *config.File) *cli.Command {
	var (
		releaseCfg releaseConfig
		asJSON     bool
	)

	flags := append(releaseCfg.Flags(), &cli.BoolFlag{
		Name:        "json",
		Usage:       "Print the plan as JSON",
		Destination: &asJSON,
	})

	return &cli.Command{
		Name:   "plan",
		Usage:  "Show what the next cycle would do without doing it",
		Flags:  flags,
		Before: applyConfigFile(file),
		Action: func(ctx context.Context, c *cli.Command) error {
			app, err := releaseCfg.build(ctx)
			if err != nil {
				return err
			}
			defer app.Close(ctx)
			defer func() {
				if err := app.orchestrator.Close(); err != nil {
					errutil.Handle(ctx, "failed to close working copy", err)
				}
			}()

			plan, err := app.orchestrator.Plan(ctx)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(plan); err != nil {
					return goerr.Wrap(err, "failed to encode plan")
				}
				return nil
			}

			printPlan(os.Stdout, releaseCfg.github.FullName(), plan)
			return nil
		},
	}
}

var (
	headColor  = color.New(color.Bold)
	labelColor = color.New(color.FgCyan)
	doColor    = color.New(color.FgGreen)
	skipColor  = color.New(color.FgYellow)
)

func printPlan(w io.Writer, repository string, plan *model.Plan) {
	_, _ = headColor.Fprintf(w, "Release plan for %s\n", repository)

	latest := plan.LatestGitHub
	if latest == "" {
		latest = "(none)"
	}
	_, _ = labelColor.Fprint(w, "  latest GitHub release: ")
	fmt.Fprintln(w, latest)
	if plan.LatestPyPI != "" {
		_, _ = labelColor.Fprint(w, "  latest PyPI release:   ")
		fmt.Fprintln(w, plan.LatestPyPI)
	}

	nothing := true

	if req := plan.Publish; req != nil {
		if len(plan.PublishTargets) > 0 {
			nothing = false
			targets := make([]string, 0, len(plan.PublishTargets))
			for _, t := range plan.PublishTargets {
				targets = append(targets, string(t))
			}
			_, _ = doColor.Fprintf(w, "  publish %s from #%d (%s) to %s\n",
				req.Version, req.PullRequestNumber, shortSHA(req.Commitish), strings.Join(targets, ", "))
		} else {
			_, _ = skipColor.Fprintf(w, "  %s from #%d is already published everywhere\n", req.Version, req.PullRequestNumber)
		}
	}

	if pending := plan.Request; pending != nil {
		nothing = false
		_, _ = doColor.Fprintf(w, "  open release pull request %q for issue #%d\n", pending.Title(), pending.IssueNumber)
	}

	for _, s := range plan.Skipped {
		_, _ = skipColor.Fprintf(w, "  skip: %s\n", s)
	}

	if nothing {
		fmt.Fprintln(w, "  nothing to do")
	}
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
