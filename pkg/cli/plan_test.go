package cli_test

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/releasebot/pkg/cli"
	"github.com/m-mizutani/releasebot/pkg/domain/model"
)

func TestPrintPlan(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	t.Run("publish and request", func(t *testing.T) {
		plan := &model.Plan{
			LatestGitHub: "1.0.0",
			LatestPyPI:   "1.0.0",
			Publish: &model.ReleaseRequest{
				Version:           model.MustParseVersion("1.1.0"),
				PullRequestNumber: 42,
				Commitish:         "abc1234567890",
			},
			PublishTargets: []model.Target{model.TargetGitHub, model.TargetPyPI},
			Request: &model.PendingPR{
				Version:     model.MustParseVersion("1.2.0"),
				IssueNumber: 7,
			},
			Skipped: []string{"issue #8 requests 1.0.0 which is already released"},
		}

		var buf bytes.Buffer
		cli.PrintPlan(&buf, "owner/repo", plan)
		out := buf.String()

		gt.String(t, out).Contains("Release plan for owner/repo")
		gt.String(t, out).Contains("latest GitHub release: 1.0.0")
		gt.String(t, out).Contains("publish 1.1.0 from #42 (abc1234) to github, pypi")
		gt.String(t, out).Contains(`open release pull request "1.2.0 release" for issue #7`)
		gt.String(t, out).Contains("skip: issue #8")
		gt.False(t, bytes.Contains(buf.Bytes(), []byte("nothing to do")))
	})

	t.Run("nothing", func(t *testing.T) {
		var buf bytes.Buffer
		cli.PrintPlan(&buf, "owner/repo", &model.Plan{})
		gt.String(t, buf.String()).Contains("latest GitHub release: (none)")
		gt.String(t, buf.String()).Contains("nothing to do")
	})
}
