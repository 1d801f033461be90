package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/releasebot/pkg/domain/model"
)

type commitNotes struct{}

// NewCommitNotes drafts release notes as a bullet list of commit subjects
func NewCommitNotes() *commitNotes {
	return &commitNotes{}
}

// Generate implements interfaces.ReleaseNotes
func (x *commitNotes) Generate(ctx context.Context, req *model.ReleaseRequest, commits []string) (string, error) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("## %s\n\n", req.Version))
	if len(commits) == 0 {
		sb.WriteString(fmt.Sprintf("Release %s.\n", req.Version))
		return sb.String(), nil
	}

	for _, commit := range commits {
		commit = strings.TrimSpace(commit)
		if commit == "" || isMergeSubject(commit) {
			continue
		}
		sb.WriteString(fmt.Sprintf("- %s\n", commit))
	}

	return sb.String(), nil
}

func isMergeSubject(subject string) bool {
	return strings.HasPrefix(subject, "Merge pull request ") || strings.HasPrefix(subject, "Merge branch ")
}
