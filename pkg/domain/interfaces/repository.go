package interfaces

import (
	"context"

	"github.com/m-mizutani/releasebot/pkg/domain/model"
)

// Repository is the local mirror of the released repository. It is owned by
// the orchestrator and never accessed concurrently.
type Repository interface {
	// Dir is the working directory of the checkout
	Dir() string

	Pull(ctx context.Context) error
	FetchTags(ctx context.Context) error
	Checkout(ctx context.Context, ref string) error

	// CreateBranch creates and checks out branch from the default branch
	CreateBranch(ctx context.Context, branch string) error

	// CommitAll commits every change of the working tree as author
	CommitAll(ctx context.Context, message string, author model.CommitAuthor) error

	Push(ctx context.Context, branch string) error

	// Log returns commit subjects reachable from to but not from from.
	// An empty from means the most recent commits up to to.
	Log(ctx context.Context, from, to string) ([]string, error)

	// Cleanup removes the working copy
	Cleanup() error
}
