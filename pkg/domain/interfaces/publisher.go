package interfaces

import (
	"context"

	"github.com/m-mizutani/releasebot/pkg/domain/model"
)

// PackageIndex publishes the current checkout to a package index
type PackageIndex interface {
	// LatestVersion returns the newest version on the index, or an empty
	// string when the project is not published yet
	LatestVersion(ctx context.Context) (string, error)

	// Release builds and uploads the checkout in dir and returns the paths of
	// the uploaded artifacts
	Release(ctx context.Context, dir string) ([]string, error)
}

// DownstreamTrigger starts downstream packaging of a release
type DownstreamTrigger interface {
	// Release reports whether every requested build succeeded
	Release(ctx context.Context, req *model.ReleaseRequest) (bool, error)

	// Builds lists the branches built by the last Release call
	Builds() []string
}

// ArtifactArchive keeps a copy of published artifacts
type ArtifactArchive interface {
	Store(ctx context.Context, version model.Version, files []string) error
}

// ReleaseNotes drafts the body of a release from commit subjects
type ReleaseNotes interface {
	Generate(ctx context.Context, req *model.ReleaseRequest, commits []string) (string, error)
}
