package storage

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"

	"cloud.google.com/go/storage"
	"github.com/dustin/go-humanize"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/releasebot/pkg/domain/interfaces"
	"github.com/m-mizutani/releasebot/pkg/domain/model"
	"google.golang.org/api/option"
)

// Archive copies published artifacts to a Cloud Storage bucket as
// <prefix>/<version>/<file name>
type Archive struct {
	client *storage.Client
	bucket string
	prefix string
}

var _ interfaces.ArtifactArchive = (*Archive)(nil)

// New creates an Archive for bucket. Objects are put under prefix when it is
// not empty.
func New(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*Archive, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Cloud Storage client", goerr.V("bucket", bucket))
	}
	return &Archive{client: client, bucket: bucket, prefix: prefix}, nil
}

// ObjectName returns the object the file of version is stored as
func (x *Archive) ObjectName(version model.Version, file string) string {
	return path.Join(x.prefix, version.String(), filepath.Base(file))
}

// Store implements interfaces.ArtifactArchive
func (x *Archive) Store(ctx context.Context, version model.Version, files []string) error {
	logger := ctxlog.From(ctx)

	for _, file := range files {
		name := x.ObjectName(version, file)
		size, err := x.upload(ctx, name, file)
		if err != nil {
			return err
		}
		logger.Info("Archived artifact",
			"bucket", x.bucket,
			"object", name,
			"size", humanize.Bytes(uint64(size)),
		)
	}
	return nil
}

func (x *Archive) upload(ctx context.Context, name, file string) (int64, error) {
	f, err := os.Open(filepath.Clean(file))
	if err != nil {
		return 0, goerr.Wrap(err, "failed to open artifact", goerr.V("file", file))
	}
	defer f.Close()

	w := x.client.Bucket(x.bucket).Object(name).NewWriter(ctx)
	w.ContentType = "application/octet-stream"

	size, err := io.Copy(w, f)
	if err != nil {
		_ = w.Close()
		return 0, goerr.Wrap(err, "failed to write artifact",
			goerr.V("bucket", x.bucket),
			goerr.V("object", name))
	}
	if err := w.Close(); err != nil {
		return 0, goerr.Wrap(err, "failed to finish artifact upload",
			goerr.V("bucket", x.bucket),
			goerr.V("object", name))
	}
	return size, nil
}

// Close releases the Cloud Storage client
func (x *Archive) Close() error {
	if err := x.client.Close(); err != nil {
		return goerr.Wrap(err, "failed to close Cloud Storage client")
	}
	return nil
}
