package config

import (
	"context"

	"github.com/m-mizutani/releasebot/pkg/infra/firestore"
	"github.com/m-mizutani/releasebot/pkg/infra/storage"
	"github.com/urfave/cli/v3"
	"google.golang.org/api/option"
)

// Firestore holds journal configuration
type Firestore struct {
	ProjectID  string
	DatabaseID string
	Collection string
}

// Flags returns CLI flags for Firestore configuration
func (c *Firestore) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Google Cloud project of the journal; an in-memory journal is used when empty",
			Destination: &c.ProjectID,
			Sources:     cli.EnvVars("RELEASEBOT_FIRESTORE_PROJECT_ID"),
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Destination: &c.DatabaseID,
			Sources:     cli.EnvVars("RELEASEBOT_FIRESTORE_DATABASE_ID"),
		},
		&cli.StringFlag{
			Name:        "firestore-collection",
			Usage:       "Firestore collection of journal entries",
			Value:       firestore.DefaultCollection,
			Destination: &c.Collection,
			Sources:     cli.EnvVars("RELEASEBOT_FIRESTORE_COLLECTION"),
		},
	}
}

// Enabled reports whether a project is configured
func (c *Firestore) Enabled() bool {
	return c.ProjectID != ""
}

// NewJournal connects to Firestore
func (c *Firestore) NewJournal(ctx context.Context) (*firestore.Journal, error) {
	return firestore.New(ctx, c.ProjectID, c.DatabaseID, c.Collection)
}

// Storage holds artifact archive configuration
type Storage struct {
	Bucket          string
	Prefix          string
	CredentialsFile string
}

// Flags returns CLI flags for Cloud Storage configuration
func (c *Storage) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "storage-bucket",
			Usage:       "Cloud Storage bucket keeping published artifacts; archiving is disabled when empty",
			Destination: &c.Bucket,
			Sources:     cli.EnvVars("RELEASEBOT_STORAGE_BUCKET"),
		},
		&cli.StringFlag{
			Name:        "storage-prefix",
			Usage:       "Object name prefix in the bucket",
			Destination: &c.Prefix,
			Sources:     cli.EnvVars("RELEASEBOT_STORAGE_PREFIX"),
		},
		&cli.StringFlag{
			Name:        "storage-credentials",
			Usage:       "Service account key file; application default credentials are used when empty",
			Destination: &c.CredentialsFile,
			Sources:     cli.EnvVars("RELEASEBOT_STORAGE_CREDENTIALS"),
		},
	}
}

// Enabled reports whether a bucket is configured
func (c *Storage) Enabled() bool {
	return c.Bucket != ""
}

// NewArchive connects to Cloud Storage
func (c *Storage) NewArchive(ctx context.Context) (*storage.Archive, error) {
	var opts []option.ClientOption
	if c.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(c.CredentialsFile))
	}
	return storage.New(ctx, c.Bucket, c.Prefix, opts...)
}
