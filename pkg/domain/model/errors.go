package model

import "github.com/m-mizutani/goerr/v2"

// Error taxonomy of the release state machine. Every error produced by a
// collaborator or a phase carries exactly one of these tags.
var (
	// ErrTagRelease marks externally caused, recoverable failures (network,
	// API rejection, build failure). Caught at the cycle boundary.
	ErrTagRelease = goerr.NewTag("release")

	// ErrTagConfiguration marks a missing or invalid release policy. Aborts the
	// dependent phases of the current cycle only.
	ErrTagConfiguration = goerr.NewTag("configuration")

	// ErrTagValidation marks malformed version text. Only the offending
	// candidate is discarded.
	ErrTagValidation = goerr.NewTag("validation")

	// ErrTagRepository marks failures of the local working copy (clone, fetch,
	// checkout).
	ErrTagRepository = goerr.NewTag("repository")
)
