package github

import (
	"os"
	"path/filepath"
	"regexp"
	"slices"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/releasebot/pkg/domain/model"
)

// versionAssignment matches `__version__ = "1.2.3"` in Python modules and
// `version = "1.2.3"` or `version="1.2.3",` in setup.py and pyproject.toml
var versionAssignment = regexp.MustCompile(`(?m)^(\s*(?:__version__|version)\s*=\s*)(["'])[^"'\n]*(["'])`)

// bumpVersionFiles rewrites the version assignment in every file under dir
// matching one of patterns and returns the relative paths that changed
func bumpVersionFiles(dir string, patterns []string, version model.Version) ([]string, error) {
	var changed []string

	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, goerr.Wrap(err, "invalid version file pattern", goerr.V("pattern", pattern))
		}

		for _, path := range matches {
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to resolve version file", goerr.V("path", path))
			}
			if slices.Contains(changed, rel) {
				continue
			}

			ok, err := bumpVersionFile(path, version)
			if err != nil {
				return nil, err
			}
			if ok {
				changed = append(changed, rel)
			}
		}
	}

	return changed, nil
}

func bumpVersionFile(path string, version model.Version) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, goerr.Wrap(err, "failed to stat version file", goerr.V("path", path))
	}
	if info.IsDir() {
		return false, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false, goerr.Wrap(err, "failed to read version file", goerr.V("path", path))
	}

	updated := versionAssignment.ReplaceAll(data, []byte("${1}${2}"+version.String()+"${3}"))
	if string(updated) == string(data) {
		return false, nil
	}

	if err := os.WriteFile(path, updated, info.Mode().Perm()); err != nil {
		return false, goerr.Wrap(err, "failed to write version file", goerr.V("path", path))
	}
	return true, nil
}
