package model

import (
	"regexp"
	"strings"
)

// Intent is the outcome of matching an issue or pull request title
type Intent struct {
	// Matched is true when the title has the shape of a release request,
	// even if the requested version turned out to be invalid.
	Matched bool

	// Raw is the candidate version text taken from the title
	Raw string

	// Version is valid only when Matched is true and Err is nil
	Version Version

	// Err is set when the candidate text is not a semantic version
	Err error

	// Relative is true for "new major/minor/patch release", whose version
	// depends on the latest release at the time of matching
	Relative bool
}

// Valid reports whether the intent carries a usable version
func (x Intent) Valid() bool {
	return x.Matched && x.Err == nil
}

var releaseTitlePattern = regexp.MustCompile(`(?i)^(.+)\srelease$`)

// MatchReleaseTitle maps a free-text title to a requested version.
//
//   - "new major release", "new minor release" and "new patch release"
//     (any case) bump latest.
//   - "<version> release" requests <version> verbatim.
//
// Everything else does not match.
func MatchReleaseTitle(title string, latest Version) Intent {
	trimmed := strings.TrimSpace(title)

	switch strings.ToLower(trimmed) {
	case "new major release":
		next := latest.NextMajor()
		return Intent{Matched: true, Raw: next.String(), Version: next, Relative: true}
	case "new minor release":
		next := latest.NextMinor()
		return Intent{Matched: true, Raw: next.String(), Version: next, Relative: true}
	case "new patch release":
		next := latest.NextPatch()
		return Intent{Matched: true, Raw: next.String(), Version: next, Relative: true}
	}

	// The candidate keeps its case: pre-release identifiers compare
	// case-sensitively.
	m := releaseTitlePattern.FindStringSubmatch(trimmed)
	if m == nil {
		return Intent{}
	}

	raw := strings.TrimSpace(m[1])
	v, err := ParseVersion(raw)
	if err != nil {
		return Intent{Matched: true, Raw: raw, Err: err}
	}
	return Intent{Matched: true, Raw: raw, Version: v}
}
