package model

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	pep440 "github.com/aquasecurity/go-pep440-version"
	"github.com/m-mizutani/goerr/v2"
)

// Version is a semantic version (major.minor.patch[-pre][+build])
type Version struct {
	v semver.Version
}

// ParseVersion parses text strictly against the semantic version grammar.
// A leading "v" and partial versions such as "1.2" are rejected.
func ParseVersion(text string) (Version, error) {
	v, err := semver.StrictNewVersion(strings.TrimSpace(text))
	if err != nil {
		return Version{}, goerr.Wrap(err, "invalid semantic version",
			goerr.V("text", text),
			goerr.T(ErrTagValidation),
		)
	}
	return Version{v: *v}, nil
}

// MustParseVersion is ParseVersion for constants and tests; it panics on error
func MustParseVersion(text string) Version {
	v, err := ParseVersion(text)
	if err != nil {
		panic(err)
	}
	return v
}

// CoerceVersion parses a version reported by an external system, such as a
// release tag ("v1.2.3") or a package index entry ("1.2", "2.0.0rc1",
// "1.0.0.post1"). An empty string means nothing has been released yet and
// yields 0.0.0.
func CoerceVersion(text string) (Version, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(strings.TrimPrefix(text, "v"), "V")
	if text == "" {
		return Version{}, nil
	}

	v, err := semver.NewVersion(text)
	if err == nil {
		return Version{v: *v}, nil
	}

	if normalized, ok := normalizePEP440(text); ok {
		if nv, nerr := semver.NewVersion(normalized); nerr == nil {
			return Version{v: *nv}, nil
		}
	}

	return Version{}, goerr.Wrap(err, "failed to coerce version",
		goerr.V("text", text),
		goerr.T(ErrTagValidation),
	)
}

var pep440PreLabels = map[string]string{
	"a":  "alpha",
	"b":  "beta",
	"rc": "rc",
}

// normalizePEP440 rewrites a Python package version into semantic version
// syntax. Pre-releases and dev releases become pre-release identifiers
// ("2.0.0rc1" -> "2.0.0-rc.1"), post releases and local versions become
// build metadata ("1.0.0.post1" -> "1.0.0+post.1"). Release segments beyond
// major.minor.patch are kept as build metadata too. Versions with an epoch
// have no semantic version equivalent.
func normalizePEP440(text string) (string, bool) {
	v, err := pep440.Parse(text)
	if err != nil {
		return "", false
	}

	base := v.BaseVersion()
	if strings.Contains(base, "!") {
		return "", false
	}

	segments := strings.Split(base, ".")
	release := []string{"0", "0", "0"}
	copy(release, segments)

	// The canonical public form is <base>[{a|b|rc}N][.postN][.devN]
	suffix := strings.TrimPrefix(v.Public(), base)
	suffix, dev, hasDev := strings.Cut(suffix, ".dev")
	suffix, post, hasPost := strings.Cut(suffix, ".post")

	var pre, build []string
	if suffix != "" {
		label := strings.TrimRight(suffix, "0123456789")
		name, ok := pep440PreLabels[label]
		if !ok {
			return "", false
		}
		pre = append(pre, name, suffix[len(label):])
	}
	if hasDev {
		pre = append(pre, "dev", dev)
	}

	if len(segments) > 3 {
		build = append(build, "segments")
		build = append(build, segments[3:]...)
	}
	if hasPost {
		build = append(build, "post", post)
	}
	if local := v.Local(); local != "" {
		build = append(build, strings.FieldsFunc(strings.ToLower(local), func(r rune) bool {
			return r == '-' || r == '_' || r == '.'
		})...)
	}

	normalized := strings.Join(release, ".")
	if len(pre) > 0 {
		normalized += "-" + strings.Join(pre, ".")
	}
	if len(build) > 0 {
		normalized += "+" + strings.Join(build, ".")
	}
	return normalized, true
}

// String returns the canonical form without a "v" prefix
func (x Version) String() string {
	return x.v.String()
}

// Prerelease returns the pre-release part, e.g. "rc.1", or an empty string
func (x Version) Prerelease() string {
	return x.v.Prerelease()
}

// Compare returns -1, 0 or 1 when x is less than, equal to or greater than y.
// Build metadata is ignored.
func (x Version) Compare(y Version) int {
	return x.v.Compare(&y.v)
}

// LessThan reports whether x < y
func (x Version) LessThan(y Version) bool {
	return x.Compare(y) < 0
}

// Equal reports whether x and y have the same precedence
func (x Version) Equal(y Version) bool {
	return x.Compare(y) == 0
}

// IsZero reports whether x is 0.0.0 without pre-release
func (x Version) IsZero() bool {
	return x.Equal(Version{})
}

// NextMajor returns the next major version; lower components are reset and
// pre-release and build metadata are cleared.
func (x Version) NextMajor() Version {
	return Version{v: x.v.IncMajor()}
}

// NextMinor returns the next minor version
func (x Version) NextMinor() Version {
	return Version{v: x.v.IncMinor()}
}

// NextPatch returns the next patch version. A pre-release of the same
// major.minor.patch is promoted to its release instead.
func (x Version) NextPatch() Version {
	return Version{v: x.v.IncPatch()}
}

// IsReleased is the idempotence guard used before every externally visible
// action: candidate counts as released unless it is strictly greater than
// latest.
func IsReleased(latest, candidate Version) bool {
	return latest.Compare(candidate) >= 0
}
