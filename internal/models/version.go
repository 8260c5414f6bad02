package models

import (
	"fmt"
	"regexp"
)

// Version is an opaque MAJOR.MINOR.PATCH token (e.g. "6.9.67").
// No arithmetic semantics beyond exact substring match/replace.
type Version string

var versionPattern = regexp.MustCompile(`^[0-9]+\.[0-9]+\.[0-9]+$`)

// ParseVersion validates a version string before any mutation happens
func ParseVersion(s string) (Version, error) {
	if !versionPattern.MatchString(s) {
		return "", fmt.Errorf("invalid version %q: expected MAJOR.MINOR.PATCH", s)
	}
	return Version(s), nil
}

// IsValidVersion reports whether s has the MAJOR.MINOR.PATCH shape
func IsValidVersion(s string) bool {
	return versionPattern.MatchString(s)
}

func (v Version) String() string {
	return string(v)
}

// TagName returns the tag for this version (e.g. "v6.9.67")
func (v Version) TagName() string {
	return "v" + string(v)
}

// BranchName returns the release branch for this version given a prefix
// (e.g. "release/v" -> "release/v6.9.67")
func (v Version) BranchName(prefix string) string {
	return prefix + string(v)
}
