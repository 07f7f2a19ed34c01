// Package semver implements the small slice of semantic versioning the
// module runtime needs: strict validation for manifests, lenient
// zero-filling parse for resolution, and caret/tilde/exact range checks.
package semver

import (
	"regexp"
	"strconv"
	"strings"
)

// Version is a parsed semantic version. Prerelease and build metadata
// are carried for display but ignored by range math.
type Version struct {
	Major      int
	Minor      int
	Patch      int
	Prerelease string
	Build      string
}

var strictPattern = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)(?:-([0-9A-Za-z.-]+))?(?:\+([0-9A-Za-z.-]+))?$`)

// IsValid reports whether s is a well-formed major.minor.patch version
// with optional prerelease/build suffix.
func IsValid(s string) bool {
	return strictPattern.MatchString(s)
}

// Parse parses a strict semantic version string.
func Parse(s string) (Version, bool) {
	m := strictPattern.FindStringSubmatch(s)
	if m == nil {
		return Version{}, false
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	patch, _ := strconv.Atoi(m[3])
	return Version{Major: major, Minor: minor, Patch: patch, Prerelease: m[4], Build: m[5]}, true
}

// ParseLenient parses a version string without failing: missing or
// malformed components become zero. Keeps dependency resolution total
// even when a registered module carries a sloppy version.
func ParseLenient(s string) Version {
	if v, ok := Parse(s); ok {
		return v
	}
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "-+"); i >= 0 {
		s = s[:i]
	}
	var v Version
	parts := strings.SplitN(s, ".", 3)
	nums := [3]*int{&v.Major, &v.Minor, &v.Patch}
	for i := 0; i < len(parts) && i < 3; i++ {
		if n, err := strconv.Atoi(strings.TrimSpace(parts[i])); err == nil && n >= 0 {
			*nums[i] = n
		}
	}
	return v
}

// Compare returns -1, 0 or 1 ordering v against o on the numeric
// components only.
func (v Version) Compare(o Version) int {
	for _, d := range [3]int{v.Major - o.Major, v.Minor - o.Minor, v.Patch - o.Patch} {
		if d < 0 {
			return -1
		}
		if d > 0 {
			return 1
		}
	}
	return 0
}

// Satisfies reports whether version meets the required range.
//
// Range grammar:
//   - "^x.y.z": same major, minor.patch at or above the requirement
//   - "~x.y.z": same major.minor, patch at or above the requirement
//   - "x.y.z": exact numeric match
func Satisfies(version, required string) bool {
	required = strings.TrimSpace(required)
	v := ParseLenient(version)

	switch {
	case strings.HasPrefix(required, "^"):
		r := ParseLenient(required[1:])
		if v.Major != r.Major {
			return false
		}
		if v.Minor != r.Minor {
			return v.Minor > r.Minor
		}
		return v.Patch >= r.Patch
	case strings.HasPrefix(required, "~"):
		r := ParseLenient(required[1:])
		return v.Major == r.Major && v.Minor == r.Minor && v.Patch >= r.Patch
	default:
		return v.Compare(ParseLenient(required)) == 0
	}
}
