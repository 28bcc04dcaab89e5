package domain

import (
	"github.com/Masterminds/semver/v3"
)

// Version is a semantic version as found in tags and package manifests.
type Version struct {
	*semver.Version
}

// NewVersion parses s, accepting an optional v prefix.
func NewVersion(s string) (*Version, error) {
	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, err
	}
	return &Version{v}, nil
}

// Bump returns the version that follows v for a release of type rt.
// ReleaseTypeNone returns v itself.
func (v *Version) Bump(rt ReleaseType) *Version {
	var next semver.Version
	switch rt {
	case ReleaseTypeMajor:
		next = v.IncMajor()
	case ReleaseTypeMinor:
		next = v.IncMinor()
	case ReleaseTypePatch:
		next = v.IncPatch()
	default:
		return v
	}
	return &Version{&next}
}

func (v *Version) Compare(other *Version) int {
	return v.Version.Compare(other.Version)
}

// String returns the version with a v prefix.
func (v *Version) String() string {
	return "v" + v.Version.String()
}

// Plain returns the version without prefix, as substituted into templates.
func (v *Version) Plain() string {
	return v.Version.String()
}
