package domain

import "time"

// ReleaseType is the kind of version increment a set of commits requires.
type ReleaseType string

const (
	ReleaseTypeNone  ReleaseType = ""
	ReleaseTypePatch ReleaseType = "patch"
	ReleaseTypeMinor ReleaseType = "minor"
	ReleaseTypeMajor ReleaseType = "major"
)

var releaseTypeRank = map[ReleaseType]int{
	ReleaseTypeNone:  0,
	ReleaseTypePatch: 1,
	ReleaseTypeMinor: 2,
	ReleaseTypeMajor: 3,
}

// ParseReleaseType converts a configuration value into a ReleaseType.
// Unknown values report ok=false.
func ParseReleaseType(s string) (ReleaseType, bool) {
	rt := ReleaseType(s)
	if s == "false" {
		return ReleaseTypeNone, true
	}
	_, ok := releaseTypeRank[rt]
	return rt, ok
}

// Higher returns whichever of the two release types causes the larger bump.
func (rt ReleaseType) Higher(other ReleaseType) ReleaseType {
	if releaseTypeRank[other] > releaseTypeRank[rt] {
		return other
	}
	return rt
}

// Commit is a single commit considered for a release.
type Commit struct {
	Hash    string
	Message string
	Author  string
	Date    time.Time
}

// Subject returns the first line of the commit message.
func (c Commit) Subject() string {
	for i := 0; i < len(c.Message); i++ {
		if c.Message[i] == '\n' {
			return c.Message[:i]
		}
	}
	return c.Message
}

// LastRelease describes the most recent release reachable from HEAD.
type LastRelease struct {
	Version *Version
	GitTag  string
	GitHead string
}

// NextRelease holds all metadata related to the release being made.
type NextRelease struct {
	Type    ReleaseType
	Version *Version
	GitTag  string
	GitHead string
	Notes   string
}

// PublishedRelease is reported by a publishing plugin.
type PublishedRelease struct {
	Plugin string
	Name   string
	URL    string
	ID     int64
}
