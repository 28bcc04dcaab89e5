package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReleaseType_Higher(t *testing.T) {
	t.Run("Should keep the larger bump", func(t *testing.T) {
		assert.Equal(t, ReleaseTypeMinor, ReleaseTypePatch.Higher(ReleaseTypeMinor))
		assert.Equal(t, ReleaseTypeMajor, ReleaseTypeMajor.Higher(ReleaseTypePatch))
		assert.Equal(t, ReleaseTypePatch, ReleaseTypeNone.Higher(ReleaseTypePatch))
		assert.Equal(t, ReleaseTypeNone, ReleaseTypeNone.Higher(ReleaseTypeNone))
	})
}

func TestParseReleaseType(t *testing.T) {
	t.Run("Should accept known types", func(t *testing.T) {
		for _, s := range []string{"major", "minor", "patch"} {
			rt, ok := ParseReleaseType(s)
			assert.True(t, ok)
			assert.Equal(t, ReleaseType(s), rt)
		}
	})
	t.Run("Should treat false as no release", func(t *testing.T) {
		rt, ok := ParseReleaseType("false")
		assert.True(t, ok)
		assert.Equal(t, ReleaseTypeNone, rt)
	})
	t.Run("Should reject unknown types", func(t *testing.T) {
		_, ok := ParseReleaseType("huge")
		assert.False(t, ok)
	})
}

func TestCommit_Subject(t *testing.T) {
	assert.Equal(t, "feat: add search", Commit{Message: "feat: add search\n\nbody"}.Subject())
	assert.Equal(t, "fix: typo", Commit{Message: "fix: typo"}.Subject())
}
