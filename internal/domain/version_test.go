package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVersion(t *testing.T) {
	t.Run("Should parse versions with and without prefix", func(t *testing.T) {
		for _, input := range []string{"1.2.3", "v1.2.3"} {
			version, err := NewVersion(input)
			require.NoError(t, err)
			assert.Equal(t, "1.2.3", version.Plain())
			assert.Equal(t, "v1.2.3", version.String())
		}
	})
	t.Run("Should keep prerelease and build metadata", func(t *testing.T) {
		version, err := NewVersion("1.2.3-beta.1+build123")
		require.NoError(t, err)
		assert.Equal(t, "1.2.3-beta.1+build123", version.Plain())
	})
	t.Run("Should reject garbage", func(t *testing.T) {
		version, err := NewVersion("invalid")
		assert.Error(t, err)
		assert.Nil(t, version)
	})
}

func TestVersion_Bump(t *testing.T) {
	cases := []struct {
		from string
		rt   ReleaseType
		want string
	}{
		{"1.2.3", ReleaseTypeMajor, "2.0.0"},
		{"1.5.8", ReleaseTypeMajor, "2.0.0"},
		{"1.2.3", ReleaseTypeMinor, "1.3.0"},
		{"0.9.9", ReleaseTypeMinor, "0.10.0"},
		{"1.2.3", ReleaseTypePatch, "1.2.4"},
		{"1.2.3", ReleaseTypeNone, "1.2.3"},
	}
	for _, tc := range cases {
		t.Run("Should bump "+tc.from+" to "+tc.want, func(t *testing.T) {
			version, err := NewVersion(tc.from)
			require.NoError(t, err)
			assert.Equal(t, tc.want, version.Bump(tc.rt).Plain())
		})
	}
	t.Run("Should not mutate the receiver", func(t *testing.T) {
		version, err := NewVersion("1.2.3")
		require.NoError(t, err)
		version.Bump(ReleaseTypeMajor)
		assert.Equal(t, "1.2.3", version.Plain())
	})
}

func TestVersion_Compare(t *testing.T) {
	t.Run("Should order by precedence", func(t *testing.T) {
		parse := func(s string) *Version {
			v, err := NewVersion(s)
			require.NoError(t, err)
			return v
		}
		assert.Equal(t, -1, parse("1.2.3").Compare(parse("1.2.4")))
		assert.Equal(t, 1, parse("2.0.0").Compare(parse("1.9.9")))
		assert.Equal(t, 0, parse("v1.2.3").Compare(parse("1.2.3")))
		assert.Equal(t, -1, parse("1.0.0-rc.1").Compare(parse("1.0.0")))
	})
}
