package plugin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReleaseNotesGenerator_GenerateNotes(t *testing.T) {
	t.Run("Should group commits and link the comparison", func(t *testing.T) {
		p, err := NewReleaseNotesGenerator(nil)
		require.NoError(t, err)
		rc := newTestContext("1.1.0")
		rc.GitHub = new(mockGithubRepo)
		rc.LastRelease = lastRelease("1.0.0")
		rc.Commits = commits("feat(ui): dark mode", "fix: crash on start", "chore: deps")
		notes, err := p.(NotesGenerator).GenerateNotes(context.Background(), rc)
		require.NoError(t, err)
		assert.Equal(t, "## [1.1.0](https://github.com/halkeye/gloss/compare/v1.0.0...v1.1.0) (2026-10-16)\n"+
			"\n### Features\n\n"+
			"* **ui:** dark mode ([abcdef0](https://github.com/halkeye/gloss/commit/abcdef0123456789))\n"+
			"\n### Bug Fixes\n\n"+
			"* crash on start ([abcdef0](https://github.com/halkeye/gloss/commit/abcdef0123456789))", notes)
	})
	t.Run("Should list breaking changes without links for the first release", func(t *testing.T) {
		p, err := NewReleaseNotesGenerator(map[string]any{"linkReferences": false})
		require.NoError(t, err)
		rc := newTestContext("1.0.0")
		rc.Commits = commits("feat!: new config format")
		notes, err := p.(NotesGenerator).GenerateNotes(context.Background(), rc)
		require.NoError(t, err)
		assert.Contains(t, notes, "## 1.0.0 (2026-10-16)")
		assert.Contains(t, notes, "### ⚠ BREAKING CHANGES\n\n* new config format\n")
		assert.Contains(t, notes, "* new config format (abcdef0)")
	})
}
