package plugin

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangelog_Prepare(t *testing.T) {
	t.Run("Should create the changelog with a title", func(t *testing.T) {
		p, err := NewChangelog(map[string]any{"changelogTitle": "# Changelog"})
		require.NoError(t, err)
		rc := newTestContext("1.0.0")
		require.NoError(t, p.(Preparer).Prepare(context.Background(), rc))
		data, err := afero.ReadFile(rc.FS, "CHANGELOG.md")
		require.NoError(t, err)
		assert.Equal(t, "# Changelog\n\n### Features\n\n* thing\n", string(data))
		assert.Equal(t, []string{"CHANGELOG.md"}, rc.Changes.Files)
	})
	t.Run("Should prepend notes below the existing title", func(t *testing.T) {
		p, err := NewChangelog(map[string]any{"changelogFile": "docs/HISTORY.md", "changelogTitle": "# History"})
		require.NoError(t, err)
		rc := newTestContext("1.1.0")
		require.NoError(t, afero.WriteFile(rc.FS, "docs/HISTORY.md", []byte("# History\n\n## 1.0.0\n\nfirst\n"), 0o644))
		require.NoError(t, p.(Preparer).Prepare(context.Background(), rc))
		data, err := afero.ReadFile(rc.FS, "docs/HISTORY.md")
		require.NoError(t, err)
		assert.Equal(t, "# History\n\n### Features\n\n* thing\n\n## 1.0.0\n\nfirst\n", string(data))
	})
	t.Run("Should skip writing without notes", func(t *testing.T) {
		p, err := NewChangelog(nil)
		require.NoError(t, err)
		rc := newTestContext("1.0.0")
		rc.NextRelease.Notes = ""
		require.NoError(t, p.(Preparer).Prepare(context.Background(), rc))
		exists, err := afero.Exists(rc.FS, "CHANGELOG.md")
		require.NoError(t, err)
		assert.False(t, exists)
	})
	t.Run("Should reject paths outside the repository", func(t *testing.T) {
		p, err := NewChangelog(map[string]any{"changelogFile": "../CHANGELOG.md"})
		require.NoError(t, err)
		assert.Error(t, p.(ConditionVerifier).VerifyConditions(context.Background(), newTestContext("")))
	})
}
