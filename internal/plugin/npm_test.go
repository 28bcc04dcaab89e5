package plugin

import (
	"context"
	"testing"

	"github.com/compozy/releasepipe/internal/service"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const packageJSON = `{
  "name": "gloss-web",
  "version": "0.1.0",
  "private": false,
  "scripts": {
    "build": "vite build"
  },
  "dependencies": {
    "react": "^18.0.0"
  }
}
`

func TestNpm_Prepare(t *testing.T) {
	t.Run("Should update only the version field", func(t *testing.T) {
		p, err := NewNpm(map[string]any{"npmPublish": false, "pkgRoot": "./web"})
		require.NoError(t, err)
		rc := newTestContext("1.2.0")
		require.NoError(t, afero.WriteFile(rc.FS, "web/package.json", []byte(packageJSON), 0o644))
		require.NoError(t, p.(ConditionVerifier).VerifyConditions(context.Background(), rc))
		require.NoError(t, p.(Preparer).Prepare(context.Background(), rc))
		data, err := afero.ReadFile(rc.FS, "web/package.json")
		require.NoError(t, err)
		want := `{
  "name": "gloss-web",
  "version": "1.2.0",
  "private": false,
  "scripts": {
    "build": "vite build"
  },
  "dependencies": {
    "react": "^18.0.0"
  }
}
`
		assert.Equal(t, want, string(data))
		assert.Equal(t, []string{"web/package.json"}, rc.Changes.Files)
	})
	t.Run("Should fail without package.json", func(t *testing.T) {
		p, err := NewNpm(nil)
		require.NoError(t, err)
		err = p.(ConditionVerifier).VerifyConditions(context.Background(), newTestContext(""))
		assert.ErrorContains(t, err, "package.json")
	})
}

func TestNpm_Publish(t *testing.T) {
	t.Run("Should require a token when publishing", func(t *testing.T) {
		p, err := NewNpm(nil)
		require.NoError(t, err)
		rc := newTestContext("1.2.0")
		require.NoError(t, afero.WriteFile(rc.FS, "package.json", []byte(packageJSON), 0o644))
		err = p.(ConditionVerifier).VerifyConditions(context.Background(), rc)
		assert.ErrorIs(t, err, ErrNpmTokenRequired)
	})
	t.Run("Should publish from the package root of the project filesystem", func(t *testing.T) {
		t.Setenv("NODE_AUTH_TOKEN", "")
		p, err := NewNpm(map[string]any{"pkgRoot": "./web", "distTag": "next"})
		require.NoError(t, err)
		runner := new(mockRunner)
		rc := newTestContext("1.2.0")
		rc.Runner = runner
		rc.Credentials.NpmToken = "secret"
		require.NoError(t, afero.WriteFile(rc.FS, "web/package.json", []byte(`{"name":"gloss-web","version":"1.1.0"}`), 0o644))
		runner.On("Run", mock.Anything, mock.MatchedBy(func(c service.Command) bool {
			return c.Name == "npm" && c.Dir == "web" &&
				assert.ObjectsAreEqual([]string{"publish", "--access", "public", "--tag", "next"}, c.Args)
		})).Return(nil, nil).Once()
		require.NoError(t, p.(ConditionVerifier).VerifyConditions(context.Background(), rc))

		rel, err := p.(Publisher).Publish(context.Background(), rc)

		require.NoError(t, err)
		require.NotNil(t, rel)
		assert.Equal(t, "https://www.npmjs.com/package/gloss-web/v/1.2.0", rel.URL)
		runner.AssertExpectations(t)
	})
	t.Run("Should skip private packages", func(t *testing.T) {
		p, err := NewNpm(nil)
		require.NoError(t, err)
		runner := new(mockRunner)
		rc := newTestContext("1.2.0")
		rc.Runner = runner
		require.NoError(t, afero.WriteFile(rc.FS, "package.json", []byte(`{"name":"x","version":"0.0.0","private":true}`), 0o644))
		require.NoError(t, p.(ConditionVerifier).VerifyConditions(context.Background(), rc))
		rel, err := p.(Publisher).Publish(context.Background(), rc)
		require.NoError(t, err)
		assert.Nil(t, rel)
		runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
	})
}

func TestGitCliff(t *testing.T) {
	t.Run("Should generate notes from the last release tag", func(t *testing.T) {
		p, err := NewGitCliff(map[string]any{"config": "cliff.toml"})
		require.NoError(t, err)
		runner := new(mockRunner)
		rc := newTestContext("1.2.0")
		rc.Runner = runner
		rc.LastRelease = lastRelease("1.1.0")
		require.NoError(t, afero.WriteFile(rc.FS, "cliff.toml", []byte("[changelog]"), 0o644))
		runner.On("Run", mock.Anything, mock.MatchedBy(func(c service.Command) bool {
			return c.Name == "git-cliff" && assert.ObjectsAreEqual(
				[]string{"--config", "cliff.toml", "--tag", "v1.2.0", "--strip", "all", "v1.1.0..HEAD"}, c.Args)
		})).Return([]byte("### Features\n- thing\n"), nil)
		require.NoError(t, p.(ConditionVerifier).VerifyConditions(context.Background(), rc))
		notes, err := p.(NotesGenerator).GenerateNotes(context.Background(), rc)
		require.NoError(t, err)
		assert.Equal(t, "### Features\n- thing", notes)
	})
	t.Run("Should derive the release type from the bumped version", func(t *testing.T) {
		p, err := NewGitCliff(map[string]any{"analyze": true})
		require.NoError(t, err)
		runner := new(mockRunner)
		rc := newTestContext("")
		rc.Runner = runner
		rc.LastRelease = lastRelease("1.1.3")
		runner.On("Run", mock.Anything, mock.Anything).Return([]byte("v1.2.0"), nil)
		rt, err := p.(CommitAnalyzer).AnalyzeCommits(context.Background(), rc)
		require.NoError(t, err)
		assert.Equal(t, "minor", string(rt))
	})
	t.Run("Should not analyze unless asked", func(t *testing.T) {
		p, err := NewGitCliff(nil)
		require.NoError(t, err)
		rt, err := p.(CommitAnalyzer).AnalyzeCommits(context.Background(), newTestContext(""))
		require.NoError(t, err)
		assert.Empty(t, rt)
	})
}

func TestGoReleaser_Publish(t *testing.T) {
	t.Run("Should run goreleaser with the github token", func(t *testing.T) {
		p, err := NewGoReleaser(nil)
		require.NoError(t, err)
		runner := new(mockRunner)
		rc := newTestContext("1.2.0")
		rc.Runner = runner
		rc.Credentials.GithubToken = "tok"
		runner.On("Run", mock.Anything, mock.MatchedBy(func(c service.Command) bool {
			return c.Name == "goreleaser" &&
				assert.ObjectsAreEqual([]string{"release", "--clean"}, c.Args) &&
				assert.ObjectsAreEqual([]string{"GITHUB_TOKEN=tok"}, c.Env)
		})).Return(nil, nil)
		rel, err := p.(Publisher).Publish(context.Background(), rc)
		require.NoError(t, err)
		assert.Nil(t, rel)
		runner.AssertExpectations(t)
	})
}
