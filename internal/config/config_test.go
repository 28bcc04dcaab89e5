package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/stretchr/testify/require"
)

func TestPopulateRepositoryDefaultsUsesEnvSlug(t *testing.T) {
	t.Setenv("GITHUB_REPOSITORY", "acme/widgets")
	t.Setenv("GITHUB_REPOSITORY_OWNER", "")
	t.Setenv("GITHUB_REPOSITORY_NAME", "")
	cfg := Config{}
	err := populateRepositoryDefaults(&cfg)
	require.NoError(t, err)
	require.Equal(t, "acme", cfg.GithubOwner)
	require.Equal(t, "widgets", cfg.GithubRepo)
}

func TestPopulateRepositoryDefaultsFallsBackToGitRemote(t *testing.T) {
	t.Setenv("GITHUB_REPOSITORY", "")
	t.Setenv("GITHUB_REPOSITORY_OWNER", "")
	t.Setenv("GITHUB_REPOSITORY_NAME", "")
	tmp := t.TempDir()
	repo, err := git.PlainInit(tmp, false)
	require.NoError(t, err)
	_, err = repo.CreateRemote(
		&gitconfig.RemoteConfig{Name: "origin", URLs: []string{"git@github.com:octo/widget.git"}},
	)
	require.NoError(t, err)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmp))
	t.Cleanup(func() { require.NoError(t, os.Chdir(wd)) })
	cfg := Config{}
	err = populateRepositoryDefaults(&cfg)
	require.NoError(t, err)
	require.Equal(t, "octo", cfg.GithubOwner)
	require.Equal(t, "widget", cfg.GithubRepo)
}

func TestParseGitRemoteURL(t *testing.T) {
	cases := []struct {
		name      string
		url       string
		wantOwner string
		wantRepo  string
	}{
		{name: "https clone", url: "https://github.com/org/project.git", wantOwner: "org", wantRepo: "project"},
		{name: "ssh", url: "git@github.com:org/project.git", wantOwner: "org", wantRepo: "project"},
		{name: "ssh without suffix", url: "git@github.com:org/project", wantOwner: "org", wantRepo: "project"},
		{name: "file path", url: filepath.Join("tmp", "org", "project"), wantOwner: "org", wantRepo: "project"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			owner, repo, err := parseGitRemoteURL(tc.url)
			require.NoError(t, err)
			require.Equal(t, tc.wantOwner, owner)
			require.Equal(t, tc.wantRepo, repo)
		})
	}
}

func TestLoadConfigReadsEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	token := "ghs_" + strings.Repeat("a", 36)
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GH_TOKEN", token)
	t.Setenv("NPM_TOKEN", "npm-secret")
	t.Setenv("GITHUB_REPOSITORY", "halkeye/gloss")
	t.Setenv("GITHUB_REPOSITORY_OWNER", "")
	t.Setenv("GITHUB_REPOSITORY_NAME", "")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, token, cfg.GithubToken)
	require.Equal(t, "npm-secret", cfg.NpmToken)
	require.Equal(t, "halkeye", cfg.GithubOwner)
	require.Equal(t, "gloss", cfg.GithubRepo)
}

func TestLoadConfigReadsFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GH_TOKEN", "")
	t.Setenv("GITHUB_REPOSITORY", "")
	t.Setenv("GITHUB_REPOSITORY_OWNER", "")
	t.Setenv("GITHUB_REPOSITORY_NAME", "")
	content := "github_owner: octo\ngithub_repo: widget\ninitial_version: 0.1.0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".releasepipe.yaml"), []byte(content), 0o600))
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "octo", cfg.GithubOwner)
	require.Equal(t, "widget", cfg.GithubRepo)
	require.Equal(t, "0.1.0", cfg.InitialVersion)
}

func TestLoadConfigRejectsMalformedToken(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GITHUB_TOKEN", "not-a-token")
	t.Setenv("GITHUB_REPOSITORY", "halkeye/gloss")
	_, err := LoadConfig()
	require.ErrorContains(t, err, "invalid github_token")
}

func TestValidateAllowsUnknownRepository(t *testing.T) {
	cfg := Config{}
	require.NoError(t, cfg.Validate())
	require.Error(t, cfg.ValidateForGitHubOperations())
	cfg.GithubOwner = "octo"
	require.ErrorContains(t, cfg.Validate(), "repository cannot be empty")
}

func TestParseGitRemoteURLRejectsHostOnly(t *testing.T) {
	_, _, err := parseGitRemoteURL("https://github.com")
	require.Error(t, err)
}
