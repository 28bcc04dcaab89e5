package pipeline

// Identifiers of the built-in plugins.
const (
	PluginCommitAnalyzer = "@semantic-release/commit-analyzer"
	PluginReleaseNotes   = "@semantic-release/release-notes-generator"
	PluginChangelog      = "@semantic-release/changelog"
	PluginReplace        = "semantic-release-replace-plugin"
	PluginGit            = "@semantic-release/git"
	PluginGithub         = "@semantic-release/github"
	PluginNpm            = "@semantic-release/npm"
	PluginGitCliff       = "git-cliff"
	PluginGoReleaser     = "goreleaser"
)

// DefaultChangelogFile is written by the changelog plugin when no
// changelogFile option is given.
const DefaultChangelogFile = "CHANGELOG.md"

// DefaultGitAssets are committed by the git plugin when no assets option is
// given.
var DefaultGitAssets = []string{"CHANGELOG.md", "package.json", "package-lock.json", "npm-shrinkwrap.json"}

// DefaultBranches are the release branches used when none are configured.
var DefaultBranches = []string{"main", "master"}

// DefaultPlugins is the pipeline used when a configuration omits plugins.
var DefaultPlugins = []string{
	PluginCommitAnalyzer,
	PluginReleaseNotes,
	PluginGithub,
}
