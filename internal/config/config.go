package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/spf13/viper"
)

// Config holds the application settings. Pipeline steps live in the
// release configuration file, not here.
type Config struct {
	GithubToken    string `mapstructure:"github_token"`
	GithubOwner    string `mapstructure:"github_owner"`
	GithubRepo     string `mapstructure:"github_repo"`
	NpmToken       string `mapstructure:"npm_token"`
	InitialVersion string `mapstructure:"initial_version"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// GitHub token is optional - only validate if provided
	if c.GithubToken != "" {
		if err := ValidateGitHubToken(c.GithubToken); err != nil {
			return fmt.Errorf("invalid github_token: %w", err)
		}
	}
	// An unknown repository only disables GitHub features
	if c.GithubOwner != "" || c.GithubRepo != "" {
		if err := ValidateGitHubOwnerRepo(c.GithubOwner, c.GithubRepo); err != nil {
			return fmt.Errorf("invalid github configuration: %w", err)
		}
	}
	return nil
}

// ValidateForGitHubOperations validates that GitHub token is present for operations that require it
func (c *Config) ValidateForGitHubOperations() error {
	if c.GithubToken == "" {
		return fmt.Errorf("github_token is required for GitHub operations")
	}
	if c.GithubOwner == "" || c.GithubRepo == "" {
		return fmt.Errorf("github repository could not be determined")
	}
	return c.Validate()
}

var (
	classicPAT     = regexp.MustCompile(`^[a-fA-F0-9]{40}$`)
	fineGrainedPAT = regexp.MustCompile(`^github_pat_[a-zA-Z0-9_]{82}$`)
	appToken       = regexp.MustCompile(`^ghs_[a-zA-Z0-9]{36}$`)
	oauthToken     = regexp.MustCompile(`^gho_[a-zA-Z0-9]{36}$`)
	validName      = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9\-_.]*[a-zA-Z0-9]$|^[a-zA-Z0-9]$`)
)

// ValidateGitHubToken validates GitHub token format (exported for reuse)
func ValidateGitHubToken(token string) error {
	token = strings.TrimSpace(token)
	if len(token) < 40 {
		return fmt.Errorf("token too short: expected at least 40 characters")
	}
	if !classicPAT.MatchString(token) &&
		!fineGrainedPAT.MatchString(token) &&
		!appToken.MatchString(token) &&
		!oauthToken.MatchString(token) {
		return fmt.Errorf("invalid token format")
	}
	return nil
}

// ValidateGitHubOwnerRepo validates GitHub owner and repository names (exported for reuse)
func ValidateGitHubOwnerRepo(owner, repo string) error {
	if owner == "" {
		return fmt.Errorf("owner cannot be empty")
	}
	if repo == "" {
		return fmt.Errorf("repository cannot be empty")
	}
	if !validName.MatchString(owner) {
		return fmt.Errorf("invalid owner format: %s", owner)
	}
	if len(owner) > 39 {
		return fmt.Errorf("owner too long: maximum 39 characters")
	}
	if !validName.MatchString(repo) {
		return fmt.Errorf("invalid repository format: %s", repo)
	}
	if len(repo) > 100 {
		return fmt.Errorf("repository too long: maximum 100 characters")
	}
	return nil
}

// LoadConfig reads .releasepipe.yaml from the working directory and the
// environment. Environment variables win over the file.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".releasepipe")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	// Configure environment variables
	v.SetEnvPrefix("RELEASEPIPE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// BindEnv allows multiple env vars - it will check them in order
	bindings := map[string][]string{
		"github_token":    {"RELEASEPIPE_GITHUB_TOKEN", "GITHUB_TOKEN", "GH_TOKEN"},
		"github_owner":    {"RELEASEPIPE_GITHUB_OWNER", "GITHUB_OWNER"},
		"github_repo":     {"RELEASEPIPE_GITHUB_REPO", "GITHUB_REPO"},
		"npm_token":       {"RELEASEPIPE_NPM_TOKEN", "NPM_TOKEN"},
		"initial_version": {"RELEASEPIPE_INITIAL_VERSION", "INITIAL_VERSION"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s env: %w", key, err)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if err := populateRepositoryDefaults(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &config, nil
}

// populateRepositoryDefaults fills the owner and repository from the GitHub
// Actions environment, falling back to the origin remote of the repository
// containing the working directory.
func populateRepositoryDefaults(cfg *Config) error {
	if cfg.GithubOwner != "" && cfg.GithubRepo != "" {
		return nil
	}
	owner := os.Getenv("GITHUB_REPOSITORY_OWNER")
	name := os.Getenv("GITHUB_REPOSITORY_NAME")
	if slug := os.Getenv("GITHUB_REPOSITORY"); slug != "" {
		if o, r, ok := strings.Cut(slug, "/"); ok {
			if owner == "" {
				owner = o
			}
			if name == "" {
				name = r
			}
		}
	}
	if owner == "" || name == "" {
		o, r, err := originSlug()
		if err != nil {
			return err
		}
		if owner == "" {
			owner = o
		}
		if name == "" {
			name = r
		}
	}
	if cfg.GithubOwner == "" {
		cfg.GithubOwner = owner
	}
	if cfg.GithubRepo == "" {
		cfg.GithubRepo = name
	}
	return nil
}

// originSlug reads owner/repo from the origin remote. Missing repositories
// and remotes yield empty values.
func originSlug() (string, string, error) {
	repo, err := git.PlainOpenWithOptions(".", &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", "", nil
	}
	remote, err := repo.Remote("origin")
	if err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			return "", "", nil
		}
		return "", "", fmt.Errorf("failed to read origin remote: %w", err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", "", nil
	}
	return parseGitRemoteURL(urls[0])
}

// parseGitRemoteURL extracts owner and repository from https, ssh, scp-like
// and local path remotes.
func parseGitRemoteURL(raw string) (string, string, error) {
	s := strings.TrimSuffix(strings.TrimSpace(raw), "/")
	s = strings.TrimSuffix(s, ".git")
	if scheme := strings.Index(s, "://"); scheme >= 0 {
		s = s[scheme+3:]
		slash := strings.Index(s, "/")
		if slash < 0 {
			return "", "", fmt.Errorf("remote url has no path: %s", raw)
		}
		s = s[slash+1:]
	} else if at := strings.Index(s, "@"); at >= 0 {
		if colon := strings.Index(s[at:], ":"); colon >= 0 {
			s = s[at+colon+1:]
		}
	}
	parts := strings.Split(strings.Trim(filepath.ToSlash(s), "/"), "/")
	if len(parts) < 2 || parts[len(parts)-2] == "" || parts[len(parts)-1] == "" {
		return "", "", fmt.Errorf("cannot determine owner and repository from remote: %s", raw)
	}
	return parts[len(parts)-2], parts[len(parts)-1], nil
}
