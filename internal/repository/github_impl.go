package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/compozy/releasepipe/internal/config"
	"github.com/google/go-github/v74/github"
	"golang.org/x/oauth2"
)

// ErrReleaseNotFound is returned when no release is attached to a tag.
var ErrReleaseNotFound = errors.New("github release not found")

// githubRepository is the implementation of the GithubExtendedRepository interface.
type githubRepository struct {
	client *github.Client
	owner  string
	repo   string
}

// Note: GitHub token and owner/repo validation functions live in the config
// package so the CLI and this repository agree on what is accepted.

// NewGithubExtendedRepository creates a new GithubExtendedRepository with validation.
func NewGithubExtendedRepository(token, owner, repo string) (GithubExtendedRepository, error) {
	if err := config.ValidateGitHubToken(token); err != nil {
		return nil, fmt.Errorf("invalid GitHub token: %w", err)
	}
	if err := config.ValidateGitHubOwnerRepo(owner, repo); err != nil {
		return nil, fmt.Errorf("invalid repository configuration: %w", err)
	}
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: strings.TrimSpace(token)},
	)
	tc := oauth2.NewClient(context.Background(), ts)
	return newGithubRepositoryWithClient(github.NewClient(tc), owner, repo), nil
}

func newGithubRepositoryWithClient(client *github.Client, owner, repo string) *githubRepository {
	return &githubRepository{client: client, owner: owner, repo: repo}
}

// CreateRelease creates a release for an already pushed tag.
func (r *githubRepository) CreateRelease(
	ctx context.Context,
	tag, name, body string,
	draft bool,
) (*GithubRelease, error) {
	rel, _, err := r.client.Repositories.CreateRelease(ctx, r.owner, r.repo, &github.RepositoryRelease{
		TagName: github.Ptr(tag),
		Name:    github.Ptr(name),
		Body:    github.Ptr(body),
		Draft:   github.Ptr(draft),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create release %s: %w", tag, err)
	}
	return toGithubRelease(rel), nil
}

// GetReleaseByTag returns ErrReleaseNotFound when the tag has no release.
func (r *githubRepository) GetReleaseByTag(ctx context.Context, tag string) (*GithubRelease, error) {
	rel, resp, err := r.client.Repositories.GetReleaseByTag(ctx, r.owner, r.repo, tag)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrReleaseNotFound, tag)
		}
		return nil, fmt.Errorf("failed to get release %s: %w", tag, err)
	}
	return toGithubRelease(rel), nil
}

// EditReleaseBody replaces the release notes of a release.
func (r *githubRepository) EditReleaseBody(ctx context.Context, id int64, body string) error {
	_, _, err := r.client.Repositories.EditRelease(ctx, r.owner, r.repo, id, &github.RepositoryRelease{
		Body: github.Ptr(body),
	})
	if err != nil {
		return fmt.Errorf("failed to edit release %d: %w", id, err)
	}
	return nil
}

// DeleteReleaseByTag deletes the release for tag; a missing release is not an error.
func (r *githubRepository) DeleteReleaseByTag(ctx context.Context, tag string) error {
	rel, err := r.GetReleaseByTag(ctx, tag)
	if err != nil {
		if errors.Is(err, ErrReleaseNotFound) {
			return nil
		}
		return err
	}
	if _, err := r.client.Repositories.DeleteRelease(ctx, r.owner, r.repo, rel.ID); err != nil {
		return fmt.Errorf("failed to delete release %s: %w", tag, err)
	}
	return nil
}

// AddComment implementation
func (r *githubRepository) AddComment(ctx context.Context, number int, body string) error {
	comment := &github.IssueComment{
		Body: github.Ptr(body),
	}
	_, _, err := r.client.Issues.CreateComment(ctx, r.owner, r.repo, number, comment)
	if err != nil {
		return fmt.Errorf("failed to add comment to #%d: %w", number, err)
	}
	return nil
}

func (r *githubRepository) Slug() string {
	return r.owner + "/" + r.repo
}

func toGithubRelease(rel *github.RepositoryRelease) *GithubRelease {
	return &GithubRelease{
		ID:    rel.GetID(),
		Name:  rel.GetName(),
		Body:  rel.GetBody(),
		URL:   rel.GetHTMLURL(),
		Draft: rel.GetDraft(),
	}
}
