package repository

import "context"

// GithubRelease is the subset of a GitHub release the pipeline reads back.
type GithubRelease struct {
	ID    int64
	Name  string
	Body  string
	URL   string
	Draft bool
}

// GithubRepository defines the interface for GitHub API operations.
type GithubRepository interface {
	CreateRelease(ctx context.Context, tag, name, body string, draft bool) (*GithubRelease, error)
	GetReleaseByTag(ctx context.Context, tag string) (*GithubRelease, error)
}
