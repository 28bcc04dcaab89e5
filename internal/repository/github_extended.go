package repository

import "context"

// GithubExtendedRepository extends GithubRepository with operations needed by
// the success, fail and rollback paths.
type GithubExtendedRepository interface {
	GithubRepository
	// EditReleaseBody replaces the body of an existing release
	EditReleaseBody(ctx context.Context, id int64, body string) error
	// DeleteReleaseByTag removes the release attached to a tag, if any
	DeleteReleaseByTag(ctx context.Context, tag string) error
	// AddComment adds a comment to an issue or pull request
	AddComment(ctx context.Context, number int, body string) error
	// Slug returns owner/repo
	Slug() string
}
