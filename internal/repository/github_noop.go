package repository

import (
	"context"
	"errors"
	"fmt"
)

var ErrGithubTokenRequired = errors.New("github token is required for GitHub operations")

type githubNoopRepository struct {
	owner string
	repo  string
}

func NewGithubNoopExtendedRepository(owner, repo string) GithubExtendedRepository {
	return &githubNoopRepository{owner: owner, repo: repo}
}

func (r *githubNoopRepository) CreateRelease(_ context.Context, _, _, _ string, _ bool) (*GithubRelease, error) {
	return nil, r.operationError("create release")
}

func (r *githubNoopRepository) GetReleaseByTag(_ context.Context, _ string) (*GithubRelease, error) {
	return nil, r.operationError("get release")
}

func (r *githubNoopRepository) EditReleaseBody(_ context.Context, _ int64, _ string) error {
	return r.operationError("edit release")
}

func (r *githubNoopRepository) DeleteReleaseByTag(_ context.Context, _ string) error {
	return r.operationError("delete release")
}

func (r *githubNoopRepository) AddComment(_ context.Context, _ int, _ string) error {
	return r.operationError("add comment")
}

func (r *githubNoopRepository) Slug() string {
	return r.owner + "/" + r.repo
}

func (r *githubNoopRepository) operationError(action string) error {
	return fmt.Errorf("%w: unable to %s for %s/%s", ErrGithubTokenRequired, action, r.owner, r.repo)
}
