package repository

import (
	"context"

	"github.com/compozy/releasepipe/internal/domain"
)

// TagRef is a tag and the commit it points at.
type TagRef struct {
	Name   string
	Commit string
}

// GitRepository defines the interface for Git operations.

type GitRepository interface {
	ListTags(ctx context.Context) ([]TagRef, error)
	CommitsSince(ctx context.Context, commit string) ([]domain.Commit, error)
	IsAncestor(ctx context.Context, commit string) (bool, error)
	TagExists(ctx context.Context, tag string) (bool, error)
	CreateTag(ctx context.Context, tag, msg string) error
	PushTag(ctx context.Context, tag string) error
	PushBranch(ctx context.Context, name string) error
}
