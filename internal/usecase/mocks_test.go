package usecase

import (
	"context"

	"github.com/compozy/releasepipe/internal/domain"
	"github.com/compozy/releasepipe/internal/repository"
	"github.com/stretchr/testify/mock"
)

// Mock for GitRepository
type mockGitRepository struct {
	mock.Mock
}

func (m *mockGitRepository) ListTags(ctx context.Context) ([]repository.TagRef, error) {
	args := m.Called(ctx)
	tags, _ := args.Get(0).([]repository.TagRef)
	return tags, args.Error(1)
}

func (m *mockGitRepository) CommitsSince(ctx context.Context, commit string) ([]domain.Commit, error) {
	args := m.Called(ctx, commit)
	commits, _ := args.Get(0).([]domain.Commit)
	return commits, args.Error(1)
}

func (m *mockGitRepository) IsAncestor(ctx context.Context, commit string) (bool, error) {
	args := m.Called(ctx, commit)
	return args.Bool(0), args.Error(1)
}

func (m *mockGitRepository) TagExists(ctx context.Context, tag string) (bool, error) {
	args := m.Called(ctx, tag)
	return args.Bool(0), args.Error(1)
}

func (m *mockGitRepository) CreateTag(ctx context.Context, tag, msg string) error {
	args := m.Called(ctx, tag, msg)
	return args.Error(0)
}

func (m *mockGitRepository) PushTag(ctx context.Context, tag string) error {
	args := m.Called(ctx, tag)
	return args.Error(0)
}

func (m *mockGitRepository) PushBranch(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}
