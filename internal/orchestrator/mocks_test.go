package orchestrator

import (
	"context"

	"github.com/compozy/releasepipe/internal/domain"
	"github.com/compozy/releasepipe/internal/repository"
	"github.com/stretchr/testify/mock"
)

// Mock for GitExtendedRepository - implements ALL methods from GitExtendedRepository interface
type mockGitExtendedRepository struct{ mock.Mock }

// GitRepository methods
func (m *mockGitExtendedRepository) ListTags(ctx context.Context) ([]repository.TagRef, error) {
	args := m.Called(ctx)
	if tags := args.Get(0); tags != nil {
		return tags.([]repository.TagRef), args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockGitExtendedRepository) CommitsSince(ctx context.Context, commit string) ([]domain.Commit, error) {
	args := m.Called(ctx, commit)
	if commits := args.Get(0); commits != nil {
		return commits.([]domain.Commit), args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockGitExtendedRepository) IsAncestor(ctx context.Context, commit string) (bool, error) {
	args := m.Called(ctx, commit)
	return args.Bool(0), args.Error(1)
}
func (m *mockGitExtendedRepository) TagExists(ctx context.Context, tag string) (bool, error) {
	args := m.Called(ctx, tag)
	return args.Bool(0), args.Error(1)
}
func (m *mockGitExtendedRepository) CreateTag(ctx context.Context, tag, msg string) error {
	args := m.Called(ctx, tag, msg)
	return args.Error(0)
}
func (m *mockGitExtendedRepository) PushTag(ctx context.Context, tag string) error {
	args := m.Called(ctx, tag)
	return args.Error(0)
}
func (m *mockGitExtendedRepository) PushBranch(ctx context.Context, branch string) error {
	args := m.Called(ctx, branch)
	return args.Error(0)
}

// GitExtendedRepository specific methods
func (m *mockGitExtendedRepository) ConfigureUser(ctx context.Context, name, email string) error {
	args := m.Called(ctx, name, email)
	return args.Error(0)
}
func (m *mockGitExtendedRepository) RemoteURL(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}
func (m *mockGitExtendedRepository) AddFiles(ctx context.Context, pattern string) error {
	args := m.Called(ctx, pattern)
	return args.Error(0)
}
func (m *mockGitExtendedRepository) Commit(ctx context.Context, message string) (string, error) {
	args := m.Called(ctx, message)
	return args.String(0), args.Error(1)
}
func (m *mockGitExtendedRepository) GetHeadCommit(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
func (m *mockGitExtendedRepository) GetCurrentBranch(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
func (m *mockGitExtendedRepository) DeleteTag(ctx context.Context, tag string) error {
	args := m.Called(ctx, tag)
	return args.Error(0)
}
func (m *mockGitExtendedRepository) DeleteRemoteTag(ctx context.Context, tag string) error {
	args := m.Called(ctx, tag)
	return args.Error(0)
}
func (m *mockGitExtendedRepository) RestoreFile(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}
func (m *mockGitExtendedRepository) ResetHard(ctx context.Context, ref string) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}
func (m *mockGitExtendedRepository) GetFileStatus(ctx context.Context, path string) (string, error) {
	args := m.Called(ctx, path)
	return args.String(0), args.Error(1)
}

// Mock for GithubExtendedRepository
type mockGithubExtendedRepository struct{ mock.Mock }

func (m *mockGithubExtendedRepository) CreateRelease(
	ctx context.Context,
	tag, name, body string,
	draft bool,
) (*repository.GithubRelease, error) {
	args := m.Called(ctx, tag, name, body, draft)
	if rel := args.Get(0); rel != nil {
		return rel.(*repository.GithubRelease), args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockGithubExtendedRepository) GetReleaseByTag(
	ctx context.Context,
	tag string,
) (*repository.GithubRelease, error) {
	args := m.Called(ctx, tag)
	if rel := args.Get(0); rel != nil {
		return rel.(*repository.GithubRelease), args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockGithubExtendedRepository) EditReleaseBody(ctx context.Context, id int64, body string) error {
	args := m.Called(ctx, id, body)
	return args.Error(0)
}
func (m *mockGithubExtendedRepository) DeleteReleaseByTag(ctx context.Context, tag string) error {
	args := m.Called(ctx, tag)
	return args.Error(0)
}
func (m *mockGithubExtendedRepository) AddComment(ctx context.Context, number int, body string) error {
	args := m.Called(ctx, number, body)
	return args.Error(0)
}
func (m *mockGithubExtendedRepository) Slug() string {
	return "halkeye/gloss"
}

// Mock for StateRepository
type mockStateRepository struct{ mock.Mock }

func (m *mockStateRepository) Save(ctx context.Context, state *domain.RollbackState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *mockStateRepository) Load(ctx context.Context, sessionID string) (*domain.RollbackState, error) {
	args := m.Called(ctx, sessionID)
	if state := args.Get(0); state != nil {
		return state.(*domain.RollbackState), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStateRepository) LoadLatest(ctx context.Context) (*domain.RollbackState, error) {
	args := m.Called(ctx)
	if state := args.Get(0); state != nil {
		return state.(*domain.RollbackState), args.Error(1)
	}
	return nil, args.Error(1)
}
