package plugin

import (
	"context"
	"time"

	"github.com/compozy/releasepipe/internal/domain"
	"github.com/compozy/releasepipe/internal/repository"
	"github.com/compozy/releasepipe/internal/service"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type mockGitRepo struct {
	mock.Mock
}

func (m *mockGitRepo) ListTags(ctx context.Context) ([]repository.TagRef, error) {
	args := m.Called(ctx)
	tags, _ := args.Get(0).([]repository.TagRef)
	return tags, args.Error(1)
}

func (m *mockGitRepo) CommitsSince(ctx context.Context, commit string) ([]domain.Commit, error) {
	args := m.Called(ctx, commit)
	commits, _ := args.Get(0).([]domain.Commit)
	return commits, args.Error(1)
}

func (m *mockGitRepo) IsAncestor(ctx context.Context, commit string) (bool, error) {
	args := m.Called(ctx, commit)
	return args.Bool(0), args.Error(1)
}

func (m *mockGitRepo) TagExists(ctx context.Context, tag string) (bool, error) {
	args := m.Called(ctx, tag)
	return args.Bool(0), args.Error(1)
}

func (m *mockGitRepo) CreateTag(ctx context.Context, tag, msg string) error {
	return m.Called(ctx, tag, msg).Error(0)
}

func (m *mockGitRepo) PushTag(ctx context.Context, tag string) error {
	return m.Called(ctx, tag).Error(0)
}

func (m *mockGitRepo) PushBranch(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func (m *mockGitRepo) ConfigureUser(ctx context.Context, name, email string) error {
	return m.Called(ctx, name, email).Error(0)
}

func (m *mockGitRepo) RemoteURL(ctx context.Context, name string) (string, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Error(1)
}

func (m *mockGitRepo) AddFiles(ctx context.Context, pattern string) error {
	return m.Called(ctx, pattern).Error(0)
}

func (m *mockGitRepo) Commit(ctx context.Context, message string) (string, error) {
	args := m.Called(ctx, message)
	return args.String(0), args.Error(1)
}

func (m *mockGitRepo) GetHeadCommit(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockGitRepo) GetCurrentBranch(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockGitRepo) DeleteTag(ctx context.Context, tag string) error {
	return m.Called(ctx, tag).Error(0)
}

func (m *mockGitRepo) DeleteRemoteTag(ctx context.Context, tag string) error {
	return m.Called(ctx, tag).Error(0)
}

func (m *mockGitRepo) RestoreFile(ctx context.Context, path string) error {
	return m.Called(ctx, path).Error(0)
}

func (m *mockGitRepo) ResetHard(ctx context.Context, ref string) error {
	return m.Called(ctx, ref).Error(0)
}

func (m *mockGitRepo) GetFileStatus(ctx context.Context, path string) (string, error) {
	args := m.Called(ctx, path)
	return args.String(0), args.Error(1)
}

type mockGithubRepo struct {
	mock.Mock
}

func (m *mockGithubRepo) CreateRelease(
	ctx context.Context,
	tag, name, body string,
	draft bool,
) (*repository.GithubRelease, error) {
	args := m.Called(ctx, tag, name, body, draft)
	rel, _ := args.Get(0).(*repository.GithubRelease)
	return rel, args.Error(1)
}

func (m *mockGithubRepo) GetReleaseByTag(ctx context.Context, tag string) (*repository.GithubRelease, error) {
	args := m.Called(ctx, tag)
	rel, _ := args.Get(0).(*repository.GithubRelease)
	return rel, args.Error(1)
}

func (m *mockGithubRepo) EditReleaseBody(ctx context.Context, id int64, body string) error {
	return m.Called(ctx, id, body).Error(0)
}

func (m *mockGithubRepo) DeleteReleaseByTag(ctx context.Context, tag string) error {
	return m.Called(ctx, tag).Error(0)
}

func (m *mockGithubRepo) AddComment(ctx context.Context, number int, body string) error {
	return m.Called(ctx, number, body).Error(0)
}

func (m *mockGithubRepo) Slug() string {
	return "halkeye/gloss"
}

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, cmd service.Command) ([]byte, error) {
	args := m.Called(ctx, cmd)
	out, _ := args.Get(0).([]byte)
	return out, args.Error(1)
}

func newTestContext(version string) *Context {
	rc := &Context{
		Logger: zap.NewNop(),
		FS:     afero.NewMemMapFs(),
		Branch: "main",
		Now:    time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC),
	}
	if version != "" {
		v, err := domain.NewVersion(version)
		if err != nil {
			panic(err)
		}
		rc.NextRelease = &domain.NextRelease{
			Type:    domain.ReleaseTypeMinor,
			Version: v,
			GitTag:  "v" + v.Plain(),
			Notes:   "### Features\n\n* thing",
		}
	}
	return rc
}

func lastRelease(version string) *domain.LastRelease {
	v, err := domain.NewVersion(version)
	if err != nil {
		panic(err)
	}
	return &domain.LastRelease{Version: v, GitTag: "v" + version, GitHead: "abc1234"}
}
