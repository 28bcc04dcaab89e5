package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRepo(t *testing.T) (string, *git.Repository) {
	dir, err := os.MkdirTemp("", "git-test-*")
	require.NoError(t, err)
	t.Cleanup(func() {
		os.RemoveAll(dir)
	})
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	// Create initial commit
	wt, err := repo.Worktree()
	require.NoError(t, err)
	testFile := filepath.Join(dir, "test.txt")
	err = os.WriteFile(testFile, []byte("test content"), 0644)
	require.NoError(t, err)
	_, err = wt.Add("test.txt")
	require.NoError(t, err)
	_, err = wt.Commit("Initial commit", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test User",
			Email: "test@example.com",
		},
	})
	require.NoError(t, err)
	return dir, repo
}

func TestNewGitExtendedRepository(t *testing.T) {
	t.Run("Should create git repository for existing repo", func(t *testing.T) {
		dir, _ := setupTestRepo(t)
		t.Chdir(dir)
		gitRepo, err := NewGitExtendedRepository()
		assert.NoError(t, err)
		assert.NotNil(t, gitRepo)
	})
	t.Run("Should return error for non-git directory", func(t *testing.T) {
		t.Chdir(t.TempDir())
		gitRepo, err := NewGitExtendedRepository()
		assert.Error(t, err)
		assert.Nil(t, gitRepo)
	})
}

func commitFile(t *testing.T, dir string, repo *git.Repository, name, content, msg string) plumbing.Hash {
	t.Helper()
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	_, err = wt.Add(name)
	require.NoError(t, err)
	hash, err := wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return hash
}

func TestGitRepository_ListTags(t *testing.T) {
	t.Run("Should resolve lightweight and annotated tags", func(t *testing.T) {
		dir, repo := setupTestRepo(t)
		head, err := repo.Head()
		require.NoError(t, err)
		_, err = repo.CreateTag("v1.0.0", head.Hash(), nil)
		require.NoError(t, err)
		second := commitFile(t, dir, repo, "b.txt", "b", "feat: b")
		_, err = repo.CreateTag("v1.1.0", second, &git.CreateTagOptions{
			Message: "Release v1.1.0",
			Tagger:  &object.Signature{Name: "Test User", Email: "test@example.com", When: time.Now()},
		})
		require.NoError(t, err)
		gitRepo := &gitRepository{repo: repo}
		tags, err := gitRepo.ListTags(context.Background())
		require.NoError(t, err)
		assert.ElementsMatch(t, []TagRef{
			{Name: "v1.0.0", Commit: head.Hash().String()},
			{Name: "v1.1.0", Commit: second.String()},
		}, tags)
	})
	t.Run("Should return no tags for an untagged repository", func(t *testing.T) {
		_, repo := setupTestRepo(t)
		gitRepo := &gitRepository{repo: repo}
		tags, err := gitRepo.ListTags(context.Background())
		assert.NoError(t, err)
		assert.Empty(t, tags)
	})
}

func TestGitRepository_CreateTag(t *testing.T) {
	t.Run("Should create lightweight tag on HEAD", func(t *testing.T) {
		_, repo := setupTestRepo(t)
		gitRepo := &gitRepository{repo: repo}
		err := gitRepo.CreateTag(context.Background(), "v1.0.0", "")
		require.NoError(t, err)
		ref, err := repo.Tag("v1.0.0")
		require.NoError(t, err)
		_, err = repo.TagObject(ref.Hash())
		assert.Error(t, err, "lightweight tags have no tag object")
	})
	t.Run("Should create annotated tag with message", func(t *testing.T) {
		_, repo := setupTestRepo(t)
		gitRepo := &gitRepository{repo: repo}
		err := gitRepo.CreateTag(context.Background(), "v1.0.0", "Release v1.0.0")
		require.NoError(t, err)
		ref, err := repo.Tag("v1.0.0")
		require.NoError(t, err)
		obj, err := repo.TagObject(ref.Hash())
		require.NoError(t, err)
		assert.Equal(t, "Release v1.0.0\n", obj.Message)
	})
	t.Run("Should return error for duplicate tag", func(t *testing.T) {
		_, repo := setupTestRepo(t)
		gitRepo := &gitRepository{repo: repo}
		require.NoError(t, gitRepo.CreateTag(context.Background(), "v1.0.0", ""))
		assert.Error(t, gitRepo.CreateTag(context.Background(), "v1.0.0", ""))
	})
}

func TestGitRepository_DeleteTag(t *testing.T) {
	t.Run("Should delete an existing tag", func(t *testing.T) {
		_, repo := setupTestRepo(t)
		gitRepo := &gitRepository{repo: repo}
		ctx := context.Background()
		require.NoError(t, gitRepo.CreateTag(ctx, "v1.0.0", ""))
		require.NoError(t, gitRepo.DeleteTag(ctx, "v1.0.0"))
		exists, err := gitRepo.TagExists(ctx, "v1.0.0")
		require.NoError(t, err)
		assert.False(t, exists)
	})
	t.Run("Should ignore missing tags", func(t *testing.T) {
		_, repo := setupTestRepo(t)
		gitRepo := &gitRepository{repo: repo}
		assert.NoError(t, gitRepo.DeleteTag(context.Background(), "v9.9.9"))
	})
}

func TestGitRepository_TagExists(t *testing.T) {
	t.Run("Should return true when tag exists", func(t *testing.T) {
		_, repo := setupTestRepo(t)
		head, err := repo.Head()
		require.NoError(t, err)
		_, err = repo.CreateTag("v1.0.0", head.Hash(), nil)
		require.NoError(t, err)
		gitRepo := &gitRepository{repo: repo}
		exists, err := gitRepo.TagExists(context.Background(), "v1.0.0")
		assert.NoError(t, err)
		assert.True(t, exists)
	})
	t.Run("Should return false when tag does not exist", func(t *testing.T) {
		_, repo := setupTestRepo(t)
		gitRepo := &gitRepository{repo: repo}
		exists, err := gitRepo.TagExists(context.Background(), "v1.0.0")
		assert.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestGitRepository_CommitsSince(t *testing.T) {
	t.Run("Should list commits after the given commit newest first", func(t *testing.T) {
		dir, repo := setupTestRepo(t)
		head, err := repo.Head()
		require.NoError(t, err)
		commitFile(t, dir, repo, "a.txt", "a", "feat: add a")
		commitFile(t, dir, repo, "b.txt", "b", "fix: fix b")
		gitRepo := &gitRepository{repo: repo}
		commits, err := gitRepo.CommitsSince(context.Background(), head.Hash().String())
		require.NoError(t, err)
		require.Len(t, commits, 2)
		assert.Equal(t, "fix: fix b", commits[0].Subject())
		assert.Equal(t, "feat: add a", commits[1].Subject())
		assert.Equal(t, "Test User", commits[0].Author)
	})
	t.Run("Should list the whole history without a starting commit", func(t *testing.T) {
		dir, repo := setupTestRepo(t)
		commitFile(t, dir, repo, "a.txt", "a", "feat: add a")
		gitRepo := &gitRepository{repo: repo}
		commits, err := gitRepo.CommitsSince(context.Background(), "")
		require.NoError(t, err)
		assert.Len(t, commits, 2)
	})
}

func TestGitRepository_IsAncestor(t *testing.T) {
	t.Run("Should report reachable commits", func(t *testing.T) {
		dir, repo := setupTestRepo(t)
		head, err := repo.Head()
		require.NoError(t, err)
		commitFile(t, dir, repo, "a.txt", "a", "feat: add a")
		gitRepo := &gitRepository{repo: repo}
		ok, err := gitRepo.IsAncestor(context.Background(), head.Hash().String())
		require.NoError(t, err)
		assert.True(t, ok)
	})
	t.Run("Should report unknown commits as unreachable", func(t *testing.T) {
		_, repo := setupTestRepo(t)
		gitRepo := &gitRepository{repo: repo}
		ok, err := gitRepo.IsAncestor(context.Background(), "0123456789012345678901234567890123456789")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestGitRepository_CommitAndRestore(t *testing.T) {
	t.Run("Should stage matching assets and commit them", func(t *testing.T) {
		dir, repo := setupTestRepo(t)
		gitRepo := &gitRepository{repo: repo}
		ctx := context.Background()
		require.NoError(t, gitRepo.ConfigureUser(ctx, "Release Bot", "bot@example.com"))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "CHANGELOG.md"), []byte("# Changelog"), 0o644))
		require.NoError(t, gitRepo.AddFiles(ctx, "*.md"))
		require.NoError(t, gitRepo.AddFiles(ctx, "missing/*.py"))
		sha, err := gitRepo.Commit(ctx, "chore(release): 1.0.0")
		require.NoError(t, err)
		head, err := gitRepo.GetHeadCommit(ctx)
		require.NoError(t, err)
		assert.Equal(t, sha, head)
		commit, err := repo.CommitObject(plumbing.NewHash(sha))
		require.NoError(t, err)
		assert.Equal(t, "Release Bot", commit.Author.Name)
		_, err = commit.File("CHANGELOG.md")
		assert.NoError(t, err)
	})
	t.Run("Should restore modified files and remove new ones", func(t *testing.T) {
		dir, repo := setupTestRepo(t)
		gitRepo := &gitRepository{repo: repo}
		ctx := context.Background()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "test.txt"), []byte("changed"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("new"), 0o644))
		status, err := gitRepo.GetFileStatus(ctx, "test.txt")
		require.NoError(t, err)
		assert.Equal(t, "modified", status)
		require.NoError(t, gitRepo.RestoreFile(ctx, "test.txt"))
		require.NoError(t, gitRepo.RestoreFile(ctx, "new.txt"))
		data, err := os.ReadFile(filepath.Join(dir, "test.txt"))
		require.NoError(t, err)
		assert.Equal(t, "test content", string(data))
		_, err = os.Stat(filepath.Join(dir, "new.txt"))
		assert.True(t, os.IsNotExist(err))
		status, err = gitRepo.GetFileStatus(ctx, "test.txt")
		require.NoError(t, err)
		assert.Equal(t, "clean", status)
	})
	t.Run("Should reset to the parent of a release commit", func(t *testing.T) {
		dir, repo := setupTestRepo(t)
		gitRepo := &gitRepository{repo: repo}
		ctx := context.Background()
		before, err := gitRepo.GetHeadCommit(ctx)
		require.NoError(t, err)
		release := commitFile(t, dir, repo, "VERSION", "1.0.0", "chore(release): 1.0.0")
		require.NoError(t, gitRepo.ResetHard(ctx, release.String()+"~1"))
		after, err := gitRepo.GetHeadCommit(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})
}

func TestGitRepository_CurrentBranchAndRemote(t *testing.T) {
	t.Run("Should report the checked out branch", func(t *testing.T) {
		_, repo := setupTestRepo(t)
		gitRepo := &gitRepository{repo: repo}
		branch, err := gitRepo.GetCurrentBranch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "master", branch)
	})
	t.Run("Should return the origin URL", func(t *testing.T) {
		_, repo := setupTestRepo(t)
		_, err := repo.CreateRemote(&config.RemoteConfig{
			Name: "origin",
			URLs: []string{"git@github.com:halkeye/gloss.git"},
		})
		require.NoError(t, err)
		gitRepo := &gitRepository{repo: repo}
		url, err := gitRepo.RemoteURL(context.Background(), "origin")
		require.NoError(t, err)
		assert.Equal(t, "git@github.com:halkeye/gloss.git", url)
	})
}
