package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/compozy/releasepipe/internal/domain"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

const (
	defaultRemote = "origin"
	// DefaultGitUserName is the committer used when the repository has none configured
	DefaultGitUserName = "semantic-release-bot"
	// DefaultGitUserEmail pairs with DefaultGitUserName
	DefaultGitUserEmail = "semantic-release-bot@martynus.net"
)

// ErrNothingToCommit is returned by Commit when the worktree has no staged changes.
var ErrNothingToCommit = errors.New("nothing to commit")

// gitRepository is the implementation of the GitRepository interface.

type gitRepository struct {
	repo *git.Repository
}

// NewGitExtendedRepository opens the repository containing the working directory.
func NewGitExtendedRepository() (GitExtendedRepository, error) {
	repo, err := git.PlainOpenWithOptions(".", &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository: %w", err)
	}
	return &gitRepository{repo: repo}, nil
}

// fetchTags refreshes local tags from origin. Local tags are sufficient when
// the remote is unreachable.
func (r *gitRepository) fetchTags(ctx context.Context) {
	remote, err := r.repo.Remote(defaultRemote)
	if err != nil {
		return
	}
	//nolint:errcheck // local tags are sufficient
	_ = remote.FetchContext(ctx, &git.FetchOptions{
		RefSpecs: []config.RefSpec{
			config.RefSpec("+refs/tags/*:refs/tags/*"),
		},
		Auth: r.getAuth(),
	})
}

// ListTags returns every tag with the commit it resolves to.
func (r *gitRepository) ListTags(ctx context.Context) ([]TagRef, error) {
	r.fetchTags(ctx)
	tagRefs, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("failed to get tags: %w", err)
	}
	var tags []TagRef
	if err := tagRefs.ForEach(func(ref *plumbing.Reference) error {
		hash, err := r.resolveTagCommit(ref)
		if err != nil {
			return nil // Skip tags that do not point at commits
		}
		tags = append(tags, TagRef{Name: ref.Name().Short(), Commit: hash.String()})
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}
	return tags, nil
}

// resolveTagCommit resolves a tag reference to its commit hash.
func (r *gitRepository) resolveTagCommit(tagRef *plumbing.Reference) (plumbing.Hash, error) {
	// Try as lightweight tag first
	if commit, err := r.repo.CommitObject(tagRef.Hash()); err == nil {
		return commit.Hash, nil
	}
	// Try as annotated tag
	if tagObj, err := r.repo.TagObject(tagRef.Hash()); err == nil {
		if commit, err := r.repo.CommitObject(tagObj.Target); err == nil {
			return commit.Hash, nil
		}
	}
	return plumbing.Hash{}, fmt.Errorf("failed to resolve commit for tag %s", tagRef.Name().Short())
}

func (r *gitRepository) headCommit() (*object.Commit, error) {
	head, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}
	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD commit: %w", err)
	}
	return commit, nil
}

// CommitsSince returns the commits reachable from HEAD, newest first, stopping
// at the given commit. An empty commit returns the whole history.
func (r *gitRepository) CommitsSince(_ context.Context, commit string) ([]domain.Commit, error) {
	head, err := r.headCommit()
	if err != nil {
		return nil, err
	}
	iter, err := r.repo.Log(&git.LogOptions{From: head.Hash})
	if err != nil {
		return nil, fmt.Errorf("failed to get commits: %w", err)
	}
	stop := plumbing.NewHash(commit)
	var commits []domain.Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if commit != "" && c.Hash == stop {
			return storer.ErrStop
		}
		commits = append(commits, domain.Commit{
			Hash:    c.Hash.String(),
			Message: c.Message,
			Author:  c.Author.Name,
			Date:    c.Author.When,
		})
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return nil, fmt.Errorf("failed to iterate commits: %w", err)
	}
	return commits, nil
}

// IsAncestor reports whether commit is reachable from HEAD.
func (r *gitRepository) IsAncestor(_ context.Context, commit string) (bool, error) {
	head, err := r.headCommit()
	if err != nil {
		return false, err
	}
	c, err := r.repo.CommitObject(plumbing.NewHash(commit))
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get commit %s: %w", commit, err)
	}
	return c.IsAncestor(head)
}

// TagExists checks if a tag exists.
func (r *gitRepository) TagExists(_ context.Context, tag string) (bool, error) {
	_, err := r.repo.Tag(tag)
	if errors.Is(err, git.ErrTagNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check tag %s: %w", tag, err)
	}
	return true, nil
}

// CreateTag tags HEAD. An empty message creates a lightweight tag.
func (r *gitRepository) CreateTag(_ context.Context, tag, msg string) error {
	head, err := r.repo.Head()
	if err != nil {
		return fmt.Errorf("failed to get HEAD: %w", err)
	}
	var opts *git.CreateTagOptions
	if msg != "" {
		opts = &git.CreateTagOptions{
			Message: msg,
			Tagger:  r.signature(),
		}
	}
	if _, err := r.repo.CreateTag(tag, head.Hash(), opts); err != nil {
		return fmt.Errorf("failed to create tag %s: %w", tag, err)
	}
	return nil
}

// DeleteTag removes a local tag.
func (r *gitRepository) DeleteTag(_ context.Context, tag string) error {
	if err := r.repo.DeleteTag(tag); err != nil {
		if errors.Is(err, git.ErrTagNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete tag %s: %w", tag, err)
	}
	return nil
}

// signature returns the configured user, falling back to the bot identity.
func (r *gitRepository) signature() *object.Signature {
	sig := &object.Signature{
		Name:  DefaultGitUserName,
		Email: DefaultGitUserEmail,
		When:  time.Now(),
	}
	if cfg, err := r.repo.Config(); err == nil {
		if cfg.User.Name != "" {
			sig.Name = cfg.User.Name
		}
		if cfg.User.Email != "" {
			sig.Email = cfg.User.Email
		}
	}
	return sig
}

// getAuth returns authentication configuration for GitHub Actions
func (r *gitRepository) getAuth() *http.BasicAuth {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		token = os.Getenv("GH_TOKEN")
	}
	if token == "" {
		token = os.Getenv("RELEASEPIPE_GITHUB_TOKEN")
	}
	if token == "" {
		return nil
	}
	// Use x-access-token as username for GitHub token authentication
	return &http.BasicAuth{
		Username: "x-access-token",
		Password: token,
	}
}

func (r *gitRepository) push(ctx context.Context, refSpec string) error {
	err := r.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: defaultRemote,
		RefSpecs:   []config.RefSpec{config.RefSpec(refSpec)},
		Auth:       r.getAuth(),
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return err
	}
	return nil
}

// PushTag pushes a tag to the remote.
func (r *gitRepository) PushTag(ctx context.Context, tag string) error {
	if err := r.push(ctx, fmt.Sprintf("refs/tags/%s:refs/tags/%s", tag, tag)); err != nil {
		return fmt.Errorf("failed to push tag %s: %w", tag, err)
	}
	return nil
}

// DeleteRemoteTag deletes a tag from the remote.
func (r *gitRepository) DeleteRemoteTag(ctx context.Context, tag string) error {
	if err := r.push(ctx, ":refs/tags/"+tag); err != nil {
		return fmt.Errorf("failed to delete remote tag %s: %w", tag, err)
	}
	return nil
}

// PushBranch pushes a branch to the remote.
func (r *gitRepository) PushBranch(ctx context.Context, name string) error {
	if err := r.push(ctx, fmt.Sprintf("refs/heads/%s:refs/heads/%s", name, name)); err != nil {
		return fmt.Errorf("failed to push branch %s: %w", name, err)
	}
	return nil
}

// ConfigureUser sets the git user configuration.
func (r *gitRepository) ConfigureUser(_ context.Context, name, email string) error {
	cfg, err := r.repo.Config()
	if err != nil {
		return fmt.Errorf("failed to get config: %w", err)
	}
	cfg.User.Name = name
	cfg.User.Email = email
	return r.repo.Storer.SetConfig(cfg)
}

// RemoteURL returns the first URL configured for the named remote.
func (r *gitRepository) RemoteURL(_ context.Context, name string) (string, error) {
	remote, err := r.repo.Remote(name)
	if err != nil {
		return "", fmt.Errorf("failed to get remote %s: %w", name, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %s has no URL", name)
	}
	return urls[0], nil
}

// AddFiles stages files matching the pattern.
func (r *gitRepository) AddFiles(_ context.Context, pattern string) error {
	w, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	// Assets that match nothing are skipped
	err = w.AddGlob(pattern)
	if err != nil && !errors.Is(err, git.ErrGlobNoMatches) {
		return fmt.Errorf("failed to add files with pattern %s: %w", pattern, err)
	}
	return nil
}

// Commit creates a commit with the given message and returns its hash.
func (r *gitRepository) Commit(_ context.Context, message string) (string, error) {
	w, err := r.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}
	hash, err := w.Commit(message, &git.CommitOptions{Author: r.signature()})
	if errors.Is(err, git.ErrEmptyCommit) {
		return "", ErrNothingToCommit
	}
	if err != nil {
		return "", fmt.Errorf("failed to create commit: %w", err)
	}
	return hash.String(), nil
}

// GetCurrentBranch returns the name of the current branch.
func (r *gitRepository) GetCurrentBranch(_ context.Context) (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", fmt.Errorf("HEAD is detached at %s", head.Hash())
	}
	return head.Name().Short(), nil
}

// RestoreFile restores a file to its state in HEAD. Files absent from HEAD
// are removed.
func (r *gitRepository) RestoreFile(_ context.Context, path string) error {
	w, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	fullPath := filepath.Join(w.Filesystem.Root(), path)
	commit, err := r.headCommit()
	if err != nil {
		return err
	}
	file, err := commit.File(path)
	if errors.Is(err, object.ErrFileNotFound) {
		if rmErr := os.Remove(fullPath); rmErr != nil && !os.IsNotExist(rmErr) {
			return fmt.Errorf("failed to remove untracked file %s: %w", path, rmErr)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get file %s from HEAD: %w", path, err)
	}
	contents, err := file.Contents()
	if err != nil {
		return fmt.Errorf("failed to get file contents: %w", err)
	}
	if err := os.WriteFile(fullPath, []byte(contents), 0o644); err != nil {
		return fmt.Errorf("failed to restore file %s: %w", path, err)
	}
	return nil
}

// ResetHard performs a hard reset to the specified reference.
func (r *gitRepository) ResetHard(_ context.Context, ref string) error {
	w, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	hash, err := r.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return fmt.Errorf("failed to resolve revision %s: %w", ref, err)
	}
	if err := w.Reset(&git.ResetOptions{Commit: *hash, Mode: git.HardReset}); err != nil {
		return fmt.Errorf("failed to reset to %s: %w", ref, err)
	}
	return nil
}

// GetHeadCommit returns the SHA of the current HEAD commit.
func (r *gitRepository) GetHeadCommit(_ context.Context) (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	return head.Hash().String(), nil
}

// GetFileStatus returns the git status of a specific file.
// Returns "clean" if the file has no changes, "modified" if it has uncommitted changes.
func (r *gitRepository) GetFileStatus(_ context.Context, path string) (string, error) {
	w, err := r.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}
	status, err := w.Status()
	if err != nil {
		return "", fmt.Errorf("failed to get status: %w", err)
	}
	fileStatus, ok := status[filepath.ToSlash(path)]
	if !ok {
		return "clean", nil
	}
	if fileStatus.Worktree == git.Unmodified && fileStatus.Staging == git.Unmodified {
		return "clean", nil
	}
	return "modified", nil
}
