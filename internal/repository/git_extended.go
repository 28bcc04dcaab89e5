package repository

import "context"

// GitExtendedRepository extends GitRepository with worktree operations needed by plugins and rollback.
type GitExtendedRepository interface {
	GitRepository
	// Git configuration
	ConfigureUser(ctx context.Context, name, email string) error
	RemoteURL(ctx context.Context, name string) (string, error)
	// Staging operations
	AddFiles(ctx context.Context, pattern string) error
	// Commit operations
	Commit(ctx context.Context, message string) (string, error)
	GetHeadCommit(ctx context.Context) (string, error)
	// Branch operations
	GetCurrentBranch(ctx context.Context) (string, error)
	// Tag operations
	DeleteTag(ctx context.Context, tag string) error
	DeleteRemoteTag(ctx context.Context, tag string) error
	// File operations
	RestoreFile(ctx context.Context, path string) error
	ResetHard(ctx context.Context, ref string) error
	GetFileStatus(ctx context.Context, path string) (string, error)
}
