package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/compozy/releasepipe/internal/domain"
	"github.com/compozy/releasepipe/internal/pipeline"
	"github.com/compozy/releasepipe/internal/repository"
	"go.uber.org/zap"
)

// Rollback data keys written by release steps
const (
	rollbackKeyModifiedFiles = "modified_files"
	rollbackKeyCommitSHA     = "commit_sha"
	rollbackKeyTag           = "tag"
	rollbackKeyPlugin        = "plugin"
	rollbackKeyURL           = "url"
)

// CompensatingActions provides idempotent rollback operations for release workflow steps
type CompensatingActions struct {
	gitRepo    repository.GitExtendedRepository
	githubRepo repository.GithubExtendedRepository
	logger     *zap.Logger
}

// NewCompensatingActions creates a new compensating actions handler
func NewCompensatingActions(
	gitRepo repository.GitExtendedRepository,
	githubRepo repository.GithubExtendedRepository,
	logger *zap.Logger,
) *CompensatingActions {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompensatingActions{
		gitRepo:    gitRepo,
		githubRepo: githubRepo,
		logger:     logger,
	}
}

// Register installs the compensation for every operation type on the saga.
func (ca *CompensatingActions) Register(saga *SagaExecutor) {
	saga.RegisterCompensation(domain.OperationTypePrepare, ca.RevertPrepare)
	saga.RegisterCompensation(domain.OperationTypeCreateTag, ca.DeleteTag)
	saga.RegisterCompensation(domain.OperationTypePushTag, ca.DeleteRemoteTag)
	saga.RegisterCompensation(domain.OperationTypePublish, ca.DeleteRelease)
}

// RevertPrepare undoes the release commit, then any uncommitted rewrites.
func (ca *CompensatingActions) RevertPrepare(ctx context.Context, rollbackData map[string]any) error {
	if err := ca.ResetCommit(ctx, rollbackData); err != nil {
		return err
	}
	return ca.RestoreFiles(ctx, rollbackData)
}

// RestoreFiles idempotently restores modified files to their original state
func (ca *CompensatingActions) RestoreFiles(ctx context.Context, rollbackData map[string]any) error {
	for _, file := range stringSlice(rollbackData[rollbackKeyModifiedFiles]) {
		if !ca.fileHasChanges(ctx, file) {
			continue
		}
		if err := ca.gitRepo.RestoreFile(ctx, file); err != nil {
			ca.logger.Warn("Failed to restore file", zap.String("file", file), zap.Error(err))
		}
	}
	return nil
}

// ResetCommit idempotently undoes a commit
func (ca *CompensatingActions) ResetCommit(ctx context.Context, rollbackData map[string]any) error {
	commitSHA, ok := rollbackData[rollbackKeyCommitSHA].(string)
	if !ok || commitSHA == "" {
		return nil
	}
	currentHead, err := ca.gitRepo.GetHeadCommit(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current HEAD: %w", err)
	}
	if !strings.HasPrefix(currentHead, commitSHA) {
		ca.logger.Info("Commit already reset, skipping", zap.String("commit", commitSHA))
		return nil
	}
	if err := ca.gitRepo.ResetHard(ctx, commitSHA+"~1"); err != nil {
		return fmt.Errorf("failed to reset commit %s: %w", commitSHA, err)
	}
	return nil
}

// DeleteTag idempotently deletes the local release tag
func (ca *CompensatingActions) DeleteTag(ctx context.Context, rollbackData map[string]any) error {
	tag, ok := rollbackData[rollbackKeyTag].(string)
	if !ok || tag == "" {
		return nil
	}
	exists, err := ca.gitRepo.TagExists(ctx, tag)
	if err != nil {
		return fmt.Errorf("failed to check tag %s: %w", tag, err)
	}
	if !exists {
		return nil
	}
	return ca.gitRepo.DeleteTag(ctx, tag)
}

// DeleteRemoteTag removes a pushed release tag from origin
func (ca *CompensatingActions) DeleteRemoteTag(ctx context.Context, rollbackData map[string]any) error {
	tag, ok := rollbackData[rollbackKeyTag].(string)
	if !ok || tag == "" {
		return nil
	}
	return ca.gitRepo.DeleteRemoteTag(ctx, tag)
}

// DeleteRelease removes a GitHub release. Releases made by other publishers
// cannot be withdrawn and are only reported.
func (ca *CompensatingActions) DeleteRelease(ctx context.Context, rollbackData map[string]any) error {
	plugin, _ := rollbackData[rollbackKeyPlugin].(string)
	tag, _ := rollbackData[rollbackKeyTag].(string)
	if plugin != pipeline.PluginGithub {
		if plugin != "" {
			url, _ := rollbackData[rollbackKeyURL].(string)
			ca.logger.Warn("Published release cannot be rolled back automatically",
				zap.String("plugin", plugin), zap.String("tag", tag), zap.String("url", url))
		}
		return nil
	}
	if tag == "" {
		return nil
	}
	return ca.githubRepo.DeleteReleaseByTag(ctx, tag)
}

func (ca *CompensatingActions) fileHasChanges(ctx context.Context, file string) bool {
	status, err := ca.gitRepo.GetFileStatus(ctx, file)
	if err != nil {
		return false
	}
	return status != "clean"
}

// stringSlice accepts both []string and the []any produced by JSON decoding.
func stringSlice(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}
