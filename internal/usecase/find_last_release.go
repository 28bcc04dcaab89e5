package usecase

import (
	"context"
	"fmt"

	"github.com/compozy/releasepipe/internal/domain"
	"github.com/compozy/releasepipe/internal/pipeline"
	"github.com/compozy/releasepipe/internal/repository"
)

// FindLastReleaseUseCase finds the highest version tag that matches the tag
// format and is reachable from HEAD.
type FindLastReleaseUseCase struct {
	GitRepo   repository.GitRepository
	TagFormat string
}

// Execute returns nil when no release exists yet.
func (uc *FindLastReleaseUseCase) Execute(ctx context.Context) (*domain.LastRelease, error) {
	matcher, err := pipeline.NewTagMatcher(uc.TagFormat)
	if err != nil {
		return nil, err
	}
	tags, err := uc.GitRepo.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	var last *domain.LastRelease
	for _, tag := range tags {
		v, ok := matcher.Version(tag.Name)
		if !ok || v.Prerelease() != "" {
			continue
		}
		if last != nil && v.Compare(last.Version) <= 0 {
			continue
		}
		reachable, err := uc.GitRepo.IsAncestor(ctx, tag.Commit)
		if err != nil {
			return nil, fmt.Errorf("failed to check tag %s: %w", tag.Name, err)
		}
		if !reachable {
			continue
		}
		last = &domain.LastRelease{Version: v, GitTag: tag.Name, GitHead: tag.Commit}
	}
	return last, nil
}
