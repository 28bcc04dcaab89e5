package usecase

import (
	"context"
	"fmt"

	"github.com/compozy/releasepipe/internal/domain"
	"github.com/compozy/releasepipe/internal/repository"
)

// CollectCommitsUseCase lists the commits made since the last release.
type CollectCommitsUseCase struct {
	GitRepo repository.GitRepository
}

// Execute runs the use case. A nil last release collects the whole history.
func (uc *CollectCommitsUseCase) Execute(ctx context.Context, last *domain.LastRelease) ([]domain.Commit, error) {
	from := ""
	if last != nil {
		from = last.GitHead
	}
	commits, err := uc.GitRepo.CommitsSince(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("failed to collect commits: %w", err)
	}
	return commits, nil
}
