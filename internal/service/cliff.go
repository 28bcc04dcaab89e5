package service

import (
	"context"

	"github.com/compozy/releasepipe/internal/domain"
)

// CliffService defines the interface for interacting with git-cliff.
type CliffService interface {
	// BumpedVersion asks git-cliff for the next version implied by unreleased commits.
	BumpedVersion(ctx context.Context) (*domain.Version, error)
	// GenerateNotes renders the notes for the commits after fromTag, labelled as tag.
	GenerateNotes(ctx context.Context, fromTag, tag string) (string, error)
}
