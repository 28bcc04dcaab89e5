package usecase

import (
	"fmt"
	"os"

	"github.com/compozy/releasepipe/internal/domain"
)

// DefaultInitialVersion is used for the first release.
const DefaultInitialVersion = "1.0.0"

// NextVersionUseCase computes the version of the release being made.
type NextVersionUseCase struct {
	// InitialVersion overrides DefaultInitialVersion; INITIAL_VERSION is
	// consulted when it is empty.
	InitialVersion string
}

// Execute runs the use case.
func (uc *NextVersionUseCase) Execute(last *domain.LastRelease, rt domain.ReleaseType) (*domain.Version, error) {
	if rt == domain.ReleaseTypeNone {
		return nil, fmt.Errorf("no release type to apply")
	}
	if last != nil && last.Version != nil {
		return last.Version.Bump(rt), nil
	}
	initial := uc.InitialVersion
	if initial == "" {
		initial = os.Getenv("INITIAL_VERSION")
	}
	if initial == "" {
		initial = DefaultInitialVersion
	}
	v, err := domain.NewVersion(initial)
	if err != nil {
		return nil, fmt.Errorf("invalid initial version %q: %w", initial, err)
	}
	return v, nil
}
