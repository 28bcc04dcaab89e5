package service

import (
	"context"
	"fmt"
)

// goReleaserService implements the GoReleaserService interface
type goReleaserService struct {
	runner CommandRunner
	env    []string
}

// NewGoReleaserService creates a new GoReleaserService. env is passed to
// goreleaser in addition to the process environment.
func NewGoReleaserService(runner CommandRunner, env ...string) GoReleaserService {
	return &goReleaserService{runner: runner, env: env}
}

// Run executes goreleaser with the provided arguments
func (s *goReleaserService) Run(ctx context.Context, args ...string) error {
	_, err := s.runner.Run(ctx, Command{
		Name:    "goreleaser",
		Args:    args,
		Env:     s.env,
		Stream:  true,
		Timeout: DefaultGoReleaserTimeout,
	})
	if err != nil {
		return fmt.Errorf("goreleaser failed: %w", err)
	}
	return nil
}
