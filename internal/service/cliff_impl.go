package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/compozy/releasepipe/internal/domain"
)

var (
	validTag     = regexp.MustCompile(`^[a-zA-Z0-9._/@+\-]+$`)
	validVersion = regexp.MustCompile(`^v?\d+\.\d+\.\d+(-[a-zA-Z0-9.-]+)?(\+[a-zA-Z0-9.-]+)?$`)
)

// cliffService is the implementation of the CliffService interface.
type cliffService struct {
	runner  CommandRunner
	config  string
	timeout time.Duration
}

// NewCliffService creates a new CliffService. configPath may be empty to let
// git-cliff discover cliff.toml itself.
func NewCliffService(runner CommandRunner, configPath string) CliffService {
	return &cliffService{
		runner:  runner,
		config:  configPath,
		timeout: DefaultCliffTimeout,
	}
}

// sanitizeTag validates a git tag to prevent argument injection.
func sanitizeTag(tag string) error {
	if tag == "" {
		return nil
	}
	if !validTag.MatchString(tag) || strings.HasPrefix(tag, "-") {
		return fmt.Errorf("invalid tag format: %s", tag)
	}
	if strings.Contains(tag, "..") {
		return fmt.Errorf("invalid tag: contains directory traversal")
	}
	if len(tag) > 255 {
		return fmt.Errorf("tag too long: maximum 255 characters")
	}
	return nil
}

// sanitizeVersion validates a version string.
func sanitizeVersion(version string) error {
	if version == "" {
		return fmt.Errorf("version cannot be empty")
	}
	if len(version) > 100 {
		return fmt.Errorf("version too long: maximum 100 characters")
	}
	if !validVersion.MatchString(version) {
		return fmt.Errorf("invalid version format: %s", version)
	}
	return nil
}

func (s *cliffService) run(ctx context.Context, args ...string) (string, error) {
	if s.config != "" {
		args = append([]string{"--config", s.config}, args...)
	}
	out, err := s.runner.Run(ctx, Command{Name: "git-cliff", Args: args, Timeout: s.timeout})
	if err != nil {
		return "", fmt.Errorf("failed to execute git-cliff: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// BumpedVersion calculates the next version based on the commit history.
func (s *cliffService) BumpedVersion(ctx context.Context) (*domain.Version, error) {
	// --bumped-version alone; adding --tag makes git-cliff echo the tag back.
	out, err := s.run(ctx, "--bumped-version")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, fmt.Errorf("git-cliff returned empty version")
	}
	// git-cliff prints a tag; keep the trailing version part.
	if i := strings.LastIndexAny(out, "/-@"); i >= 0 && validVersion.MatchString(out[i+1:]) {
		out = out[i+1:]
	}
	if err := sanitizeVersion(out); err != nil {
		return nil, fmt.Errorf("git-cliff returned invalid version: %w", err)
	}
	return domain.NewVersion(out)
}

// GenerateNotes generates release notes for the range fromTag..HEAD.
func (s *cliffService) GenerateNotes(ctx context.Context, fromTag, tag string) (string, error) {
	if err := sanitizeTag(fromTag); err != nil {
		return "", fmt.Errorf("invalid previous tag: %w", err)
	}
	if tag == "" {
		return "", fmt.Errorf("tag required for release notes")
	}
	if err := sanitizeTag(tag); err != nil {
		return "", fmt.Errorf("invalid tag: %w", err)
	}
	args := []string{"--tag", tag, "--strip", "all"}
	if fromTag == "" {
		args = append(args, "--unreleased")
	} else {
		args = append(args, fromTag+"..HEAD")
	}
	notes, err := s.run(ctx, args...)
	if err != nil {
		return "", err
	}
	if notes == "" {
		return "", fmt.Errorf("git-cliff returned empty release notes")
	}
	return notes, nil
}
