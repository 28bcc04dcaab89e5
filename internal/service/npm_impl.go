package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/afero"
)

var validDistTag = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9._\-]*$`)

type npmService struct {
	fs      afero.Fs
	runner  CommandRunner
	token   string
	timeout time.Duration
}

// NewNpmService creates a new NpmService rooted at fs. token, when set, is
// exported as NODE_AUTH_TOKEN for registries configured by actions/setup-node.
func NewNpmService(fs afero.Fs, runner CommandRunner, token string) NpmService {
	return &npmService{
		fs:      fs,
		runner:  runner,
		token:   token,
		timeout: DefaultNPMTimeout,
	}
}

// packageDir resolves pkgRoot inside the project filesystem and returns the
// directory npm runs in. On a BasePathFs that is the real directory; symlinks
// may not lead out of the base.
func (s *npmService) packageDir(pkgRoot string) (string, error) {
	root := filepath.Clean(filepath.FromSlash(pkgRoot))
	if filepath.IsAbs(root) || root == ".." || strings.HasPrefix(root, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside the project directory", pkgRoot)
	}
	found, err := afero.Exists(s.fs, filepath.Join(root, "package.json"))
	if err != nil {
		return "", fmt.Errorf("failed to check package.json: %w", err)
	}
	if !found {
		return "", fmt.Errorf("package.json not found in %s", root)
	}
	base, ok := s.fs.(*afero.BasePathFs)
	if !ok {
		return root, nil
	}
	dir, err := base.RealPath(root)
	if err != nil {
		return "", err
	}
	project, err := base.RealPath(".")
	if err != nil {
		return "", err
	}
	resolvedDir, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	resolvedProject, err := filepath.EvalSymlinks(project)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", project, err)
	}
	if resolvedDir != resolvedProject &&
		!strings.HasPrefix(resolvedDir, resolvedProject+string(filepath.Separator)) {
		return "", fmt.Errorf("%s resolves outside the project directory", pkgRoot)
	}
	return resolvedDir, nil
}

// Publish runs npm publish in the package directory.
func (s *npmService) Publish(ctx context.Context, pkgRoot, distTag string) error {
	dir, err := s.packageDir(pkgRoot)
	if err != nil {
		return fmt.Errorf("invalid package path: %w", err)
	}
	args := []string{"publish", "--access", "public"}
	if distTag != "" {
		if !validDistTag.MatchString(distTag) {
			return fmt.Errorf("invalid dist-tag: %s", distTag)
		}
		args = append(args, "--tag", distTag)
	}
	var env []string
	if s.token != "" && os.Getenv("NODE_AUTH_TOKEN") == "" {
		env = append(env, "NODE_AUTH_TOKEN="+s.token)
	}
	_, err = s.runner.Run(ctx, Command{
		Name:    "npm",
		Args:    args,
		Dir:     dir,
		Env:     env,
		Stream:  os.Getenv("GITHUB_ACTIONS") == githubActionsTrue,
		Timeout: s.timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to publish npm package at %s: %w", dir, err)
	}
	return nil
}
