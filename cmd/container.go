package cmd

import (
	"fmt"
	"os"

	"github.com/compozy/releasepipe/internal/config"
	"github.com/compozy/releasepipe/internal/orchestrator"
	"github.com/compozy/releasepipe/internal/plugin"
	"github.com/compozy/releasepipe/internal/repository"
	"github.com/compozy/releasepipe/internal/service"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// container holds all the dependencies for the application.
type container struct {
	cfg    *config.Config
	logger *zap.Logger

	fs       afero.Fs
	gitRepo  repository.GitExtendedRepository
	ghRepo   repository.GithubExtendedRepository
	runner   service.CommandRunner
	registry *plugin.Registry
}

// newContainer creates a new container with all the dependencies.
func newContainer() (*container, error) {
	logger, err := newLogger(verbose)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	gitRepo, err := repository.NewGitExtendedRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository: %w", err)
	}
	// GitHub access is optional - plugins that need it fail their conditions
	ghRepo := repository.NewGithubNoopExtendedRepository(cfg.GithubOwner, cfg.GithubRepo)
	if cfg.ValidateForGitHubOperations() == nil {
		ghRepo, err = repository.NewGithubExtendedRepository(cfg.GithubToken, cfg.GithubOwner, cfg.GithubRepo)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize GitHub repository: %w", err)
		}
	} else if cfg.GithubToken != "" {
		logger.Warn("GitHub token set but repository is unknown, GitHub features disabled")
	}
	return &container{
		cfg:      cfg,
		logger:   logger,
		fs:       afero.NewBasePathFs(afero.NewOsFs(), wd),
		gitRepo:  gitRepo,
		ghRepo:   ghRepo,
		runner:   service.NewExecRunner(),
		registry: plugin.NewRegistry(),
	}, nil
}

func (c *container) releaseOrchestrator() *orchestrator.ReleaseOrchestrator {
	return orchestrator.NewReleaseOrchestrator(
		c.fs,
		c.gitRepo,
		c.ghRepo,
		c.runner,
		c.registry,
		plugin.Credentials{GithubToken: c.cfg.GithubToken, NpmToken: c.cfg.NpmToken},
		c.logger,
	)
}

// newLogger writes human-readable logs to stderr, keeping stdout for CI output.
func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// InitCommands initializes all commands with their dependencies
func InitCommands() error {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	rootCmd.AddCommand(
		newReleaseCmd(newContainer),
		newVerifyConfigCmd(),
		newVersionCmd(),
	)
	return nil
}
