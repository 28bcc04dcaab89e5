package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/compozy/releasepipe/internal/domain"
	"github.com/compozy/releasepipe/internal/pipeline"
	"github.com/compozy/releasepipe/internal/plugin"
	"github.com/compozy/releasepipe/internal/repository"
	"github.com/compozy/releasepipe/internal/service"
	"github.com/compozy/releasepipe/internal/usecase"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

var (
	// ErrNoRelease means no commit since the last release calls for a new one.
	ErrNoRelease = errors.New("no release")
	// ErrBranchNotAllowed means the current branch is not a release branch.
	ErrBranchNotAllowed = errors.New("branch is not configured for releases")
	// ErrTagExists means the computed tag was already created.
	ErrTagExists = errors.New("tag already exists")
)

// ReleaseConfig contains the options of a release run.
type ReleaseConfig struct {
	ConfigPath     string // Pipeline file; discovered when empty
	Branch         string // Overrides the checked out branch
	DryRun         bool
	CIOutput       bool
	NoCI           bool // Allow publishing outside a CI environment
	EnableRollback bool // Persist a saga session and compensate on failure
	Rollback       bool // Roll back a persisted session instead of releasing
	SessionID      string
	InitialVersion string
}

// ReleaseResult summarizes a finished run.
type ReleaseResult struct {
	Released    bool
	DryRun      bool
	SessionID   string
	LastRelease *domain.LastRelease
	NextRelease *domain.NextRelease
	Releases    []domain.PublishedRelease
}

// ReleaseOrchestrator runs the configured plugins through the release lifecycle.
type ReleaseOrchestrator struct {
	fs          afero.Fs
	gitRepo     repository.GitExtendedRepository
	githubRepo  repository.GithubExtendedRepository
	runner      service.CommandRunner
	registry    *plugin.Registry
	stateRepo   repository.StateRepository
	credentials plugin.Credentials
	logger      *zap.Logger
	out         io.Writer
	now         func() time.Time
}

// NewReleaseOrchestrator creates a new release orchestrator. fs must be rooted
// at the repository.
func NewReleaseOrchestrator(
	fs afero.Fs,
	gitRepo repository.GitExtendedRepository,
	githubRepo repository.GithubExtendedRepository,
	runner service.CommandRunner,
	registry *plugin.Registry,
	credentials plugin.Credentials,
	logger *zap.Logger,
) *ReleaseOrchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReleaseOrchestrator{
		fs:          fs,
		gitRepo:     gitRepo,
		githubRepo:  githubRepo,
		runner:      runner,
		registry:    registry,
		stateRepo:   repository.NewJSONStateRepository(fs, repository.DefaultStateDir, logger),
		credentials: credentials,
		logger:      logger,
		out:         os.Stdout,
		now:         time.Now,
	}
}

// LoadPipeline discovers, parses and validates the pipeline configuration.
func (o *ReleaseOrchestrator) LoadPipeline(path string) (*domain.ReleaseConfig, string, error) {
	cfg, source, err := pipeline.Load(o.fs, path)
	if err != nil {
		return nil, "", err
	}
	if err := pipeline.Validate(cfg, o.registry.Has); err != nil {
		return nil, "", fmt.Errorf("invalid release configuration %s: %w", source, err)
	}
	return cfg, source, nil
}

// Execute runs a release, or a rollback when cfg.Rollback is set.
func (o *ReleaseOrchestrator) Execute(ctx context.Context, cfg ReleaseConfig) (*ReleaseResult, error) {
	if cfg.Rollback {
		return nil, o.performRollback(ctx, cfg.SessionID)
	}
	timeout := ReleaseWorkflowTimeout
	if cfg.DryRun {
		timeout = DefaultWorkflowTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pipelineCfg, source, err := o.LoadPipeline(cfg.ConfigPath)
	if err != nil {
		return nil, err
	}
	plugins, err := o.registry.Resolve(pipelineCfg)
	if err != nil {
		return nil, err
	}
	o.logger.Info("Loaded release configuration",
		zap.String("path", source), zap.Strings("plugins", pipelineCfg.PluginNames()))

	branch, err := o.resolveBranch(ctx, cfg.Branch)
	if err != nil {
		return nil, err
	}
	if !pipeline.MatchBranch(pipelineCfg, branch) {
		return nil, fmt.Errorf("%w: %s (allowed: %s)",
			ErrBranchNotAllowed, branch, strings.Join(pipelineCfg.Branches, ", "))
	}

	dryRun := cfg.DryRun
	if !dryRun && !cfg.NoCI && !isCI() {
		o.logger.Warn("Not running in a CI environment, switching to dry-run mode")
		dryRun = true
	}

	rc, err := o.newContext(ctx, pipelineCfg, branch, dryRun)
	if err != nil {
		return nil, err
	}

	saga := NewSagaExecutor(o.stateRepo, cfg.EnableRollback && !dryRun, o.logger)
	saga.SetBranch(branch)
	NewCompensatingActions(o.gitRepo, o.githubRepo, o.logger).Register(saga)
	o.addSteps(saga, rc, pipelineCfg, plugins, cfg.InitialVersion)

	result := &ReleaseResult{DryRun: dryRun, SessionID: saga.SessionID(), LastRelease: rc.LastRelease}
	if err := saga.Execute(ctx); err != nil {
		o.notifyFailure(ctx, rc, plugins, err)
		if cfg.EnableRollback && !dryRun {
			return result, fmt.Errorf("release failed (session %s): %w", saga.SessionID(), err)
		}
		return result, fmt.Errorf("release failed: %w", err)
	}
	if saga.Halted() || rc.NextRelease == nil {
		o.logger.Info("No release published", zap.String("branch", branch))
		o.printCIOutput(cfg.CIOutput, "released=false\n")
		return result, nil
	}

	if !dryRun {
		if err := o.notifySuccess(ctx, rc, plugins); err != nil {
			o.notifyFailure(ctx, rc, plugins, err)
			return result, err
		}
	}

	result.Released = !dryRun
	result.NextRelease = rc.NextRelease
	result.Releases = rc.Releases
	o.printCIOutput(cfg.CIOutput, "released=%t\n", result.Released)
	o.printCIOutput(cfg.CIOutput, "version=%s\n", rc.NextRelease.Version.Plain())
	o.printCIOutput(cfg.CIOutput, "tag=%s\n", rc.NextRelease.GitTag)
	o.printCIOutput(cfg.CIOutput, "type=%s\n", rc.NextRelease.Type)
	if dryRun {
		o.logger.Info("Dry-run complete",
			zap.String("version", rc.NextRelease.Version.Plain()),
			zap.String("tag", rc.NextRelease.GitTag))
		o.printStatus(cfg.CIOutput, "Release notes for "+rc.NextRelease.GitTag+":\n\n"+rc.NextRelease.Notes)
		return result, nil
	}
	o.logger.Info("Release published",
		zap.String("version", rc.NextRelease.Version.Plain()),
		zap.String("tag", rc.NextRelease.GitTag),
		zap.Int("publishers", len(rc.Releases)))
	return result, nil
}

func (o *ReleaseOrchestrator) newContext(
	ctx context.Context,
	cfg *domain.ReleaseConfig,
	branch string,
	dryRun bool,
) (*plugin.Context, error) {
	last, err := (&usecase.FindLastReleaseUseCase{GitRepo: o.gitRepo, TagFormat: cfg.TagFormat}).Execute(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find last release: %w", err)
	}
	commits, err := (&usecase.CollectCommitsUseCase{GitRepo: o.gitRepo}).Execute(ctx, last)
	if err != nil {
		return nil, fmt.Errorf("failed to collect commits: %w", err)
	}
	if last != nil {
		o.logger.Info("Found last release", zap.String("tag", last.GitTag))
	} else {
		o.logger.Info("No previous release found")
	}
	o.logger.Info("Collected commits", zap.Int("count", len(commits)))
	return &plugin.Context{
		Logger:      o.logger,
		FS:          o.fs,
		Git:         o.gitRepo,
		GitHub:      o.githubRepo,
		Runner:      o.runner,
		Credentials: o.credentials,
		Branch:      branch,
		Now:         o.now(),
		DryRun:      dryRun,
		Commits:     commits,
		LastRelease: last,
	}, nil
}

// forEach calls fn for every plugin implementing hook T, in pipeline order.
func forEach[T any](plugins []plugin.Plugin, fn func(name string, hook T)) {
	for _, p := range plugins {
		if hook, ok := p.(T); ok {
			fn(p.Name(), hook)
		}
	}
}

// addSteps turns every lifecycle phase invocation into a saga step.
func (o *ReleaseOrchestrator) addSteps(
	saga *SagaExecutor,
	rc *plugin.Context,
	cfg *domain.ReleaseConfig,
	plugins []plugin.Plugin,
	initialVersion string,
) {
	forEach(plugins, func(name string, h plugin.ConditionVerifier) {
		saga.AddStep(SagaStep{
			Name:   "verifyConditions " + name,
			Type:   domain.OperationTypeVerifyConditions,
			Plugin: name,
			Execute: func(ctx context.Context) (map[string]any, error) {
				return nil, h.VerifyConditions(ctx, rc)
			},
		})
	})

	releaseType := domain.ReleaseTypeNone
	forEach(plugins, func(name string, h plugin.CommitAnalyzer) {
		saga.AddStep(SagaStep{
			Name:   "analyzeCommits " + name,
			Type:   domain.OperationTypeAnalyzeCommits,
			Plugin: name,
			Execute: func(ctx context.Context) (map[string]any, error) {
				rt, err := h.AnalyzeCommits(ctx, rc)
				if err != nil {
					return nil, err
				}
				releaseType = releaseType.Higher(rt)
				return map[string]any{"release_type": string(rt)}, nil
			},
		})
	})
	saga.AddStep(SagaStep{
		Name: "determine next release",
		Type: domain.OperationTypeAnalyzeCommits,
		Execute: func(ctx context.Context) (map[string]any, error) {
			if releaseType == domain.ReleaseTypeNone {
				return nil, fmt.Errorf("%w: %w", ErrNoRelease, ErrHalt)
			}
			next, err := o.nextRelease(ctx, rc, cfg.TagFormat, releaseType, initialVersion)
			if err != nil {
				return nil, err
			}
			rc.NextRelease = next
			saga.SetRelease(next.Version.Plain(), next.GitTag)
			o.logger.Info("Next release determined",
				zap.String("type", string(next.Type)),
				zap.String("version", next.Version.Plain()),
				zap.String("tag", next.GitTag))
			return map[string]any{rollbackKeyTag: next.GitTag}, nil
		},
	})

	forEach(plugins, func(name string, h plugin.ReleaseVerifier) {
		saga.AddStep(SagaStep{
			Name:   "verifyRelease " + name,
			Type:   domain.OperationTypeVerifyRelease,
			Plugin: name,
			Execute: func(ctx context.Context) (map[string]any, error) {
				return nil, h.VerifyRelease(ctx, rc)
			},
		})
	})

	forEach(plugins, func(name string, h plugin.NotesGenerator) {
		saga.AddStep(SagaStep{
			Name:   "generateNotes " + name,
			Type:   domain.OperationTypeGenerateNotes,
			Plugin: name,
			Execute: func(ctx context.Context) (map[string]any, error) {
				notes, err := h.GenerateNotes(ctx, rc)
				if err != nil {
					return nil, err
				}
				rc.NextRelease.Notes = joinNotes(rc.NextRelease.Notes, notes)
				return nil, nil
			},
		})
	})

	forEach(plugins, func(name string, h plugin.Preparer) {
		saga.AddStep(SagaStep{
			Name:   "prepare " + name,
			Type:   domain.OperationTypePrepare,
			Plugin: name,
			Execute: func(ctx context.Context) (map[string]any, error) {
				before := rc.Changes
				before.Files = append([]string(nil), rc.Changes.Files...)
				err := h.Prepare(ctx, rc)
				return changeData(before, rc.Changes), err
			},
		})
	})

	saga.AddStep(SagaStep{
		Name:    "create tag",
		Type:    domain.OperationTypeCreateTag,
		Execute: func(ctx context.Context) (map[string]any, error) { return o.createTag(ctx, rc) },
	})
	saga.AddStep(SagaStep{
		Name:      "push tag",
		Type:      domain.OperationTypePushTag,
		Retryable: true,
		Execute: func(ctx context.Context) (map[string]any, error) {
			if rc.DryRun {
				o.logger.Info("Skipping tag push in dry-run mode", zap.String("tag", rc.NextRelease.GitTag))
				return nil, nil
			}
			if err := o.gitRepo.PushTag(ctx, rc.NextRelease.GitTag); err != nil {
				return nil, err
			}
			return map[string]any{rollbackKeyTag: rc.NextRelease.GitTag}, nil
		},
	})

	forEach(plugins, func(name string, h plugin.Publisher) {
		saga.AddStep(SagaStep{
			Name:   "publish " + name,
			Type:   domain.OperationTypePublish,
			Plugin: name,
			Execute: func(ctx context.Context) (map[string]any, error) {
				release, err := h.Publish(ctx, rc)
				if err != nil {
					return nil, err
				}
				data := map[string]any{rollbackKeyPlugin: name, rollbackKeyTag: rc.NextRelease.GitTag}
				if release != nil {
					if release.Plugin == "" {
						release.Plugin = name
					}
					rc.Releases = append(rc.Releases, *release)
					data[rollbackKeyURL] = release.URL
				}
				return data, nil
			},
		})
	})
}

func (o *ReleaseOrchestrator) nextRelease(
	ctx context.Context,
	rc *plugin.Context,
	tagFormat string,
	releaseType domain.ReleaseType,
	initialVersion string,
) (*domain.NextRelease, error) {
	version, err := (&usecase.NextVersionUseCase{InitialVersion: initialVersion}).Execute(rc.LastRelease, releaseType)
	if err != nil {
		return nil, err
	}
	tag, err := pipeline.RenderTag(tagFormat, version.Plain())
	if err != nil {
		return nil, fmt.Errorf("failed to render tag: %w", err)
	}
	if err := pipeline.ValidateTagName(tag); err != nil {
		return nil, err
	}
	exists, err := o.gitRepo.TagExists(ctx, tag)
	if err != nil {
		return nil, fmt.Errorf("failed to check tag %s: %w", tag, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrTagExists, tag)
	}
	head, err := o.gitRepo.GetHeadCommit(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.NextRelease{Type: releaseType, Version: version, GitTag: tag, GitHead: head}, nil
}

func (o *ReleaseOrchestrator) createTag(ctx context.Context, rc *plugin.Context) (map[string]any, error) {
	tag := rc.NextRelease.GitTag
	if rc.DryRun {
		o.logger.Info("Skipping tag creation in dry-run mode", zap.String("tag", tag))
		return nil, nil
	}
	head, err := o.gitRepo.GetHeadCommit(ctx)
	if err != nil {
		return nil, err
	}
	if err := o.gitRepo.CreateTag(ctx, tag, ""); err != nil {
		return nil, err
	}
	rc.NextRelease.GitHead = head
	o.logger.Info("Created tag", zap.String("tag", tag), zap.String("commit", head))
	return map[string]any{rollbackKeyTag: tag}, nil
}

func (o *ReleaseOrchestrator) notifySuccess(ctx context.Context, rc *plugin.Context, plugins []plugin.Plugin) error {
	var errs []error
	forEach(plugins, func(name string, h plugin.SuccessNotifier) {
		if err := h.Success(ctx, rc); err != nil {
			errs = append(errs, fmt.Errorf("success %s: %w", name, err))
		}
	})
	return errors.Join(errs...)
}

// notifyFailure runs the fail hooks. Their errors are logged only.
func (o *ReleaseOrchestrator) notifyFailure(
	ctx context.Context,
	rc *plugin.Context,
	plugins []plugin.Plugin,
	cause error,
) {
	if rc.DryRun || errors.Is(cause, context.Canceled) {
		return
	}
	failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), RollbackTimeout)
	defer cancel()
	forEach(plugins, func(name string, h plugin.FailureNotifier) {
		if err := h.Fail(failCtx, rc, cause); err != nil {
			o.logger.Warn("Fail hook failed", zap.String("plugin", name), zap.Error(err))
		}
	})
}

// performRollback compensates a persisted session; empty sessionID selects the latest.
func (o *ReleaseOrchestrator) performRollback(ctx context.Context, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, RollbackTimeout)
	defer cancel()
	saga, err := LoadExistingSaga(ctx, o.stateRepo, sessionID, o.logger)
	if err != nil {
		return err
	}
	state := saga.GetState()
	if state.Status == domain.WorkflowStatusRolledBack {
		o.logger.Info("Session already rolled back", zap.String("session", state.SessionID))
		return nil
	}
	NewCompensatingActions(o.gitRepo, o.githubRepo, o.logger).Register(saga)
	if err := saga.Rollback(ctx); err != nil {
		return fmt.Errorf("rollback of session %s failed: %w", state.SessionID, err)
	}
	return nil
}

func (o *ReleaseOrchestrator) resolveBranch(ctx context.Context, override string) (string, error) {
	branch := override
	if branch == "" {
		current, err := o.gitRepo.GetCurrentBranch(ctx)
		if err != nil {
			ref := os.Getenv("GITHUB_REF_NAME")
			if ref == "" {
				return "", fmt.Errorf("failed to determine branch: %w", err)
			}
			current = ref
		}
		branch = current
	}
	if err := ValidateBranchName(branch); err != nil {
		return "", err
	}
	return branch, nil
}

// printCIOutput prints output in CI format if enabled
func (o *ReleaseOrchestrator) printCIOutput(ciOutput bool, format string, args ...any) {
	if ciOutput {
		fmt.Fprintf(o.out, format, args...)
	}
}

// printStatus prints status messages when not in CI mode
func (o *ReleaseOrchestrator) printStatus(ciOutput bool, message string) {
	if !ciOutput {
		fmt.Fprintln(o.out, message)
	}
}

func joinNotes(existing, notes string) string {
	notes = strings.TrimSpace(notes)
	switch {
	case notes == "":
		return existing
	case existing == "":
		return notes
	default:
		return existing + "\n\n" + notes
	}
}

// changeData is the part of the change set a prepare step added.
func changeData(before, after plugin.ChangeSet) map[string]any {
	data := map[string]any{}
	if len(after.Files) > len(before.Files) {
		data[rollbackKeyModifiedFiles] = append([]string(nil), after.Files[len(before.Files):]...)
	}
	if after.CommitSHA != "" && after.CommitSHA != before.CommitSHA {
		data[rollbackKeyCommitSHA] = after.CommitSHA
	}
	if len(data) == 0 {
		return nil
	}
	return data
}

func isCI() bool {
	return os.Getenv("CI") == "true" || os.Getenv("GITHUB_ACTIONS") == "true"
}
