package plugin

import (
	"context"
	"errors"
	"fmt"

	"github.com/compozy/releasepipe/internal/pipeline"
	"github.com/compozy/releasepipe/internal/repository"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// DefaultGitMessage is the release commit message template.
const DefaultGitMessage = "chore(release): ${nextRelease.version} [skip ci]\n\n${nextRelease.notes}"

type gitOptions struct {
	Assets  any    `mapstructure:"assets"`
	Message string `mapstructure:"message"`
}

type gitPlugin struct {
	assets  []string
	message string
}

// NewGit builds the plugin that commits release assets and pushes the branch.
func NewGit(options map[string]any) (Plugin, error) {
	var opts gitOptions
	if err := decodeOptions(pipeline.PluginGit, options, &opts); err != nil {
		return nil, err
	}
	assets, err := stringList(opts.Assets, pipeline.DefaultGitAssets)
	if err != nil {
		return nil, fmt.Errorf("malformed options for %s: assets: %w", pipeline.PluginGit, err)
	}
	if opts.Message == "" {
		opts.Message = DefaultGitMessage
	}
	return &gitPlugin{assets: assets, message: opts.Message}, nil
}

func (p *gitPlugin) Name() string { return pipeline.PluginGit }

// VerifyConditions checks the message template and push access.
func (p *gitPlugin) VerifyConditions(_ context.Context, rc *Context) error {
	if _, err := pipeline.RenderTemplate(p.message, rc.TemplateData()); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}
	if rc.Git == nil {
		return fmt.Errorf("git repository is not available")
	}
	return nil
}

// Prepare stages the modified assets, commits them and pushes the branch.
func (p *gitPlugin) Prepare(ctx context.Context, rc *Context) error {
	log := rc.logger(p.Name())
	files, err := expandFiles(rc.FS, p.assets)
	if err != nil {
		return err
	}
	var changed []string
	for _, f := range files {
		status, err := rc.Git.GetFileStatus(ctx, f)
		if err != nil {
			return err
		}
		if status != "clean" {
			changed = append(changed, f)
		}
	}
	if rc.DryRun {
		log.Info("dry run: would commit release assets", zap.Strings("files", changed))
		return nil
	}
	if len(changed) == 0 {
		log.Info("no release assets changed, skipping commit")
		return nil
	}
	message, err := pipeline.RenderTemplate(p.message, rc.TemplateData())
	if err != nil {
		return fmt.Errorf("failed to render commit message: %w", err)
	}
	for _, f := range changed {
		if err := rc.Git.AddFiles(ctx, f); err != nil {
			return err
		}
	}
	sha, err := rc.Git.Commit(ctx, message)
	if errors.Is(err, repository.ErrNothingToCommit) {
		log.Info("nothing to commit")
		return nil
	}
	if err != nil {
		return err
	}
	rc.Changes.CommitSHA = sha
	if rc.NextRelease != nil {
		rc.NextRelease.GitHead = sha
	}
	log.Info("created release commit", zap.String("commit", shortHash(sha)), zap.Strings("files", changed))
	err = withNetworkRetry(ctx, func(ctx context.Context) error {
		if err := rc.Git.PushBranch(ctx, rc.Branch); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to push release commit: %w", err)
	}
	return nil
}

// stringList accepts false, a string or a list of strings. nil yields def.
func stringList(v any, def []string) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return def, nil
	case bool:
		if t {
			return nil, fmt.Errorf("expected false, a string or a list")
		}
		return nil, nil
	case string:
		return []string{t}, nil
	case []string:
		return t, nil
	case []any:
		out := make([]string, 0, len(t))
		for i, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("item %d is not a string", i)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected false, a string or a list, got %T", v)
	}
}
