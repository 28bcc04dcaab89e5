package plugin

import (
	"context"
	"fmt"

	"github.com/compozy/releasepipe/internal/domain"
	"github.com/compozy/releasepipe/internal/pipeline"
	"github.com/compozy/releasepipe/internal/service"
	"go.uber.org/zap"
)

type gitCliffOptions struct {
	Config  string `mapstructure:"config"`
	Analyze bool   `mapstructure:"analyze"`
}

type gitCliff struct {
	config  string
	analyze bool
}

// NewGitCliff builds the plugin that delegates notes to the git-cliff binary.
func NewGitCliff(options map[string]any) (Plugin, error) {
	var opts gitCliffOptions
	if err := decodeOptions(pipeline.PluginGitCliff, options, &opts); err != nil {
		return nil, err
	}
	return &gitCliff{config: opts.Config, analyze: opts.Analyze}, nil
}

func (p *gitCliff) Name() string { return pipeline.PluginGitCliff }

func (p *gitCliff) service(rc *Context) service.CliffService {
	return service.NewCliffService(rc.Runner, p.config)
}

// VerifyConditions checks that the configured cliff.toml exists.
func (p *gitCliff) VerifyConditions(_ context.Context, rc *Context) error {
	if p.config == "" {
		return nil
	}
	if _, err := rc.FS.Stat(p.config); err != nil {
		return fmt.Errorf("git-cliff config %s: %w", p.config, err)
	}
	return nil
}

// AnalyzeCommits derives the release type from git-cliff's bumped version
// when the analyze option is set.
func (p *gitCliff) AnalyzeCommits(ctx context.Context, rc *Context) (domain.ReleaseType, error) {
	if !p.analyze {
		return domain.ReleaseTypeNone, nil
	}
	bumped, err := p.service(rc).BumpedVersion(ctx)
	if err != nil {
		return domain.ReleaseTypeNone, err
	}
	if rc.LastRelease == nil || rc.LastRelease.Version == nil {
		return domain.ReleaseTypeMinor, nil
	}
	last := rc.LastRelease.Version
	rt := domain.ReleaseTypeNone
	switch {
	case bumped.Major() > last.Major():
		rt = domain.ReleaseTypeMajor
	case bumped.Major() == last.Major() && bumped.Minor() > last.Minor():
		rt = domain.ReleaseTypeMinor
	case bumped.Compare(last) > 0:
		rt = domain.ReleaseTypePatch
	}
	rc.logger(p.Name()).Info("git-cliff bumped version",
		zap.String("version", bumped.Plain()), zap.String("release", string(rt)))
	return rt, nil
}

// GenerateNotes renders the notes for the commits since the last release.
func (p *gitCliff) GenerateNotes(ctx context.Context, rc *Context) (string, error) {
	from := ""
	if rc.LastRelease != nil {
		from = rc.LastRelease.GitTag
	}
	return p.service(rc).GenerateNotes(ctx, from, rc.NextRelease.GitTag)
}
