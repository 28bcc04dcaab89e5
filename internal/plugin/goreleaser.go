package plugin

import (
	"context"

	"github.com/compozy/releasepipe/internal/domain"
	"github.com/compozy/releasepipe/internal/pipeline"
	"github.com/compozy/releasepipe/internal/service"
	"go.uber.org/zap"
)

type goReleaserOptions struct {
	Args []string `mapstructure:"args"`
}

type goReleaser struct {
	args []string
}

// NewGoReleaser builds the plugin that runs goreleaser during publish.
func NewGoReleaser(options map[string]any) (Plugin, error) {
	var opts goReleaserOptions
	if err := decodeOptions(pipeline.PluginGoReleaser, options, &opts); err != nil {
		return nil, err
	}
	if len(opts.Args) == 0 {
		opts.Args = []string{"release", "--clean"}
	}
	return &goReleaser{args: opts.Args}, nil
}

func (p *goReleaser) Name() string { return pipeline.PluginGoReleaser }

// Publish runs goreleaser against the pushed tag.
func (p *goReleaser) Publish(ctx context.Context, rc *Context) (*domain.PublishedRelease, error) {
	log := rc.logger(p.Name())
	if rc.DryRun {
		log.Info("dry run: would run goreleaser", zap.Strings("args", p.args))
		return nil, nil
	}
	var env []string
	if rc.Credentials.GithubToken != "" {
		env = append(env, "GITHUB_TOKEN="+rc.Credentials.GithubToken)
	}
	if err := service.NewGoReleaserService(rc.Runner, env...).Run(ctx, p.args...); err != nil {
		return nil, err
	}
	log.Info("goreleaser finished", zap.String("tag", rc.NextRelease.GitTag))
	return nil, nil
}
