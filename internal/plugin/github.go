package plugin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/compozy/releasepipe/internal/domain"
	"github.com/compozy/releasepipe/internal/pipeline"
	"github.com/compozy/releasepipe/internal/repository"
	"github.com/compozy/releasepipe/internal/usecase"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// DefaultFailComment is posted on failIssueNumber when a release fails.
const DefaultFailComment = "The automated release from the `${branch.name}` branch failed.\n\n${errors}"

type githubOptions struct {
	DraftRelease        bool   `mapstructure:"draftRelease"`
	AddReleases         any    `mapstructure:"addReleases"`
	ReleaseNameTemplate string `mapstructure:"releaseNameTemplate"`
	ReleaseBodyTemplate string `mapstructure:"releaseBodyTemplate"`
	FailComment         any    `mapstructure:"failComment"`
	FailIssueNumber     int    `mapstructure:"failIssueNumber"`
}

type githubPlugin struct {
	draft           bool
	addReleases     string
	nameTemplate    string
	bodyTemplate    string
	failComment     string
	failIssueNumber int
	published       *domain.PublishedRelease
}

// NewGithub builds the plugin that publishes GitHub releases.
func NewGithub(options map[string]any) (Plugin, error) {
	var opts githubOptions
	if err := decodeOptions(pipeline.PluginGithub, options, &opts); err != nil {
		return nil, err
	}
	p := &githubPlugin{
		draft:           opts.DraftRelease,
		nameTemplate:    opts.ReleaseNameTemplate,
		bodyTemplate:    opts.ReleaseBodyTemplate,
		failIssueNumber: opts.FailIssueNumber,
		failComment:     DefaultFailComment,
	}
	if p.nameTemplate == "" {
		p.nameTemplate = "${nextRelease.gitTag}"
	}
	if p.bodyTemplate == "" {
		p.bodyTemplate = "${nextRelease.notes}"
	}
	switch v := opts.AddReleases.(type) {
	case nil:
	case bool:
		if v {
			return nil, fmt.Errorf("addReleases must be false, %q or %q", usecase.ReleasesPositionTop, usecase.ReleasesPositionBottom)
		}
	case string:
		if v != usecase.ReleasesPositionTop && v != usecase.ReleasesPositionBottom {
			return nil, fmt.Errorf("addReleases must be false, %q or %q", usecase.ReleasesPositionTop, usecase.ReleasesPositionBottom)
		}
		p.addReleases = v
	default:
		return nil, fmt.Errorf("addReleases must be false or a string, got %T", v)
	}
	switch v := opts.FailComment.(type) {
	case nil:
	case bool:
		if !v {
			p.failComment = ""
		}
	case string:
		p.failComment = v
	default:
		return nil, fmt.Errorf("failComment must be false or a string, got %T", v)
	}
	if p.failIssueNumber < 0 {
		return nil, fmt.Errorf("failIssueNumber must be positive")
	}
	return p, nil
}

func (p *githubPlugin) Name() string { return pipeline.PluginGithub }

// VerifyConditions requires a token and valid templates.
func (p *githubPlugin) VerifyConditions(_ context.Context, rc *Context) error {
	if rc.Credentials.GithubToken == "" {
		return fmt.Errorf("%w: set GITHUB_TOKEN or GH_TOKEN", repository.ErrGithubTokenRequired)
	}
	if rc.GitHub == nil {
		return fmt.Errorf("github repository is not configured")
	}
	data := rc.TemplateData()
	for _, tmpl := range []string{p.nameTemplate, p.bodyTemplate} {
		if _, err := pipeline.RenderTemplate(tmpl, data); err != nil {
			return err
		}
	}
	if p.failComment != "" {
		data["errors"] = ""
		if _, err := pipeline.RenderTemplate(p.failComment, data); err != nil {
			return fmt.Errorf("invalid failComment: %w", err)
		}
	}
	return nil
}

// Publish creates the GitHub release for the pushed tag.
func (p *githubPlugin) Publish(ctx context.Context, rc *Context) (*domain.PublishedRelease, error) {
	log := rc.logger(p.Name())
	data := rc.TemplateData()
	name, err := pipeline.RenderTemplate(p.nameTemplate, data)
	if err != nil {
		return nil, err
	}
	body, err := pipeline.RenderTemplate(p.bodyTemplate, data)
	if err != nil {
		return nil, err
	}
	tag := rc.NextRelease.GitTag
	if rc.DryRun {
		log.Info("dry run: would create GitHub release", zap.String("tag", tag), zap.Bool("draft", p.draft))
		return nil, nil
	}
	var rel *repository.GithubRelease
	err = withNetworkRetry(ctx, func(ctx context.Context) error {
		var err error
		rel, err = rc.GitHub.CreateRelease(ctx, tag, name, body, p.draft)
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info("published GitHub release", zap.String("tag", tag), zap.String("url", rel.URL))
	p.published = &domain.PublishedRelease{
		Plugin: p.Name(),
		Name:   "GitHub release",
		URL:    rel.URL,
		ID:     rel.ID,
	}
	return p.published, nil
}

// Success links the releases published by the other plugins.
func (p *githubPlugin) Success(ctx context.Context, rc *Context) error {
	if p.addReleases == "" || p.published == nil || p.draft {
		return nil
	}
	var others []domain.PublishedRelease
	for _, r := range rc.Releases {
		if r.Plugin != p.Name() {
			others = append(others, r)
		}
	}
	if len(others) == 0 {
		return nil
	}
	uc := &usecase.PrepareReleaseBodyUseCase{}
	rel, err := rc.GitHub.GetReleaseByTag(ctx, rc.NextRelease.GitTag)
	if err != nil {
		return err
	}
	body, err := uc.Execute(rel.Body, others, p.addReleases)
	if err != nil {
		return err
	}
	if body == rel.Body {
		return nil
	}
	return rc.GitHub.EditReleaseBody(ctx, p.published.ID, body)
}

// Fail comments on the configured issue.
func (p *githubPlugin) Fail(ctx context.Context, rc *Context, cause error) error {
	if p.failComment == "" || p.failIssueNumber == 0 {
		return nil
	}
	data := rc.TemplateData()
	data["errors"] = formatErrors(cause)
	body, err := pipeline.RenderTemplate(p.failComment, data)
	if err != nil {
		return err
	}
	if rc.DryRun {
		rc.logger(p.Name()).Info("dry run: would comment on failure issue", zap.Int("issue", p.failIssueNumber))
		return nil
	}
	return rc.GitHub.AddComment(ctx, p.failIssueNumber, body)
}

func formatErrors(err error) string {
	if err == nil {
		return ""
	}
	var lines []string
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, e := range joined.Unwrap() {
			lines = append(lines, "- "+e.Error())
		}
	} else {
		lines = append(lines, "- "+err.Error())
	}
	return strings.Join(lines, "\n")
}
