package plugin

import (
	"slices"
	"time"

	"github.com/compozy/releasepipe/internal/domain"
	"github.com/compozy/releasepipe/internal/pipeline"
	"github.com/compozy/releasepipe/internal/repository"
	"github.com/compozy/releasepipe/internal/service"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Credentials are the secrets plugins may need.
type Credentials struct {
	GithubToken string
	NpmToken    string
}

// ChangeSet records what prepare did to the worktree so it can be undone.
type ChangeSet struct {
	Files     []string
	CommitSHA string
}

// RecordFile adds path once.
func (c *ChangeSet) RecordFile(path string) {
	if !slices.Contains(c.Files, path) {
		c.Files = append(c.Files, path)
	}
}

// Context is the state shared by every plugin during a run. Paths are
// relative to the repository root, which is the root of FS.
type Context struct {
	Logger      *zap.Logger
	FS          afero.Fs
	Git         repository.GitExtendedRepository
	GitHub      repository.GithubExtendedRepository
	Runner      service.CommandRunner
	Credentials Credentials

	Branch      string
	Now         time.Time
	DryRun      bool
	Commits     []domain.Commit
	LastRelease *domain.LastRelease
	NextRelease *domain.NextRelease
	Releases    []domain.PublishedRelease
	Changes     ChangeSet
}

// TemplateData exposes the release state to ${...} templates.
func (rc *Context) TemplateData() pipeline.TemplateData {
	last := map[string]any{"version": "", "gitTag": "", "gitHead": ""}
	if rc.LastRelease != nil {
		last["gitTag"] = rc.LastRelease.GitTag
		last["gitHead"] = rc.LastRelease.GitHead
		if rc.LastRelease.Version != nil {
			last["version"] = rc.LastRelease.Version.Plain()
		}
	}
	next := map[string]any{"version": "", "gitTag": "", "gitHead": "", "type": "", "notes": ""}
	if rc.NextRelease != nil {
		next["gitTag"] = rc.NextRelease.GitTag
		next["gitHead"] = rc.NextRelease.GitHead
		next["type"] = string(rc.NextRelease.Type)
		next["notes"] = rc.NextRelease.Notes
		if rc.NextRelease.Version != nil {
			next["version"] = rc.NextRelease.Version.Plain()
		}
	}
	return pipeline.TemplateData{
		"lastRelease": last,
		"nextRelease": next,
		"branch":      map[string]any{"name": rc.Branch},
	}
}

func (rc *Context) logger(name string) *zap.Logger {
	if rc.Logger == nil {
		return zap.NewNop()
	}
	return rc.Logger.With(zap.String("plugin", name))
}
