package plugin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/compozy/releasepipe/internal/pipeline"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

type changelogOptions struct {
	ChangelogFile  string `mapstructure:"changelogFile"`
	ChangelogTitle string `mapstructure:"changelogTitle"`
}

type changelog struct {
	file  string
	title string
}

// NewChangelog builds the plugin that prepends release notes to a changelog file.
func NewChangelog(options map[string]any) (Plugin, error) {
	var opts changelogOptions
	if err := decodeOptions(pipeline.PluginChangelog, options, &opts); err != nil {
		return nil, err
	}
	if opts.ChangelogFile == "" {
		opts.ChangelogFile = pipeline.DefaultChangelogFile
	}
	return &changelog{file: opts.ChangelogFile, title: opts.ChangelogTitle}, nil
}

func (p *changelog) Name() string { return pipeline.PluginChangelog }

// VerifyConditions rejects paths that escape the repository.
func (p *changelog) VerifyConditions(_ context.Context, _ *Context) error {
	clean := filepath.Clean(p.file)
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("changelogFile %q must be inside the repository", p.file)
	}
	return nil
}

// Prepare writes the notes at the top of the changelog, below the title.
func (p *changelog) Prepare(_ context.Context, rc *Context) error {
	log := rc.logger(p.Name())
	if rc.NextRelease == nil || strings.TrimSpace(rc.NextRelease.Notes) == "" {
		log.Info("no release notes, changelog left untouched")
		return nil
	}
	current := ""
	data, err := afero.ReadFile(rc.FS, p.file)
	switch {
	case err == nil:
		current = strings.TrimSpace(string(data))
	case os.IsNotExist(err):
	default:
		return fmt.Errorf("failed to read %s: %w", p.file, err)
	}
	if p.title != "" {
		current = strings.TrimSpace(strings.TrimPrefix(current, p.title))
	}
	content := strings.TrimSpace(rc.NextRelease.Notes) + "\n"
	if current != "" {
		content += "\n" + current + "\n"
	}
	if p.title != "" {
		content = p.title + "\n\n" + content
	}
	if rc.DryRun {
		log.Info("dry run: would update changelog", zap.String("file", p.file))
		return nil
	}
	if dir := filepath.Dir(p.file); dir != "." {
		if err := rc.FS.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := afero.WriteFile(rc.FS, p.file, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", p.file, err)
	}
	rc.Changes.RecordFile(filepath.ToSlash(filepath.Clean(p.file)))
	log.Info("updated changelog", zap.String("file", p.file))
	return nil
}
