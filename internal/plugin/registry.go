package plugin

import (
	"fmt"
	"sort"

	"github.com/compozy/releasepipe/internal/domain"
	"github.com/compozy/releasepipe/internal/pipeline"
)

// Factory builds a plugin from its raw options.
type Factory func(options map[string]any) (Plugin, error)

// Registry maps plugin identifiers to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns a registry holding every built-in plugin.
func NewRegistry() *Registry {
	r := &Registry{factories: map[string]Factory{}}
	r.Register(pipeline.PluginCommitAnalyzer, NewCommitAnalyzer)
	r.Register(pipeline.PluginReleaseNotes, NewReleaseNotesGenerator)
	r.Register(pipeline.PluginChangelog, NewChangelog)
	r.Register(pipeline.PluginReplace, NewReplace)
	r.Register(pipeline.PluginGit, NewGit)
	r.Register(pipeline.PluginGithub, NewGithub)
	r.Register(pipeline.PluginNpm, NewNpm)
	r.Register(pipeline.PluginGitCliff, NewGitCliff)
	r.Register(pipeline.PluginGoReleaser, NewGoReleaser)
	return r
}

// Register adds or replaces a factory.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// Has reports whether name resolves.
func (r *Registry) Has(name string) bool {
	_, ok := r.factories[name]
	return ok
}

// Names lists the registered identifiers.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve instantiates the configured steps in order.
func (r *Registry) Resolve(cfg *domain.ReleaseConfig) ([]Plugin, error) {
	plugins := make([]Plugin, 0, len(cfg.Plugins))
	for i, step := range cfg.Plugins {
		f, ok := r.factories[step.Name]
		if !ok {
			return nil, fmt.Errorf("plugin #%d: %w: %s", i+1, pipeline.ErrUnknownPlugin, step.Name)
		}
		p, err := f(step.Options)
		if err != nil {
			return nil, fmt.Errorf("plugin #%d (%s): %w", i+1, step.Name, err)
		}
		plugins = append(plugins, p)
	}
	return plugins, nil
}
