package plugin

import (
	"context"
	"fmt"
	"strings"

	"github.com/compozy/releasepipe/internal/pipeline"
)

type releaseNotesOptions struct {
	Host           string `mapstructure:"host"`
	LinkCompare    *bool  `mapstructure:"linkCompare"`
	LinkReferences *bool  `mapstructure:"linkReferences"`
}

type notesSection struct {
	title string
	types []string
}

var notesSections = []notesSection{
	{title: "Features", types: []string{"feat"}},
	{title: "Bug Fixes", types: []string{"fix"}},
	{title: "Performance Improvements", types: []string{"perf"}},
	{title: "Reverts", types: []string{"revert"}},
}

type releaseNotesGenerator struct {
	host           string
	linkCompare    bool
	linkReferences bool
}

// NewReleaseNotesGenerator builds the markdown release notes generator.
func NewReleaseNotesGenerator(options map[string]any) (Plugin, error) {
	var opts releaseNotesOptions
	if err := decodeOptions(pipeline.PluginReleaseNotes, options, &opts); err != nil {
		return nil, err
	}
	host := strings.TrimSuffix(opts.Host, "/")
	if host == "" {
		host = "https://github.com"
	}
	return &releaseNotesGenerator{
		host:           host,
		linkCompare:    opts.LinkCompare == nil || *opts.LinkCompare,
		linkReferences: opts.LinkReferences == nil || *opts.LinkReferences,
	}, nil
}

func (p *releaseNotesGenerator) Name() string { return pipeline.PluginReleaseNotes }

// GenerateNotes groups conventional commits by section.
func (p *releaseNotesGenerator) GenerateNotes(_ context.Context, rc *Context) (string, error) {
	if rc.NextRelease == nil || rc.NextRelease.Version == nil {
		return "", fmt.Errorf("next release is not known")
	}
	repoURL := ""
	if rc.GitHub != nil && rc.GitHub.Slug() != "/" {
		repoURL = p.host + "/" + rc.GitHub.Slug()
	}
	var b strings.Builder
	version := rc.NextRelease.Version.Plain()
	date := rc.Now.Format("2006-01-02")
	if repoURL != "" && p.linkCompare && rc.LastRelease != nil {
		fmt.Fprintf(&b, "## [%s](%s/compare/%s...%s) (%s)\n", version, repoURL,
			rc.LastRelease.GitTag, rc.NextRelease.GitTag, date)
	} else {
		fmt.Fprintf(&b, "## %s (%s)\n", version, date)
	}
	var breaking []string
	grouped := map[string][]string{}
	for _, commit := range rc.Commits {
		cc := ParseConventionalCommit(commit.Message)
		if cc.Breaking {
			breaking = append(breaking, p.item(cc.Scope, cc.BreakingNote, "", ""))
		}
		ref := ""
		if p.linkReferences && repoURL != "" && commit.Hash != "" {
			ref = repoURL + "/commit/" + commit.Hash
		}
		grouped[cc.Type] = append(grouped[cc.Type], p.item(cc.Scope, cc.Subject, shortHash(commit.Hash), ref))
	}
	if len(breaking) > 0 {
		writeSection(&b, "⚠ BREAKING CHANGES", breaking)
	}
	for _, s := range notesSections {
		var items []string
		for _, t := range s.types {
			items = append(items, grouped[t]...)
		}
		if len(items) > 0 {
			writeSection(&b, s.title, items)
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (p *releaseNotesGenerator) item(scope, subject, hash, ref string) string {
	var b strings.Builder
	b.WriteString("* ")
	if scope != "" {
		fmt.Fprintf(&b, "**%s:** ", scope)
	}
	b.WriteString(subject)
	switch {
	case hash != "" && ref != "":
		fmt.Fprintf(&b, " ([%s](%s))", hash, ref)
	case hash != "":
		fmt.Fprintf(&b, " (%s)", hash)
	}
	return b.String()
}

func writeSection(b *strings.Builder, title string, items []string) {
	fmt.Fprintf(b, "\n### %s\n\n", title)
	for _, item := range items {
		b.WriteString(item)
		b.WriteString("\n")
	}
}
