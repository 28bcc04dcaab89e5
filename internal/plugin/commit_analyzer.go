package plugin

import (
	"context"
	"fmt"
	"strings"

	"github.com/compozy/releasepipe/internal/domain"
	"github.com/compozy/releasepipe/internal/pipeline"
	"go.uber.org/zap"
)

// ReleaseRule maps matching commits to a release type. Empty fields match
// anything; Release "false" suppresses a release for the commit.
type ReleaseRule struct {
	Type     string `mapstructure:"type"`
	Scope    string `mapstructure:"scope"`
	Breaking *bool  `mapstructure:"breaking"`
	Revert   *bool  `mapstructure:"revert"`
	Release  string `mapstructure:"release"`
}

type commitAnalyzerOptions struct {
	Preset       string        `mapstructure:"preset"`
	ReleaseRules []ReleaseRule `mapstructure:"releaseRules"`
}

var defaultReleaseRules = []ReleaseRule{
	{Breaking: boolPtr(true), Release: string(domain.ReleaseTypeMajor)},
	{Revert: boolPtr(true), Release: string(domain.ReleaseTypePatch)},
	{Type: "feat", Release: string(domain.ReleaseTypeMinor)},
	{Type: "fix", Release: string(domain.ReleaseTypePatch)},
	{Type: "perf", Release: string(domain.ReleaseTypePatch)},
}

type commitAnalyzer struct {
	rules []ReleaseRule
}

// NewCommitAnalyzer builds the conventional-commit analyzer.
func NewCommitAnalyzer(options map[string]any) (Plugin, error) {
	var opts commitAnalyzerOptions
	if err := decodeOptions(pipeline.PluginCommitAnalyzer, options, &opts); err != nil {
		return nil, err
	}
	switch opts.Preset {
	case "", "angular", "conventionalcommits":
	default:
		return nil, fmt.Errorf("unsupported preset %q", opts.Preset)
	}
	for i, rule := range opts.ReleaseRules {
		if _, ok := domain.ParseReleaseType(rule.Release); !ok {
			return nil, fmt.Errorf("releaseRules[%d]: invalid release %q", i, rule.Release)
		}
	}
	return &commitAnalyzer{rules: opts.ReleaseRules}, nil
}

func (p *commitAnalyzer) Name() string { return pipeline.PluginCommitAnalyzer }

// AnalyzeCommits returns the highest release type any commit requires.
// Custom rules take precedence; a commit matching none falls back to the
// default rules.
func (p *commitAnalyzer) AnalyzeCommits(_ context.Context, rc *Context) (domain.ReleaseType, error) {
	log := rc.logger(p.Name())
	result := domain.ReleaseTypeNone
	for _, commit := range rc.Commits {
		cc := ParseConventionalCommit(commit.Message)
		rt, matched := matchRules(p.rules, cc)
		if !matched {
			rt, _ = matchRules(defaultReleaseRules, cc)
		}
		if rt != domain.ReleaseTypeNone {
			log.Debug("commit requires release",
				zap.String("commit", shortHash(commit.Hash)),
				zap.String("type", string(rt)),
				zap.String("subject", commit.Subject()))
		}
		result = result.Higher(rt)
		if result == domain.ReleaseTypeMajor {
			break
		}
	}
	log.Info("analysis complete", zap.Int("commits", len(rc.Commits)), zap.String("release", string(result)))
	return result, nil
}

func matchRules(rules []ReleaseRule, cc ConventionalCommit) (domain.ReleaseType, bool) {
	result := domain.ReleaseTypeNone
	matched := false
	for _, rule := range rules {
		if !rule.matches(cc) {
			continue
		}
		matched = true
		rt, _ := domain.ParseReleaseType(rule.Release)
		result = result.Higher(rt)
	}
	return result, matched
}

func (r ReleaseRule) matches(cc ConventionalCommit) bool {
	if r.Type != "" && !strings.EqualFold(r.Type, cc.Type) {
		return false
	}
	if r.Scope != "" && r.Scope != cc.Scope {
		return false
	}
	if r.Breaking != nil && *r.Breaking != cc.Breaking {
		return false
	}
	if r.Revert != nil && *r.Revert != cc.Revert {
		return false
	}
	return r.Type != "" || r.Scope != "" || r.Breaking != nil || r.Revert != nil
}

func boolPtr(b bool) *bool { return &b }

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
