package plugin

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/compozy/releasepipe/internal/domain"
	"github.com/compozy/releasepipe/internal/pipeline"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// ErrNoFilesMatched is returned when a replacement's globs match nothing.
var ErrNoFilesMatched = errors.New("no files matched")

// ErrResultsMismatch is returned when replacement results differ from the declared ones.
var ErrResultsMismatch = errors.New("replacement results mismatch")

type replaceOptions struct {
	Replacements []domain.ReplacementRule `mapstructure:"replacements"`
}

type compiledRule struct {
	domain.ReplacementRule
	re *regexp.Regexp
}

type replace struct {
	rules []compiledRule
}

// NewReplace builds the plugin that rewrites file contents during prepare.
func NewReplace(options map[string]any) (Plugin, error) {
	var opts replaceOptions
	if err := decodeOptions(pipeline.PluginReplace, options, &opts); err != nil {
		return nil, err
	}
	if len(opts.Replacements) == 0 {
		return nil, fmt.Errorf("replacements must not be empty")
	}
	rules := make([]compiledRule, 0, len(opts.Replacements))
	for i, r := range opts.Replacements {
		if len(r.Files) == 0 {
			return nil, fmt.Errorf("replacements[%d]: files must not be empty", i)
		}
		if r.From == "" {
			return nil, fmt.Errorf("replacements[%d]: from must not be empty", i)
		}
		re, err := regexp.Compile("(?m)" + r.From)
		if err != nil {
			return nil, fmt.Errorf("replacements[%d]: invalid from pattern: %w", i, err)
		}
		rules = append(rules, compiledRule{ReplacementRule: r, re: re})
	}
	return &replace{rules: rules}, nil
}

func (p *replace) Name() string { return pipeline.PluginReplace }

// VerifyConditions checks that every `to` template only references known values.
func (p *replace) VerifyConditions(_ context.Context, rc *Context) error {
	sample := rc.TemplateData()
	var errs []error
	for i, r := range p.rules {
		if _, err := pipeline.RenderTemplate(r.To, sample); err != nil {
			errs = append(errs, fmt.Errorf("replacements[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Prepare applies every rule in order.
func (p *replace) Prepare(_ context.Context, rc *Context) error {
	data := rc.TemplateData()
	for i, r := range p.rules {
		results, err := p.apply(rc, r, data)
		if err != nil {
			return fmt.Errorf("replacements[%d]: %w", i, err)
		}
		if r.Results != nil {
			if err := compareResults(r.Results, results, r.CountMatches); err != nil {
				return fmt.Errorf("replacements[%d]: %w", i, err)
			}
		}
	}
	return nil
}

func (p *replace) apply(rc *Context, r compiledRule, data pipeline.TemplateData) ([]domain.ReplacementResult, error) {
	log := rc.logger(p.Name())
	to, err := pipeline.RenderTemplate(r.To, data)
	if err != nil {
		return nil, err
	}
	files, err := expandFiles(rc.FS, r.Files)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		if r.AllowEmptyPaths {
			log.Warn("replacement matched no files", zap.Strings("files", r.Files))
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrNoFilesMatched, strings.Join(r.Files, ", "))
	}
	results := make([]domain.ReplacementResult, 0, len(files))
	for _, file := range files {
		content, err := afero.ReadFile(rc.FS, file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		matches := r.re.FindAllString(string(content), -1)
		replaced := 0
		for _, m := range matches {
			if m != to {
				replaced++
			}
		}
		updated := r.re.ReplaceAllLiteralString(string(content), to)
		result := domain.ReplacementResult{File: file, HasChanged: updated != string(content)}
		if r.CountMatches {
			result.NumMatches = len(matches)
			result.NumReplacements = replaced
		}
		results = append(results, result)
		if !result.HasChanged {
			continue
		}
		if rc.DryRun {
			log.Info("dry run: would rewrite file", zap.String("file", file), zap.Int("matches", len(matches)))
			continue
		}
		info, err := rc.FS.Stat(file)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", file, err)
		}
		if err := afero.WriteFile(rc.FS, file, []byte(updated), info.Mode().Perm()); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", file, err)
		}
		rc.Changes.RecordFile(file)
		log.Info("rewrote file", zap.String("file", file), zap.Int("replacements", replaced))
	}
	return results, nil
}

func compareResults(expected, actual []domain.ReplacementResult, countMatches bool) error {
	norm := func(in []domain.ReplacementResult) []domain.ReplacementResult {
		out := make([]domain.ReplacementResult, len(in))
		for i, r := range in {
			r.File = cleanPattern(r.File)
			if !countMatches {
				r.NumMatches, r.NumReplacements = 0, 0
			}
			out[i] = r
		}
		sort.Slice(out, func(i, j int) bool { return out[i].File < out[j].File })
		return out
	}
	want, got := norm(expected), norm(actual)
	equal := len(want) == len(got)
	for i := 0; equal && i < len(want); i++ {
		equal = want[i] == got[i]
	}
	if equal {
		return nil
	}
	return fmt.Errorf("%w: expected %s, got %s", ErrResultsMismatch, formatResults(want), formatResults(got))
}

func formatResults(results []domain.ReplacementResult) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf("{file: %s, hasChanged: %t, numMatches: %d, numReplacements: %d}",
			r.File, r.HasChanged, r.NumMatches, r.NumReplacements)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
