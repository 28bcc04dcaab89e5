package pipeline

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/compozy/releasepipe/internal/domain"
)

// ErrUnknownPlugin is wrapped by validation errors for unresolvable plugins.
var ErrUnknownPlugin = errors.New("unknown plugin")

var branchPatternRegex = regexp.MustCompile(`^[a-zA-Z0-9._/*?{},\[\]\-+!()]+$`)

// Validate checks a release configuration. known reports whether a plugin
// identifier resolves; nil skips that check. All problems are reported.
func Validate(cfg *domain.ReleaseConfig, known func(string) bool) error {
	var errs []error
	if len(cfg.Branches) == 0 {
		errs = append(errs, fmt.Errorf("branches cannot be empty"))
	}
	for _, b := range cfg.Branches {
		if err := validateBranchPattern(b); err != nil {
			errs = append(errs, err)
		}
	}
	if err := ValidateTagFormat(cfg.TagFormat); err != nil {
		errs = append(errs, err)
	}
	if len(cfg.Plugins) == 0 {
		errs = append(errs, fmt.Errorf("plugins cannot be empty"))
	}
	for i, step := range cfg.Plugins {
		if strings.TrimSpace(step.Name) == "" {
			errs = append(errs, fmt.Errorf("plugin #%d has an empty name", i+1))
			continue
		}
		if known != nil && !known(step.Name) {
			errs = append(errs, fmt.Errorf("plugin #%d: %w: %s", i+1, ErrUnknownPlugin, step.Name))
		}
	}
	if err := CheckOrdering(cfg); err != nil {
		errs = append(errs, err)
	}
	if err := CheckTemplates(cfg); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func validateBranchPattern(b string) error {
	if b == "" {
		return fmt.Errorf("branch name cannot be empty")
	}
	if strings.Contains(b, "..") || strings.HasPrefix(b, "/") || strings.HasSuffix(b, "/") {
		return fmt.Errorf("invalid branch name: %s", b)
	}
	if !branchPatternRegex.MatchString(b) || !doublestar.ValidatePattern(b) {
		return fmt.Errorf("invalid branch pattern: %s", b)
	}
	return nil
}

// MatchBranch reports whether branch is eligible for a release.
func MatchBranch(cfg *domain.ReleaseConfig, branch string) bool {
	for _, pattern := range cfg.Branches {
		if pattern == branch {
			return true
		}
		if ok, err := doublestar.Match(pattern, branch); err == nil && ok {
			return true
		}
	}
	return false
}

// CheckOrdering verifies that every file produced by a step (a changelog
// file, files rewritten by replacements, an npm manifest) is only referenced
// by later steps. Built-in defaults count as references.
func CheckOrdering(cfg *domain.ReleaseConfig) error {
	type producer struct {
		index int
		name  string
		file  fileRef
	}
	var produced []producer
	seen := map[string]bool{}
	for i, step := range cfg.Plugins {
		for _, file := range ProducedFiles(step) {
			if seen[file] {
				continue
			}
			seen[file] = true
			produced = append(produced, producer{index: i, name: step.Name, file: fileRef{value: file, glob: isGlob(file)}})
		}
	}
	var errs []error
	for i, step := range cfg.Plugins {
		refs := consumedFiles(step)
		for _, p := range produced {
			if p.index <= i {
				continue
			}
			for _, ref := range refs {
				if overlaps(ref, p.file) {
					errs = append(errs, fmt.Errorf(
						"plugin #%d (%s) references %s before plugin #%d (%s) produces it",
						i+1, step.Name, p.file.value, p.index+1, p.name))
					break
				}
			}
		}
	}
	return errors.Join(errs...)
}

// ProducedFiles returns the paths or patterns a step writes during prepare.
func ProducedFiles(step domain.PluginStep) []string {
	switch step.Name {
	case PluginChangelog:
		if f, ok := step.Options["changelogFile"].(string); ok && f != "" {
			return []string{f}
		}
		return []string{DefaultChangelogFile}
	case PluginNpm:
		root, _ := step.Options["pkgRoot"].(string)
		return []string{path.Join(strings.TrimPrefix(path.Clean("/"+root), "/"), "package.json")}
	case PluginReplace:
		var files []string
		replacements, _ := step.Options["replacements"].([]any)
		for _, r := range replacements {
			rule, ok := r.(map[string]any)
			if !ok {
				continue
			}
			switch v := rule["files"].(type) {
			case string:
				files = append(files, v)
			case []any:
				for _, f := range v {
					if s, ok := f.(string); ok {
						files = append(files, s)
					}
				}
			}
		}
		return files
	default:
		return nil
	}
}

// consumedFiles returns the option values of a step that may name files,
// including the assets the git plugin commits when none are configured.
func consumedFiles(step domain.PluginStep) []fileRef {
	refs := collectRefs("", step.Options)
	if step.Name == PluginGit {
		if _, ok := step.Options["assets"]; !ok {
			for _, asset := range DefaultGitAssets {
				refs = append(refs, fileRef{value: asset, glob: true})
			}
		}
	}
	return refs
}

type fileRef struct {
	value string
	glob  bool
}

// overlaps reports whether a reference can name a produced file. Either side
// may be a glob.
func overlaps(ref, produced fileRef) bool {
	if ref.value == produced.value {
		return true
	}
	if ref.glob {
		if ok, err := doublestar.Match(ref.value, produced.value); err == nil && ok {
			return true
		}
	}
	if produced.glob && ref.glob {
		ok, err := doublestar.Match(produced.value, ref.value)
		return err == nil && ok
	}
	return false
}

func isGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// pathKeys hold values that may be glob patterns over repository paths.
var pathKeys = map[string]bool{"assets": true, "files": true, "path": true}

func isPathKey(key string) bool {
	return pathKeys[key] || strings.HasSuffix(key, "File") || strings.HasSuffix(key, "Path")
}

func collectRefs(key string, v any) []fileRef {
	switch t := v.(type) {
	case string:
		return []fileRef{{value: t, glob: isPathKey(key)}}
	case []any:
		var out []fileRef
		for _, item := range t {
			out = append(out, collectRefs(key, item)...)
		}
		return out
	case []string:
		out := make([]fileRef, 0, len(t))
		for _, item := range t {
			out = append(out, fileRef{value: item, glob: isPathKey(key)})
		}
		return out
	case map[string]any:
		var out []fileRef
		for k, item := range t {
			out = append(out, collectRefs(k, item)...)
		}
		return out
	default:
		return nil
	}
}
