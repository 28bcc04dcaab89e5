package pipeline

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/compozy/releasepipe/internal/domain"
)

var placeholderRegex = regexp.MustCompile(`\$\{\s*([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*)\s*\}`)

// TemplateData is the value tree placeholders are resolved against.
type TemplateData map[string]any

// RenderTemplate substitutes every ${dotted.path} placeholder in tmpl.
// A reference to a missing key is an error.
func RenderTemplate(tmpl string, data TemplateData) (string, error) {
	var renderErr error
	out := placeholderRegex.ReplaceAllStringFunc(tmpl, func(match string) string {
		if renderErr != nil {
			return match
		}
		path := placeholderRegex.FindStringSubmatch(match)[1]
		value, err := lookup(data, path)
		if err != nil {
			renderErr = err
			return match
		}
		return value
	})
	if renderErr != nil {
		return "", renderErr
	}
	return out, nil
}

// Placeholders lists the dotted paths referenced by tmpl, in order.
func Placeholders(tmpl string) []string {
	var paths []string
	for _, m := range placeholderRegex.FindAllStringSubmatch(tmpl, -1) {
		paths = append(paths, m[1])
	}
	return paths
}

// KnownPlaceholders are the paths a release context provides. errors is only
// populated for fail comments.
var KnownPlaceholders = map[string]bool{
	"lastRelease.version": true,
	"lastRelease.gitTag":  true,
	"lastRelease.gitHead": true,
	"nextRelease.version": true,
	"nextRelease.gitTag":  true,
	"nextRelease.gitHead": true,
	"nextRelease.type":    true,
	"nextRelease.notes":   true,
	"branch.name":         true,
	"errors":              true,
}

// CheckTemplates reports plugin options referencing placeholders no release
// context defines.
func CheckTemplates(cfg *domain.ReleaseConfig) error {
	var errs []error
	for i, step := range cfg.Plugins {
		for _, ref := range collectRefs("", step.Options) {
			for _, path := range Placeholders(ref.value) {
				if !KnownPlaceholders[path] {
					errs = append(errs, fmt.Errorf("plugin #%d (%s) references undefined ${%s}", i+1, step.Name, path))
				}
			}
		}
	}
	return errors.Join(errs...)
}

func lookup(data TemplateData, path string) (string, error) {
	var current any = map[string]any(data)
	for _, key := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return "", fmt.Errorf("template reference %q: %q is not an object", path, key)
		}
		current, ok = m[key]
		if !ok {
			return "", fmt.Errorf("template reference %q is not defined", path)
		}
	}
	switch v := current.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	case map[string]any:
		return "", fmt.Errorf("template reference %q is an object", path)
	default:
		return fmt.Sprint(v), nil
	}
}
