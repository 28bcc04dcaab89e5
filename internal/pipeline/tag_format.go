package pipeline

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/compozy/releasepipe/internal/domain"
)

const versionPlaceholder = "${version}"

// tagNameRegex matches the characters git accepts in a tag without quoting.
var tagNameRegex = regexp.MustCompile(`^[a-zA-Z0-9._/@+\-]+$`)

// ValidateTagFormat checks that format holds exactly one ${version}
// placeholder and renders to a usable git tag.
func ValidateTagFormat(format string) error {
	if format == "" {
		return fmt.Errorf("tagFormat cannot be empty")
	}
	if n := strings.Count(format, versionPlaceholder); n != 1 {
		return fmt.Errorf("tagFormat must contain %s exactly once, found %d", versionPlaceholder, n)
	}
	sample, err := RenderTag(format, "1.0.0")
	if err != nil {
		return err
	}
	if err := ValidateTagName(sample); err != nil {
		return fmt.Errorf("tagFormat %q renders an invalid tag: %w", format, err)
	}
	return nil
}

// ValidateTagName validates a rendered git tag.
func ValidateTagName(tag string) error {
	if tag == "" {
		return fmt.Errorf("tag cannot be empty")
	}
	if len(tag) > 255 {
		return fmt.Errorf("tag too long: maximum 255 characters")
	}
	if strings.Contains(tag, "..") || strings.HasSuffix(tag, ".lock") ||
		strings.HasPrefix(tag, "/") || strings.HasSuffix(tag, "/") {
		return fmt.Errorf("invalid tag: %s", tag)
	}
	if !tagNameRegex.MatchString(tag) {
		return fmt.Errorf("invalid tag format: %s", tag)
	}
	return nil
}

// RenderTag renders the tag name for version.
func RenderTag(format, version string) (string, error) {
	return RenderTemplate(format, TemplateData{"version": version})
}

// TagMatcher extracts versions from tags produced by a tag format.
type TagMatcher struct {
	re *regexp.Regexp
}

// NewTagMatcher builds a matcher for format. Everything around the
// ${version} placeholder must match literally.
func NewTagMatcher(format string) (*TagMatcher, error) {
	if err := ValidateTagFormat(format); err != nil {
		return nil, err
	}
	prefix, suffix, _ := strings.Cut(format, versionPlaceholder)
	pattern := "^" + regexp.QuoteMeta(prefix) + `(.+)` + regexp.QuoteMeta(suffix) + "$"
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to compile tag pattern: %w", err)
	}
	return &TagMatcher{re: re}, nil
}

// Version returns the semantic version a tag encodes, or ok=false when the
// tag does not belong to this format.
func (m *TagMatcher) Version(tag string) (*domain.Version, bool) {
	match := m.re.FindStringSubmatch(tag)
	if match == nil {
		return nil, false
	}
	v, err := domain.NewVersion(match[1])
	if err != nil || v.Plain() != match[1] {
		return nil, false
	}
	return v, true
}
