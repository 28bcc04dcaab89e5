package usecase

import (
	"bytes"
	"fmt"
	"html"
	"net/url"
	"strings"
	"text/template"

	"github.com/compozy/releasepipe/internal/domain"
)

// Positions accepted by the addReleases option.
const (
	ReleasesPositionTop    = "top"
	ReleasesPositionBottom = "bottom"
)

// PrepareReleaseBodyUseCase adds links to the other published releases to a
// GitHub release body.
type PrepareReleaseBodyUseCase struct{}

type releaseLink struct {
	Name string
	URL  string
}

// sanitizeName escapes a release name so it cannot inject HTML or break the link syntax.
func (uc *PrepareReleaseBodyUseCase) sanitizeName(name string) string {
	name = html.EscapeString(name)
	return strings.NewReplacer("[", "\\[", "]", "\\]").Replace(name)
}

// validURL accepts only absolute http(s) URLs.
func (uc *PrepareReleaseBodyUseCase) validURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "https" || u.Scheme == "http") && u.Host != ""
}

// Execute runs the use case. Releases without a URL are skipped; when none
// remain the body is returned unchanged.
func (uc *PrepareReleaseBodyUseCase) Execute(
	body string,
	releases []domain.PublishedRelease,
	position string,
) (string, error) {
	if position != ReleasesPositionTop && position != ReleasesPositionBottom {
		return "", fmt.Errorf("invalid releases position: %q", position)
	}
	var links []releaseLink
	for _, r := range releases {
		if r.URL == "" || !uc.validURL(r.URL) {
			continue
		}
		name := r.Name
		if name == "" {
			name = r.Plugin
		}
		links = append(links, releaseLink{Name: uc.sanitizeName(name), URL: r.URL})
	}
	if len(links) == 0 {
		return body, nil
	}
	tmpl, err := template.New("release-links").Option("missingkey=error").Parse(releaseLinksTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse release links template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, links); err != nil {
		return "", fmt.Errorf("failed to execute release links template: %w", err)
	}
	section := strings.TrimSpace(buf.String())
	body = strings.TrimSpace(body)
	if body == "" {
		return section, nil
	}
	if position == ReleasesPositionTop {
		return section + "\n\n---\n\n" + body, nil
	}
	return body + "\n\n---\n\n" + section, nil
}

const releaseLinksTemplate = `
#### This release is also distributed through
{{range .}}
- [{{.Name}}]({{.URL}}){{end}}
`
