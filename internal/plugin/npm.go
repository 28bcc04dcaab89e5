package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"regexp"

	"github.com/compozy/releasepipe/internal/domain"
	"github.com/compozy/releasepipe/internal/pipeline"
	"github.com/compozy/releasepipe/internal/service"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// ErrNpmTokenRequired is returned when publishing is enabled without a token.
var ErrNpmTokenRequired = errors.New("npm token is required to publish")

var packageVersionRegex = regexp.MustCompile(`("version"\s*:\s*")[^"]*(")`)

type npmOptions struct {
	NpmPublish *bool  `mapstructure:"npmPublish"`
	PkgRoot    string `mapstructure:"pkgRoot"`
	DistTag    string `mapstructure:"distTag"`
}

type npmPlugin struct {
	publish bool
	pkgRoot string
	distTag string
	pkg     *domain.Package
}

// NewNpm builds the plugin that versions and publishes an npm package.
func NewNpm(options map[string]any) (Plugin, error) {
	var opts npmOptions
	if err := decodeOptions(pipeline.PluginNpm, options, &opts); err != nil {
		return nil, err
	}
	root := cleanPattern(opts.PkgRoot)
	return &npmPlugin{
		publish: opts.NpmPublish == nil || *opts.NpmPublish,
		pkgRoot: root,
		distTag: opts.DistTag,
	}, nil
}

func (p *npmPlugin) Name() string { return pipeline.PluginNpm }

func (p *npmPlugin) manifest() string {
	return path.Join(p.pkgRoot, "package.json")
}

func (p *npmPlugin) shouldPublish() bool {
	return p.publish && p.pkg != nil && !p.pkg.Private
}

func (p *npmPlugin) readPackage(fs afero.Fs) (*domain.Package, []byte, error) {
	data, err := afero.ReadFile(fs, p.manifest())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", p.manifest(), err)
	}
	var pkg domain.Package
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", p.manifest(), err)
	}
	pkg.Path = p.pkgRoot
	return &pkg, data, nil
}

// VerifyConditions requires a named package and, when publishing, a token.
func (p *npmPlugin) VerifyConditions(_ context.Context, rc *Context) error {
	pkg, _, err := p.readPackage(rc.FS)
	if err != nil {
		return err
	}
	if pkg.Name == "" {
		return fmt.Errorf("%s has no name", p.manifest())
	}
	p.pkg = pkg
	if p.shouldPublish() && rc.Credentials.NpmToken == "" {
		return fmt.Errorf("%w: set NPM_TOKEN", ErrNpmTokenRequired)
	}
	return nil
}

// Prepare writes the release version into package.json, leaving every other
// field as it was.
func (p *npmPlugin) Prepare(_ context.Context, rc *Context) error {
	log := rc.logger(p.Name())
	_, data, err := p.readPackage(rc.FS)
	if err != nil {
		return err
	}
	version := rc.NextRelease.Version.Plain()
	loc := packageVersionRegex.FindIndex(data)
	if loc == nil {
		return fmt.Errorf("%s has no version field", p.manifest())
	}
	updated := string(data[:loc[0]]) +
		packageVersionRegex.ReplaceAllString(string(data[loc[0]:loc[1]]), "${1}"+version+"${2}") +
		string(data[loc[1]:])
	if updated == string(data) {
		return nil
	}
	if rc.DryRun {
		log.Info("dry run: would write package version", zap.String("file", p.manifest()), zap.String("version", version))
		return nil
	}
	if err := afero.WriteFile(rc.FS, p.manifest(), []byte(updated), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", p.manifest(), err)
	}
	rc.Changes.RecordFile(p.manifest())
	log.Info("wrote package version", zap.String("file", p.manifest()), zap.String("version", version))
	return nil
}

// Publish runs npm publish unless the package is private or publishing is disabled.
func (p *npmPlugin) Publish(ctx context.Context, rc *Context) (*domain.PublishedRelease, error) {
	log := rc.logger(p.Name())
	if !p.shouldPublish() {
		log.Info("skipping npm publish", zap.Bool("npmPublish", p.publish))
		return nil, nil
	}
	if rc.DryRun {
		log.Info("dry run: would publish npm package", zap.String("package", p.pkg.Name))
		return nil, nil
	}
	svc := service.NewNpmService(rc.FS, rc.Runner, rc.Credentials.NpmToken)
	if err := svc.Publish(ctx, p.pkgRoot, p.distTag); err != nil {
		return nil, err
	}
	tag := p.distTag
	if tag == "" {
		tag = "latest"
	}
	version := rc.NextRelease.Version.Plain()
	return &domain.PublishedRelease{
		Plugin: p.Name(),
		Name:   fmt.Sprintf("npm package (@%s dist-tag)", tag),
		URL:    fmt.Sprintf("https://www.npmjs.com/package/%s/v/%s", p.pkg.Name, version),
	}, nil
}
