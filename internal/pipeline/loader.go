package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/compozy/releasepipe/internal/domain"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when no configuration file can be discovered.
var ErrConfigNotFound = errors.New("release configuration not found")

// ConfigCandidates are tried in order when no explicit path is given.
var ConfigCandidates = []string{
	".releaserc",
	".releaserc.yaml",
	".releaserc.yml",
	".releaserc.json",
	"release.config.json",
}

// rawConfig distinguishes an omitted plugins key from an empty one.
type rawConfig struct {
	Branches  []string             `yaml:"branches"`
	TagFormat string               `yaml:"tagFormat"`
	Plugins   *[]domain.PluginStep `yaml:"plugins"`
}

// Discover returns the first configuration file present in fs.
func Discover(fs afero.Fs) (string, error) {
	for _, candidate := range ConfigCandidates {
		exists, err := afero.Exists(fs, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check %s: %w", candidate, err)
		}
		if exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: looked for %v", ErrConfigNotFound, ConfigCandidates)
}

// Load reads the release configuration at path, discovering it when path is
// empty. The returned path is the file actually read.
func Load(fs afero.Fs, path string) (*domain.ReleaseConfig, string, error) {
	if path == "" {
		discovered, err := Discover(fs)
		if err != nil {
			return nil, "", err
		}
		path = discovered
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, path, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, path, fmt.Errorf("failed to read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, path, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, path, nil
}

// Parse decodes a YAML or JSON release configuration and applies defaults.
func Parse(data []byte) (*domain.ReleaseConfig, error) {
	var raw rawConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	cfg := &domain.ReleaseConfig{
		Branches:  raw.Branches,
		TagFormat: raw.TagFormat,
	}
	if len(cfg.Branches) == 0 {
		cfg.Branches = append([]string(nil), DefaultBranches...)
	}
	if cfg.TagFormat == "" {
		cfg.TagFormat = domain.DefaultTagFormat
	}
	if raw.Plugins == nil {
		for _, name := range DefaultPlugins {
			cfg.Plugins = append(cfg.Plugins, domain.PluginStep{Name: name, Options: map[string]any{}})
		}
	} else {
		cfg.Plugins = *raw.Plugins
	}
	return cfg, nil
}

// Marshal serializes cfg as YAML.
func Marshal(cfg *domain.ReleaseConfig) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
