package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// DefaultTagFormat is used when a configuration does not declare tagFormat.
const DefaultTagFormat = "v${version}"

// ReleaseConfig is the declarative release pipeline: which branches may be
// released, how tags are named and which plugins run, in order.
type ReleaseConfig struct {
	Branches  []string     `yaml:"branches" json:"branches"`
	TagFormat string       `yaml:"tagFormat" json:"tagFormat"`
	Plugins   []PluginStep `yaml:"plugins" json:"plugins"`
}

// PluginStep names a plugin and carries its options untouched.
type PluginStep struct {
	Name    string
	Options map[string]any
}

// ReplacementRule rewrites a pattern in a set of files during prepare.
type ReplacementRule struct {
	Files           []string            `mapstructure:"files" yaml:"files" json:"files"`
	From            string              `mapstructure:"from" yaml:"from" json:"from"`
	To              string              `mapstructure:"to" yaml:"to" json:"to"`
	Results         []ReplacementResult `mapstructure:"results" yaml:"results,omitempty" json:"results,omitempty"`
	CountMatches    bool                `mapstructure:"countMatches" yaml:"countMatches" json:"countMatches"`
	AllowEmptyPaths bool                `mapstructure:"allowEmptyPaths" yaml:"allowEmptyPaths,omitempty" json:"allowEmptyPaths,omitempty"`
}

// ReplacementResult reports what a replacement did to one file.
type ReplacementResult struct {
	File            string `mapstructure:"file" yaml:"file" json:"file"`
	HasChanged      bool   `mapstructure:"hasChanged" yaml:"hasChanged" json:"hasChanged"`
	NumMatches      int    `mapstructure:"numMatches" yaml:"numMatches,omitempty" json:"numMatches,omitempty"`
	NumReplacements int    `mapstructure:"numReplacements" yaml:"numReplacements,omitempty" json:"numReplacements,omitempty"`
}

// PluginNames returns the plugin identifiers in execution order.
func (c *ReleaseConfig) PluginNames() []string {
	names := make([]string, len(c.Plugins))
	for i, p := range c.Plugins {
		names[i] = p.Name
	}
	return names
}

// UnmarshalYAML accepts "name", ["name"] and ["name", {options}].
func (p *PluginStep) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		p.Name = value.Value
		p.Options = map[string]any{}
		return nil
	case yaml.SequenceNode:
		if len(value.Content) == 0 || len(value.Content) > 2 {
			return fmt.Errorf("line %d: plugin entry must have one or two elements, got %d",
				value.Line, len(value.Content))
		}
		if value.Content[0].Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: plugin name must be a string", value.Line)
		}
		p.Name = value.Content[0].Value
		p.Options = map[string]any{}
		if len(value.Content) == 2 {
			opts := value.Content[1]
			if opts.Kind != yaml.MappingNode {
				return fmt.Errorf("line %d: options for plugin %s must be a mapping", opts.Line, p.Name)
			}
			if err := opts.Decode(&p.Options); err != nil {
				return fmt.Errorf("line %d: failed to decode options for plugin %s: %w", opts.Line, p.Name, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("line %d: plugin entry must be a string or a sequence", value.Line)
	}
}

// MarshalYAML always writes the two-element tuple form.
func (p PluginStep) MarshalYAML() (any, error) {
	opts := p.Options
	if opts == nil {
		opts = map[string]any{}
	}
	return []any{p.Name, opts}, nil
}

// UnmarshalJSON mirrors UnmarshalYAML for JSON documents.
func (p *PluginStep) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		p.Options = map[string]any{}
		return json.Unmarshal(data, &p.Name)
	}
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("plugin entry must be a string or an array: %w", err)
	}
	if len(tuple) == 0 || len(tuple) > 2 {
		return fmt.Errorf("plugin entry must have one or two elements, got %d", len(tuple))
	}
	if err := json.Unmarshal(tuple[0], &p.Name); err != nil {
		return fmt.Errorf("plugin name must be a string: %w", err)
	}
	p.Options = map[string]any{}
	if len(tuple) == 2 {
		if err := json.Unmarshal(tuple[1], &p.Options); err != nil {
			return fmt.Errorf("options for plugin %s must be an object: %w", p.Name, err)
		}
		if p.Options == nil {
			p.Options = map[string]any{}
		}
	}
	return nil
}

// MarshalJSON writes the two-element tuple form.
func (p PluginStep) MarshalJSON() ([]byte, error) {
	opts := p.Options
	if opts == nil {
		opts = map[string]any{}
	}
	return json.Marshal([]any{p.Name, opts})
}
