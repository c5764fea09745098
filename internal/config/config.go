// Package config loads sfcmod.yaml. The file names the presets a project
// runs, with default params and a default file glob for each.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sahilm/fuzzy"
	"gopkg.in/yaml.v3"
)

// Filenames that are searched for, in order
var Filenames = []string{"sfcmod.yaml", "sfcmod.yml", ".sfcmodrc.yaml"}

// ErrNotFound is returned by Find when no config file is above the directory
var ErrNotFound = errors.New("config: no config file found")

// Config file
type Config struct {
	Path    string    `yaml:"-"`
	Presets []*Preset `yaml:"presets"`
}

// Preset runs a registered transformation under its own name
type Preset struct {
	Name           string                 `yaml:"name"`
	Transformation string                 `yaml:"transformation"`
	Params         map[string]interface{} `yaml:"params"`
	Glob           string                 `yaml:"glob"`
}

var presetFields = map[string]bool{
	"name":           true,
	"transformation": true,
	"params":         true,
	"glob":           true,
}

// UnmarshalYAML accepts a bare transformation name or a preset mapping.
// Nested nodes don't inherit the decoder's KnownFields, so the keys are
// checked here.
func (p *Preset) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		p.Name = node.Value
		p.Transformation = node.Value
		return nil
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i]
			if !presetFields[key.Value] {
				return fmt.Errorf("config: line %d: field %s not found in preset", key.Line, key.Value)
			}
		}
		type plain Preset
		if err := node.Decode((*plain)(p)); err != nil {
			return err
		}
		if p.Transformation == "" {
			return fmt.Errorf("config: line %d: preset %q is missing a transformation", node.Line, p.Name)
		}
		if p.Name == "" {
			p.Name = p.Transformation
		}
		return nil
	default:
		return fmt.Errorf("config: line %d: expected a preset name or mapping", node.Line)
	}
}

// Find the closest config file, walking up from dir
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		for _, name := range Filenames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			} else if !errors.Is(err, fs.ErrNotExist) {
				return "", fmt.Errorf("config: unable to stat %s: %w", path, err)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotFound
		}
		dir = parent
	}
}

// Load the closest config file. A missing file is an empty config.
func Load(dir string) (*Config, error) {
	path, err := Find(dir)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &Config{}, nil
		}
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", path, err)
	}
	return Parse(path, data)
}

// Parse config data
func Parse(path string, data []byte) (*Config, error) {
	config := &Config{Path: path}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil {
		if errors.Is(err, io.EOF) {
			return config, nil
		}
		return nil, fmt.Errorf("config: unable to parse %s: %w", path, err)
	}
	seen := map[string]bool{}
	for _, preset := range config.Presets {
		if seen[preset.Name] {
			return nil, fmt.Errorf("config: duplicate preset %q in %s", preset.Name, path)
		}
		seen[preset.Name] = true
	}
	return config, nil
}

// Names of the presets in file order
func (c *Config) Names() []string {
	names := make([]string, len(c.Presets))
	for i, preset := range c.Presets {
		names[i] = preset.Name
	}
	return names
}

type presetSource []*Preset

func (s presetSource) String(i int) string { return strings.ToLower(s[i].Name) }
func (s presetSource) Len() int            { return len(s) }

// Select a preset by name. An exact name wins, then the best fuzzy match.
func (c *Config) Select(query string) (*Preset, error) {
	for _, preset := range c.Presets {
		if preset.Name == query {
			return preset, nil
		}
	}
	matches := fuzzy.FindFrom(strings.ToLower(query), presetSource(c.Presets))
	if len(matches) == 0 {
		return nil, fmt.Errorf("config: no preset matches %q", query)
	}
	return c.Presets[matches[0].Index], nil
}
