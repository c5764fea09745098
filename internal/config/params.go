package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseParam parses key=value. The value is decoded as yaml, so numbers and
// booleans keep their type.
func ParseParam(pair string) (string, interface{}, error) {
	key, raw, ok := strings.Cut(pair, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", nil, fmt.Errorf("config: invalid param %q, expected key=value", pair)
	}
	if strings.TrimSpace(raw) == "" {
		return key, "", nil
	}
	var value interface{}
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
		// Anything that isn't yaml is a plain string
		return key, raw, nil
	}
	return key, value, nil
}

// ParseParams parses a yaml flow mapping like {a: 1, b: two}
func ParseParams(flow string) (map[string]interface{}, error) {
	params := map[string]interface{}{}
	if strings.TrimSpace(flow) == "" {
		return params, nil
	}
	if err := yaml.Unmarshal([]byte(flow), &params); err != nil {
		return nil, fmt.Errorf("config: invalid params %q: %w", flow, err)
	}
	return params, nil
}

// MergeParams merges the layers left to right. Later layers win.
func MergeParams(layers ...map[string]interface{}) map[string]interface{} {
	params := map[string]interface{}{}
	for _, layer := range layers {
		for key, value := range layer {
			params[key] = value
		}
	}
	return params
}

// Params builds the params of a run from the preset defaults, the --params
// mapping and the repeated --param flags
func Params(preset *Preset, flow string, pairs []string) (map[string]interface{}, error) {
	var defaults map[string]interface{}
	if preset != nil {
		defaults = preset.Params
	}
	mapping, err := ParseParams(flow)
	if err != nil {
		return nil, err
	}
	flags := map[string]interface{}{}
	for _, pair := range pairs {
		key, value, err := ParseParam(pair)
		if err != nil {
			return nil, err
		}
		flags[key] = value
	}
	return MergeParams(defaults, mapping, flags), nil
}
