package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type format struct {
	name      string
	unmarshal func([]byte, any) error
}

var (
	yamlFormat = format{name: "yaml", unmarshal: yaml.Unmarshal}
	jsonFormat = format{name: "json", unmarshal: json.Unmarshal}

	formatsByExt = map[string]format{
		".yaml": yamlFormat,
		".yml":  yamlFormat,
		".json": jsonFormat,
	}
)

// FromFile loads a document, choosing the format by extension
// (.yaml, .yml, or .json).
func FromFile(path string) (Config, error) {
	ext := strings.ToLower(filepath.Ext(path))
	f, ok := formatsByExt[ext]
	if !ok {
		return Config{}, fmt.Errorf("unsupported config file extension: %q", ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return f.decode(data)
}

// FromYAML parses a YAML document.
func FromYAML(data []byte) (Config, error) {
	return yamlFormat.decode(data)
}

// FromJSON parses a JSON document.
func FromJSON(data []byte) (Config, error) {
	return jsonFormat.decode(data)
}

func (f format) decode(data []byte) (Config, error) {
	var m map[string]any
	if err := f.unmarshal(data, &m); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", f.name, err)
	}
	return New(m), nil
}
