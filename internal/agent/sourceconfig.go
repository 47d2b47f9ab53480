package agent

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SourceConfig is one build configuration file: a set of sources to
// fold into the catalog, all built by the same family or loaded from
// pre-built datastore pairs when no builder is given.
type SourceConfig struct {
	Builder string       `yaml:"builder"`
	Sources []SourceSpec `yaml:"sources"`
}

// SourceSpec locates one experiment: its output paths and the
// metadata document describing it.
type SourceSpec struct {
	Path         StringList `yaml:"path"`
	MetadataYaml string     `yaml:"metadata_yaml"`
}

// StringList accepts a YAML scalar or sequence of strings.
type StringList []string

func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*l = StringList{s}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		*l = StringList(items)
		return nil
	}
	return fmt.Errorf("path must be a string or a list of strings")
}

// LoadSourceConfig reads one build configuration file.
func LoadSourceConfig(path string) (*SourceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("agent: read config %s: %w", path, err)
	}
	var cfg SourceConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("agent: parse config %s: %w", path, err)
	}
	if len(cfg.Sources) == 0 {
		return nil, fmt.Errorf("agent: config %s lists no sources", path)
	}
	for i, src := range cfg.Sources {
		if len(src.Path) == 0 {
			return nil, fmt.Errorf("agent: config %s: source %d has no path", path, i+1)
		}
		if src.MetadataYaml == "" {
			return nil, fmt.Errorf("agent: config %s: source %d has no metadata_yaml", path, i+1)
		}
	}
	return &cfg, nil
}
