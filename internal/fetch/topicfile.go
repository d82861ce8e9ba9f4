// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

// TopicsFile is the on-disk topic list. It lets an operator name topics and
// attach custom feeds without rebuilding, overriding the built-in sets.
type TopicsFile struct {
	Topics []TopicDef `yaml:"topics"`
}

// TopicDef is one topic entry: its query label and optional dedicated feeds.
type TopicDef struct {
	Name  string `yaml:"name"`
	Feeds []Feed `yaml:"feeds,omitempty"`
}

// LoadTopicsFile reads and validates a topics YAML file.
func LoadTopicsFile(path string) (*TopicsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading topics file %s: %w", path, err)
	}

	var tf TopicsFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parsing topics file %s: %w", path, err)
	}

	for i, t := range tf.Topics {
		if strings.TrimSpace(t.Name) == "" {
			return nil, fmt.Errorf("topics file %s: entry %d has no name", path, i)
		}
		for j, f := range t.Feeds {
			if f.URL == "" {
				return nil, fmt.Errorf("topics file %s: topic %q feed %d has no url", path, t.Name, j)
			}
		}
	}
	return &tf, nil
}

// Names returns the topic labels in file order.
func (tf *TopicsFile) Names() []string {
	names := make([]string, len(tf.Topics))
	for i, t := range tf.Topics {
		names[i] = t.Name
	}
	return names
}

// FeedOverrides returns the per-topic feed map for topics that declare
// custom feeds, keyed by lowercased topic name.
func (tf *TopicsFile) FeedOverrides() map[string][]Feed {
	out := make(map[string][]Feed)
	for _, t := range tf.Topics {
		if len(t.Feeds) > 0 {
			out[strings.ToLower(t.Name)] = t.Feeds
		}
	}
	return out
}
