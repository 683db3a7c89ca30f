package fallback

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog holds the topic templates used by General.
type Catalog struct {
	Topics   []TopicSummary   `yaml:"topics"`
	Families []FamilyTemplate `yaml:"families"`
	Default  string           `yaml:"default"`
}

// TopicSummary is a curated answer matched by any of its alias keys.
type TopicSummary struct {
	Keys []string `yaml:"keys"`
	Text string   `yaml:"text"`
}

// FamilyTemplate is a broader template for a branch of mathematics.
type FamilyTemplate struct {
	Key  string `yaml:"key"`
	Text string `yaml:"text"`
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded fallback catalog: %v", err))
	}
	return c
}

func (c *Catalog) validate() error {
	if strings.TrimSpace(c.Default) == "" {
		return fmt.Errorf("catalog: default template is required")
	}
	for i, t := range c.Topics {
		if len(t.Keys) == 0 {
			return fmt.Errorf("catalog: topic %d has no keys", i)
		}
		if strings.TrimSpace(t.Text) == "" {
			return fmt.Errorf("catalog: topic %q has no text", t.Keys[0])
		}
	}
	for i, f := range c.Families {
		if f.Key == "" || strings.TrimSpace(f.Text) == "" {
			return fmt.Errorf("catalog: family %d is incomplete", i)
		}
	}
	return nil
}

// lookup returns the template for a folded topic key: the first curated
// summary with a key contained in topic, then the first family.
func (c *Catalog) lookup(topic string) string {
	if topic != "" {
		for _, t := range c.Topics {
			for _, k := range t.Keys {
				if strings.Contains(topic, k) {
					return t.Text
				}
			}
		}
		for _, f := range c.Families {
			if strings.Contains(topic, f.Key) {
				return f.Text
			}
		}
	}
	return c.Default
}
