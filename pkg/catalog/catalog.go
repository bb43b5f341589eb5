// Package catalog provides the read-only node-type registry consulted by
// the validator and repair pipeline. It is loaded once (embedded defaults,
// optionally overlaid with a user file) and immutable afterwards, so a
// single instance is safe to share across concurrent validations.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed data/kinds.yaml
var defaultData []byte

// Category classifies a step kind for the port-kind policy.
type Category string

const (
	CategoryTrigger    Category = "trigger"
	CategoryAction     Category = "action"
	CategoryRouter     Category = "router"
	CategoryAgent      Category = "agent"
	CategoryModel      Category = "model"
	CategoryMemory     Category = "memory"
	CategoryTool       Category = "tool"
	CategoryDecorative Category = "decorative"
)

// Entry describes one known step kind.
type Entry struct {
	Kind                string   `yaml:"kind"`
	DisplayName         string   `yaml:"displayName"`
	Category            Category `yaml:"category"`
	RequiresCredentials bool     `yaml:"requiresCredentials"`
	CredentialKind      string   `yaml:"credentialKind"`
	// ToolEquivalent names the tool-kind counterpart of a regular service
	// kind, if one exists (repair passes 3 and 10).
	ToolEquivalent string `yaml:"toolEquivalent"`
}

type fileFormat struct {
	Kinds      []Entry           `yaml:"kinds"`
	Deprecated map[string]string `yaml:"deprecated"`
}

// Catalog is the immutable kind registry.
type Catalog struct {
	entries    map[string]Entry
	deprecated map[string]string
}

// Load parses the embedded default catalog.
func Load() (*Catalog, error) {
	return parse(defaultData)
}

// LoadFile parses the embedded defaults and overlays entries from the given
// YAML file. Overlay entries replace embedded ones kind-by-kind.
func LoadFile(path string) (*Catalog, error) {
	cat, err := Load()
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog overlay: %w", err)
	}
	overlay, err := parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse catalog overlay: %w", err)
	}
	for kind, e := range overlay.entries {
		cat.entries[kind] = e
	}
	for kind, successor := range overlay.deprecated {
		cat.deprecated[kind] = successor
	}
	return cat, nil
}

func parse(raw []byte) (*Catalog, error) {
	var f fileFormat
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	cat := &Catalog{
		entries:    make(map[string]Entry, len(f.Kinds)),
		deprecated: make(map[string]string, len(f.Deprecated)),
	}
	for _, e := range f.Kinds {
		if e.Kind == "" {
			return nil, fmt.Errorf("parse catalog: entry with empty kind")
		}
		cat.entries[e.Kind] = e
	}
	for kind, successor := range f.Deprecated {
		cat.deprecated[kind] = successor
	}
	return cat, nil
}

// Lookup returns the entry for a kind. Absence means the kind is unknown
// and should be treated as a regular action with no special policy.
func (c *Catalog) Lookup(kind string) (Entry, bool) {
	e, ok := c.entries[kind]
	return e, ok
}

// Canonical maps a deprecated kind to its canonical successor.
func (c *Catalog) Canonical(kind string) (string, bool) {
	successor, ok := c.deprecated[kind]
	return successor, ok
}

// Kinds returns all known kinds in lexical order.
func (c *Catalog) Kinds() []string {
	kinds := make([]string, 0, len(c.entries))
	for k := range c.entries {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Entries returns all entries ordered by kind.
func (c *Catalog) Entries() []Entry {
	kinds := c.Kinds()
	entries := make([]Entry, 0, len(kinds))
	for _, k := range kinds {
		entries = append(entries, c.entries[k])
	}
	return entries
}
