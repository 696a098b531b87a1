package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// TreesConfig holds the registered family trees (read/write).
type TreesConfig struct {
	Trees map[string]TreeEntry `yaml:"trees,omitempty"`
}

// TreeEntry holds configuration for a specific tree.
type TreeEntry struct {
	Collection  string `yaml:"collection"`
	Description string `yaml:"description,omitempty"`
}

// LoadTrees loads the tree registry from the .roots directory.
func LoadTrees(basePath string) (*TreesConfig, error) {
	data, err := os.ReadFile(TreesFilePath(basePath))
	if os.IsNotExist(err) {
		return &TreesConfig{Trees: make(map[string]TreeEntry)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading trees file: %w", err)
	}

	var cfg TreesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing trees file: %w", err)
	}

	if cfg.Trees == nil {
		cfg.Trees = make(map[string]TreeEntry)
	}

	return &cfg, nil
}

// Save writes the tree registry to the trees file.
func (c *TreesConfig) Save(basePath string) error {
	if err := os.MkdirAll(ConfigDir(basePath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling trees config: %w", err)
	}

	if err := os.WriteFile(TreesFilePath(basePath), data, 0600); err != nil {
		return fmt.Errorf("writing trees file: %w", err)
	}

	return nil
}

// Add registers a tree.
func (c *TreesConfig) Add(name string, entry TreeEntry) {
	if c.Trees == nil {
		c.Trees = make(map[string]TreeEntry)
	}
	c.Trees[name] = entry
}

// Remove unregisters a tree.
func (c *TreesConfig) Remove(name string) {
	delete(c.Trees, name)
}

// Names returns the registered tree names in sorted order.
func (c *TreesConfig) Names() []string {
	names := make([]string, 0, len(c.Trees))
	for name := range c.Trees {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the configuration for a specific tree.
func (c *TreesConfig) Get(name string) (*TreeEntry, error) {
	if len(c.Trees) == 0 {
		return nil, errors.New("no trees configured")
	}

	entry, ok := c.Trees[name]
	if !ok {
		names := c.Names()
		if len(names) > 5 {
			names = append(names[:5], "...")
		}
		return nil, fmt.Errorf("tree %q not found (available: %s)", name, strings.Join(names, ", "))
	}

	return &entry, nil
}

// Exists checks if a tree is registered.
func (c *TreesConfig) Exists(name string) bool {
	_, ok := c.Trees[name]
	return ok
}

// TreesExists checks if a trees file exists in the given path.
func TreesExists(basePath string) bool {
	_, err := os.Stat(filepath.Join(basePath, DefaultConfigDir, DefaultTreesFile))
	return err == nil
}
