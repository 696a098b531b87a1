// Package handlers contains application use case handlers.
package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/ersonp/roots-core/internal/domain/ports"
	"github.com/ersonp/roots-core/internal/infrastructure/config"
)

// InitHandler sets up the .roots directory and registers family trees.
type InitHandler struct {
	vectorSize uint64
}

// NewInitHandler creates a new init handler. vectorSize is used for new
// match collections.
func NewInitHandler(vectorSize uint64) *InitHandler {
	return &InitHandler{vectorSize: vectorSize}
}

// InitResult contains the result of initialization.
type InitResult struct {
	ConfigPath string
}

// TreeResult describes a newly created tree.
type TreeResult struct {
	Name          string
	Collection    string
	DatabasePath  string
	ConfigCreated bool
}

// TreeInfo is one registered tree.
type TreeInfo struct {
	Name        string `json:"name"`
	Collection  string `json:"collection"`
	Description string `json:"description,omitempty"`
}

// Handle writes a default config into basePath.
func (h *InitHandler) Handle(_ context.Context, basePath string) (*InitResult, error) {
	if config.Exists(basePath) {
		return nil, fmt.Errorf("roots already initialized in %s", basePath)
	}

	if err := config.WriteDefault(basePath); err != nil {
		return nil, fmt.Errorf("writing default config: %w", err)
	}

	return &InitResult{ConfigPath: config.ConfigFilePath(basePath)}, nil
}

// HandleCreateTree registers a tree and prepares its data directory. The
// config is written first when missing. collections may be nil when
// matching is disabled.
func (h *InitHandler) HandleCreateTree(ctx context.Context, basePath, name, description string, collections ports.CollectionManager) (*TreeResult, error) {
	result := &TreeResult{
		Name:         name,
		Collection:   config.GenerateCollectionName(name),
		DatabasePath: config.SQLitePathForTree(basePath, name),
	}

	if !config.Exists(basePath) {
		if err := config.WriteDefault(basePath); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}
		result.ConfigCreated = true
	}

	trees, err := config.LoadTrees(basePath)
	if err != nil {
		return nil, err
	}
	if trees.Exists(name) {
		return nil, fmt.Errorf("tree %q already exists", name)
	}

	if err := os.MkdirAll(config.TreeDir(basePath, name), 0755); err != nil {
		return nil, fmt.Errorf("creating tree directory: %w", err)
	}

	if collections != nil {
		if err := collections.EnsureCollection(ctx, h.vectorSize); err != nil {
			return nil, fmt.Errorf("creating collection: %w", err)
		}
	}

	trees.Add(name, config.TreeEntry{Collection: result.Collection, Description: description})
	if err := trees.Save(basePath); err != nil {
		return nil, err
	}

	return result, nil
}

// HandleDeleteTree unregisters a tree. With purge set, its database and
// match collection are removed too.
func (h *InitHandler) HandleDeleteTree(ctx context.Context, basePath, name string, purge bool, collections ports.CollectionManager) error {
	trees, err := config.LoadTrees(basePath)
	if err != nil {
		return err
	}
	if _, err := trees.Get(name); err != nil {
		return err
	}

	if purge {
		if collections != nil {
			if err := collections.DeleteCollection(ctx); err != nil {
				return fmt.Errorf("deleting collection: %w", err)
			}
		}
		if err := os.RemoveAll(config.TreeDir(basePath, name)); err != nil {
			return fmt.Errorf("removing tree directory: %w", err)
		}
	}

	trees.Remove(name)
	return trees.Save(basePath)
}

// HandleListTrees returns the registered trees sorted by name.
func (h *InitHandler) HandleListTrees(basePath string) ([]TreeInfo, error) {
	trees, err := config.LoadTrees(basePath)
	if err != nil {
		return nil, err
	}

	infos := make([]TreeInfo, 0, len(trees.Trees))
	for _, name := range trees.Names() {
		entry := trees.Trees[name]
		infos = append(infos, TreeInfo{
			Name:        name,
			Collection:  entry.Collection,
			Description: entry.Description,
		})
	}
	return infos, nil
}
