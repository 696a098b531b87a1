package handlers

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/roots-core/internal/infrastructure/config"
)

type fakeCollections struct {
	ensured   []uint64
	deleted   int
	ensureErr error
	deleteErr error
}

func (f *fakeCollections) EnsureCollection(_ context.Context, vectorSize uint64) error {
	if f.ensureErr != nil {
		return f.ensureErr
	}
	f.ensured = append(f.ensured, vectorSize)
	return nil
}

func (f *fakeCollections) DeleteCollection(_ context.Context) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted++
	return nil
}

func TestInitHandler_Handle(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	h := NewInitHandler(1536)

	result, err := h.Handle(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, config.ConfigFilePath(base), result.ConfigPath)
	assert.FileExists(t, result.ConfigPath)

	_, err = h.Handle(ctx, base)
	assert.ErrorContains(t, err, "roots already initialized")
}

func TestInitHandler_Trees(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	h := NewInitHandler(1536)
	collections := &fakeCollections{}

	smith, err := h.HandleCreateTree(ctx, base, "Smith Family", "Yorkshire", collections)
	require.NoError(t, err)
	assert.True(t, smith.ConfigCreated)
	assert.Equal(t, "roots_smith_family", smith.Collection)
	assert.Equal(t, config.SQLitePathForTree(base, "Smith Family"), smith.DatabasePath)
	assert.DirExists(t, config.TreeDir(base, "Smith Family"))
	assert.Equal(t, []uint64{1536}, collections.ensured)

	jones, err := h.HandleCreateTree(ctx, base, "jones", "", nil)
	require.NoError(t, err)
	assert.False(t, jones.ConfigCreated)

	_, err = h.HandleCreateTree(ctx, base, "jones", "", nil)
	assert.ErrorContains(t, err, `tree "jones" already exists`)

	trees, err := h.HandleListTrees(base)
	require.NoError(t, err)
	assert.Equal(t, []TreeInfo{
		{Name: "Smith Family", Collection: "roots_smith_family", Description: "Yorkshire"},
		{Name: "jones", Collection: "roots_jones"},
	}, trees)

	require.NoError(t, h.HandleDeleteTree(ctx, base, "Smith Family", true, collections))
	assert.Equal(t, 1, collections.deleted)
	_, err = os.Stat(config.TreeDir(base, "Smith Family"))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, h.HandleDeleteTree(ctx, base, "jones", false, nil))
	assert.DirExists(t, config.TreeDir(base, "jones"))

	err = h.HandleDeleteTree(ctx, base, "jones", false, nil)
	assert.Error(t, err)
}

func TestInitHandler_CollectionFailure(t *testing.T) {
	base := t.TempDir()
	h := NewInitHandler(1536)

	_, err := h.HandleCreateTree(context.Background(), base, "smith", "", &fakeCollections{ensureErr: errors.New("qdrant down")})
	assert.ErrorContains(t, err, "qdrant down")

	trees, err := h.HandleListTrees(base)
	require.NoError(t, err)
	assert.Empty(t, trees)
}
