package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeTreeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple lowercase",
			input:    "smith",
			expected: "smith",
		},
		{
			name:     "uppercase converted",
			input:    "Smith",
			expected: "smith",
		},
		{
			name:     "spaces to underscores",
			input:    "smith family",
			expected: "smith_family",
		},
		{
			name:     "hyphens to underscores",
			input:    "smith-johnson",
			expected: "smith_johnson",
		},
		{
			name:     "special characters removed",
			input:    "o'brien!",
			expected: "obrien",
		},
		{
			name:     "consecutive underscores collapsed",
			input:    "smith--johnson",
			expected: "smith_johnson",
		},
		{
			name:     "leading trailing underscores trimmed",
			input:    "-smith-",
			expected: "smith",
		},
		{
			name:     "empty string returns default",
			input:    "",
			expected: "default",
		},
		{
			name:     "only special chars returns default",
			input:    "!!!",
			expected: "default",
		},
		{
			name:     "complex mixed input",
			input:    "Smith Family (Yorkshire 1850)",
			expected: "smith_family_yorkshire_1850",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeTreeName(tt.input))
		})
	}
}

func TestGenerateCollectionName(t *testing.T) {
	assert.Equal(t, "roots_smith", GenerateCollectionName("smith"))
	assert.Equal(t, "roots_smith_family", GenerateCollectionName("Smith Family"))
	assert.Equal(t, "roots_default", GenerateCollectionName(""))
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "openai", cfg.Embedder.Provider)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedder.Model)
	assert.Equal(t, "localhost", cfg.Qdrant.Host)
	assert.Equal(t, 6334, cfg.Qdrant.Port)
	assert.False(t, cfg.Match.Enabled)
	assert.Equal(t, 5, cfg.Match.Limit)
	assert.Empty(t, cfg.Media.Backend)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestPaths(t *testing.T) {
	base := "/home/user/genealogy"
	assert.Equal(t, "/home/user/genealogy/.roots", ConfigDir(base))
	assert.Equal(t, "/home/user/genealogy/.roots/config.yaml", ConfigFilePath(base))
	assert.Equal(t, "/home/user/genealogy/.roots/trees.yaml", TreesFilePath(base))
	assert.Equal(t, "/home/user/genealogy/.roots/trees/smith_family/roots.db", SQLitePathForTree(base, "Smith Family"))
}

func TestLoad(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(t.TempDir())
		assert.ErrorContains(t, err, "config file not found")
	})

	t.Run("default file with env overrides", func(t *testing.T) {
		base := t.TempDir()
		require.NoError(t, WriteDefault(base))
		assert.True(t, Exists(base))

		t.Setenv("OPENAI_API_KEY", "sk-test")
		t.Setenv("QDRANT_API_KEY", "")
		t.Setenv("AWS_ACCESS_KEY_ID", "AKIA")
		t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
		t.Setenv("ROOTS_LOG_LEVEL", "debug")

		cfg, err := Load(base)
		require.NoError(t, err)
		assert.Equal(t, "sk-test", cfg.Embedder.APIKey)
		assert.Empty(t, cfg.Qdrant.APIKey)
		assert.Equal(t, "roots-media", cfg.Media.S3.Bucket)
		assert.Equal(t, "AKIA", cfg.Media.S3.AccessKeyID)
		assert.Equal(t, "secret", cfg.Media.S3.SecretAccessKey)
		assert.Equal(t, "debug", cfg.Log.Level)
	})

	t.Run("file values beat env credentials", func(t *testing.T) {
		base := t.TempDir()
		cfg := Default()
		cfg.Embedder.APIKey = "from-file"
		cfg.Server.Addr = "127.0.0.1:9000"
		require.NoError(t, Write(base, cfg))

		t.Setenv("OPENAI_API_KEY", "from-env")

		loaded, err := Load(base)
		require.NoError(t, err)
		assert.Equal(t, "from-file", loaded.Embedder.APIKey)
		assert.Equal(t, "127.0.0.1:9000", loaded.Server.Addr)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		base := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(base, DefaultConfigDir), 0755))
		require.NoError(t, os.WriteFile(ConfigFilePath(base), []byte("log: [unclosed"), 0644))

		_, err := Load(base)
		assert.ErrorContains(t, err, "parsing config file")
	})
}

func TestWriteDefault_RefusesOverwrite(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, WriteDefault(base))
	assert.Error(t, WriteDefault(base))
}

func TestTreesConfig(t *testing.T) {
	base := t.TempDir()

	trees, err := LoadTrees(base)
	require.NoError(t, err)
	assert.False(t, TreesExists(base))
	_, err = trees.Get("smith")
	assert.ErrorContains(t, err, "no trees configured")

	trees.Add("smith", TreeEntry{Collection: GenerateCollectionName("smith"), Description: "Yorkshire Smiths"})
	trees.Add("jones", TreeEntry{Collection: GenerateCollectionName("jones")})
	require.NoError(t, trees.Save(base))
	assert.True(t, TreesExists(base))

	loaded, err := LoadTrees(base)
	require.NoError(t, err)
	assert.Equal(t, []string{"jones", "smith"}, loaded.Names())

	entry, err := loaded.Get("smith")
	require.NoError(t, err)
	assert.Equal(t, "roots_smith", entry.Collection)
	assert.Equal(t, "Yorkshire Smiths", entry.Description)

	_, err = loaded.Get("brown")
	assert.ErrorContains(t, err, `tree "brown" not found (available: jones, smith)`)

	loaded.Remove("jones")
	assert.False(t, loaded.Exists("jones"))
	assert.True(t, loaded.Exists("smith"))
}
