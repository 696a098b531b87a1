// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the directory name for roots configuration.
	DefaultConfigDir = ".roots"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultTreesFile is the default trees file name.
	DefaultTreesFile = "trees.yaml"
	// DefaultDatabaseFile is the SQLite file name inside a tree directory.
	DefaultDatabaseFile = "roots.db"
)

var (
	// reNonAlphanumeric matches characters that aren't alphanumeric or underscore.
	reNonAlphanumeric = regexp.MustCompile(`[^a-z0-9_]`)
	// reMultipleUnderscores matches consecutive underscores.
	reMultipleUnderscores = regexp.MustCompile(`_+`)
)

// Config holds static infrastructure configuration (read-only after init).
type Config struct {
	Embedder EmbedderConfig `yaml:"embedder,omitempty"`
	Qdrant   QdrantConfig   `yaml:"qdrant,omitempty"`
	SQLite   SQLiteConfig   `yaml:"sqlite,omitempty"`
	Match    MatchConfig    `yaml:"match,omitempty"`
	Media    MediaConfig    `yaml:"media,omitempty"`
	Server   ServerConfig   `yaml:"server,omitempty"`
	Log      LogConfig      `yaml:"log,omitempty"`
}

// EmbedderConfig holds configuration for the embedding provider.
type EmbedderConfig struct {
	Provider string `yaml:"provider,omitempty"`
	Model    string `yaml:"model,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
	// BaseURL points at an OpenAI-compatible endpoint. Empty uses OpenAI.
	BaseURL string `yaml:"base_url,omitempty"`
}

// QdrantConfig holds configuration for the Qdrant vector database.
type QdrantConfig struct {
	Host       string `yaml:"host,omitempty"`
	Port       int    `yaml:"port,omitempty"`
	Collection string `yaml:"collection,omitempty"`
	APIKey     string `yaml:"api_key,omitempty"`
}

// SQLiteConfig holds configuration for the SQLite relational database.
type SQLiteConfig struct {
	// Path is the file path to the SQLite database.
	// For per-tree databases, this is computed dynamically using SQLitePathForTree.
	Path string `yaml:"path,omitempty"`
}

// MatchConfig controls duplicate-person matching.
type MatchConfig struct {
	// Enabled turns on the embedding index. It needs an embedder API key and Qdrant.
	Enabled bool `yaml:"enabled,omitempty"`
	// Limit is the default number of candidates returned.
	Limit int `yaml:"limit,omitempty"`
}

// MediaConfig selects where uploaded media content is stored.
type MediaConfig struct {
	// Backend is "s3" or empty. Without a backend only URL media can be added.
	Backend string   `yaml:"backend,omitempty"`
	S3      S3Config `yaml:"s3,omitempty"`
}

// S3Config holds configuration for an S3-compatible bucket.
type S3Config struct {
	Bucket          string `yaml:"bucket,omitempty"`
	Region          string `yaml:"region,omitempty"`
	Endpoint        string `yaml:"endpoint,omitempty"` // MinIO or other S3-compatible endpoint
	Prefix          string `yaml:"prefix,omitempty"`
	UsePathStyle    bool   `yaml:"use_path_style,omitempty"`
	AccessKeyID     string `yaml:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty"`
}

// ServerConfig holds configuration for the REST server.
type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// LogConfig holds configuration for structured logging.
type LogConfig struct {
	Level       string `yaml:"level,omitempty"`
	Development bool   `yaml:"development,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Embedder: EmbedderConfig{
			Provider: "openai",
			Model:    "text-embedding-3-small",
		},
		Qdrant: QdrantConfig{
			Host: "localhost",
			Port: 6334,
		},
		Match: MatchConfig{
			Limit: 5,
		},
		Media: MediaConfig{
			S3: S3Config{Region: "us-east-1"},
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the .roots directory in the given path.
func Load(basePath string) (*Config, error) {
	configFile := ConfigFilePath(basePath)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s (run 'roots trees create' first)", configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Start with defaults
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	cfg.applyEnvOverrides()

	return cfg, nil
}

// applyEnvOverrides fills credentials the file leaves empty from the
// environment. ROOTS_LOG_LEVEL always wins so a run can be made verbose.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && c.Embedder.APIKey == "" {
		c.Embedder.APIKey = key
	}
	if key := os.Getenv("QDRANT_API_KEY"); key != "" && c.Qdrant.APIKey == "" {
		c.Qdrant.APIKey = key
	}
	if id := os.Getenv("AWS_ACCESS_KEY_ID"); id != "" && c.Media.S3.AccessKeyID == "" {
		c.Media.S3.AccessKeyID = id
	}
	if secret := os.Getenv("AWS_SECRET_ACCESS_KEY"); secret != "" && c.Media.S3.SecretAccessKey == "" {
		c.Media.S3.SecretAccessKey = secret
	}
	if level := os.Getenv("ROOTS_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

// ConfigDir returns the path to the .roots config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}

// TreesFilePath returns the path to the trees file.
func TreesFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultTreesFile)
}

// Exists checks if a roots config exists in the given path.
func Exists(basePath string) bool {
	_, err := os.Stat(ConfigFilePath(basePath))
	return err == nil
}

// SanitizeTreeName converts a tree name to a valid collection suffix.
func SanitizeTreeName(name string) string {
	name = strings.ToLower(name)

	// Replace spaces and hyphens with underscores
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")

	name = reNonAlphanumeric.ReplaceAllString(name, "")
	name = reMultipleUnderscores.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")

	if name == "" {
		return "default"
	}

	return name
}

// GenerateCollectionName creates a Qdrant collection name for a tree.
func GenerateCollectionName(treeName string) string {
	return "roots_" + SanitizeTreeName(treeName)
}

// SQLitePathForTree returns the SQLite database path for a given tree.
func SQLitePathForTree(basePath, treeName string) string {
	return filepath.Join(TreeDir(basePath, treeName), DefaultDatabaseFile)
}

// TreeDir returns the directory path for a given tree.
func TreeDir(basePath, treeName string) string {
	return filepath.Join(basePath, DefaultConfigDir, "trees", SanitizeTreeName(treeName))
}
