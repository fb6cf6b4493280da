// Package config loads and saves the YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/dastanaron/bookmark-transfer/internal/favicon"
	"github.com/dastanaron/bookmark-transfer/internal/normalize"
)

// Config holds application configuration
type Config struct {
	DBPath    string        `yaml:"db_path"`
	LogLevel  slog.Level    `yaml:"log_level"`
	ExportDir string        `yaml:"export_dir"`
	Favicon   FaviconConfig `yaml:"favicon"`
	Settings  Settings      `yaml:"settings"`

	path string
	raw  []byte // file contents before ${VAR} expansion
}

// FaviconConfig configures favicon downloads for exports with icon data.
type FaviconConfig struct {
	Endpoint    string        `yaml:"endpoint"`
	Size        int           `yaml:"size"`
	CacheDir    string        `yaml:"cache_dir"`
	RetryMax    int           `yaml:"retry_max"`
	Timeout     time.Duration `yaml:"timeout"`
	Concurrency int           `yaml:"concurrency"`
}

// Validate validates the favicon configuration.
func (c *FaviconConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Endpoint, validation.Required, validation.By(hasURLVerb)),
		validation.Field(&c.Size, validation.Required, validation.Min(1), validation.Max(256)),
		validation.Field(&c.RetryMax, validation.Min(0), validation.Max(10)),
		validation.Field(&c.Timeout, validation.Required, validation.Min(100*time.Millisecond)),
		validation.Field(&c.Concurrency, validation.Required, validation.Min(1), validation.Max(64)),
	)
}

func hasURLVerb(value any) error {
	s, _ := value.(string)
	if !strings.Contains(s, "%s") {
		return errors.New("must contain %s for the page url")
	}
	return nil
}

// Settings are the user toggles persisted between runs.
type Settings struct {
	AutoExpandFolders  bool `yaml:"auto_expand_folders"`
	ShowBookmarkIcon   bool `yaml:"show_bookmark_icon"`
	IncludeIconData    bool `yaml:"include_icon_data"`
	IncludeDates       bool `yaml:"include_dates"`
	HideOtherBookmarks bool `yaml:"hide_other_bookmarks"`
	HideParentFolder   bool `yaml:"hide_parent_folder"`
}

// ExportOptions returns the export policy the settings describe.
func (s Settings) ExportOptions() normalize.Options {
	return normalize.Options{
		IncludeIconData:    s.IncludeIconData,
		IncludeDates:       s.IncludeDates,
		HideOtherBookmarks: s.HideOtherBookmarks,
		HideParentFolder:   s.HideParentFolder,
	}
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	return &Config{
		DBPath:    getDefaultDBPath(),
		LogLevel:  slog.LevelInfo,
		ExportDir: ".",
		Favicon: FaviconConfig{
			Endpoint:    favicon.DefaultEndpoint,
			Size:        favicon.DefaultSize,
			CacheDir:    getDefaultCacheDir(),
			RetryMax:    3,
			Timeout:     10 * time.Second,
			Concurrency: 8,
		},
		Settings: Settings{
			ShowBookmarkIcon:   true,
			IncludeDates:       true,
			HideOtherBookmarks: true,
		},
	}
}

// WithDBPath sets a custom database path
func (c *Config) WithDBPath(path string) *Config {
	c.DBPath = expandHome(path)
	return c
}

// Path returns the file the configuration was loaded from and is saved to.
func (c *Config) Path() string {
	return c.path
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.DBPath, validation.Required),
		validation.Field(&c.ExportDir, validation.Required),
	); err != nil {
		return err
	}
	if err := c.Favicon.Validate(); err != nil {
		return fmt.Errorf("favicon: %w", err)
	}
	return nil
}

// DefaultPath returns the configuration file used when none is given.
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "bookmarks.yaml"
	}
	return filepath.Join(homeDir, ".bookmarks", "config.yaml")
}

// Load reads the configuration at path, expanding ${VAR} references. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := NewConfig()
	cfg.path = path

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg.raw = data
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.DBPath = expandHome(cfg.DBPath)
	cfg.ExportDir = expandHome(cfg.ExportDir)
	cfg.Favicon.CacheDir = expandHome(cfg.Favicon.CacheDir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration back to the file it was loaded from. When that file
// exists only its settings section is rewritten, so ${VAR} references and values
// overridden at runtime stay as they are on disk.
func (c *Config) Save() error {
	if c.path == "" {
		return errors.New("config has no file path")
	}

	data, err := c.encode()
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", c.path, err)
	}
	c.raw = data
	return nil
}

func (c *Config) encode() ([]byte, error) {
	if len(c.raw) == 0 {
		return yaml.Marshal(c)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(c.raw, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return yaml.Marshal(c)
	}

	var settings yaml.Node
	if err := settings.Encode(c.Settings); err != nil {
		return nil, err
	}

	root := doc.Content[0]
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == "settings" {
			root.Content[i+1] = &settings
			return yaml.Marshal(&doc)
		}
	}
	root.Content = append(root.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "settings"}, &settings)
	return yaml.Marshal(&doc)
}

func getDefaultDBPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "bookmarks.db"
	}
	return filepath.Join(homeDir, ".bookmarks", "bookmarks.db")
}

func getDefaultCacheDir() string {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "bookmark-transfer", "favicons")
	}
	return filepath.Join(cacheDir, "bookmark-transfer", "favicons")
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
}
