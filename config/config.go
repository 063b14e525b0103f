// Package config loads the settings of the clipboard tool from YAML.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/oriumgames/clipboard/format"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config is the configuration of the clipboard tool, read from YAML.
type Config struct {
	World WorldConfig `yaml:"world"`
	Store StoreConfig `yaml:"store"`
	Paste PasteConfig `yaml:"paste"`
	Log   LogConfig   `yaml:"log"`
}

// WorldConfig selects the world file commands operate on and how new worlds
// are created and saved.
type WorldConfig struct {
	// Path of the world file copied from and pasted into.
	Path       string `yaml:"path"`
	// MinSection and MaxSection bound the sections of newly created worlds,
	// MaxSection exclusive.
	MinSection int32  `yaml:"min_section"`
	MaxSection int32  `yaml:"max_section"`
	// Compression is one of none, fast, default or best.
	Compression string `yaml:"compression"`
}

// StoreConfig locates the per-player clipboard store.
type StoreConfig struct {
	// Dir is the leveldb directory, created on first use.
	Dir string `yaml:"dir"`
}

// PasteConfig holds paste defaults that command flags may override.
type PasteConfig struct {
	// SkipAir leaves the world untouched under air cells of the clipboard.
	SkipAir bool `yaml:"skip_air"`
}

// LogConfig configures the logrus logger.
type LogConfig struct {
	// Level is a logrus level name such as debug, info or warn.
	Level string `yaml:"level"`
}

// Load reads the config at path on top of the defaults. An empty path
// returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		World: WorldConfig{
			Path:        "world.vox",
			MinSection:  -4,
			MaxSection:  20,
			Compression: "default",
		},
		Store: StoreConfig{Dir: "clipboards"},
		Log:   LogConfig{Level: "info"},
	}
}

// Normalize trims string fields, lowercases enum values and fills empty
// compression and log level with their defaults.
func (c *Config) Normalize() {
	c.World.Path = strings.TrimSpace(c.World.Path)
	c.World.Compression = strings.ToLower(strings.TrimSpace(c.World.Compression))
	if c.World.Compression == "" {
		c.World.Compression = "default"
	}
	c.Store.Dir = strings.TrimSpace(c.Store.Dir)
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate reports the first invalid setting of c. Load calls it after
// Normalize.
func (c Config) Validate() error {
	if c.World.Path == "" {
		return fmt.Errorf("world.path is required")
	}
	if err := format.NewWorld(c.World.MinSection, c.World.MaxSection).ValidateDimensions(); err != nil {
		return fmt.Errorf("world section range: %w", err)
	}
	if _, err := c.CompressionLevel(); err != nil {
		return err
	}
	if c.Store.Dir == "" {
		return fmt.Errorf("store.dir is required")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// CompressionLevel returns the world file compression level.
func (c Config) CompressionLevel() (format.CompressionLevel, error) {
	switch c.World.Compression {
	case "none":
		return format.CompressionLevelNone, nil
	case "fast":
		return format.CompressionLevelFast, nil
	case "default":
		return format.CompressionLevelDefault, nil
	case "best":
		return format.CompressionLevelBest, nil
	}
	return 0, fmt.Errorf("unknown world.compression %q", c.World.Compression)
}

// LogLevel returns the parsed log level.
func (c Config) LogLevel() (logrus.Level, error) {
	lvl, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}
