// Package config loads the optional lectern.toml file used by the command
// line shell.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/aretw0/lectern/pkg/core"
	"github.com/aretw0/lectern/pkg/naming"
)

// Config captures the settings of one library root.
type Config struct {
	Root              string `toml:"root"`
	Format            string `toml:"format"`
	Kind              string `toml:"kind"`
	MaxFileNameLength int    `toml:"max_file_name_length"`
	LogLevel          string `toml:"log_level"`
}

const (
	defaultFormat   = "json"
	defaultLogLevel = "info"
)

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Root:              ".",
		Format:            defaultFormat,
		Kind:              core.KindSlide,
		MaxFileNameLength: naming.DefaultMaxLength,
		LogLevel:          defaultLogLevel,
	}
}

// Load parses the config at path, falling back to defaults when the file is
// missing. A relative root is resolved against the directory of the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.normalize()
	if !filepath.IsAbs(cfg.Root) {
		cfg.Root = filepath.Join(filepath.Dir(path), cfg.Root)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Root = strings.TrimSpace(c.Root)
	if c.Root == "" {
		c.Root = "."
	}
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	if c.Format == "" {
		c.Format = defaultFormat
	}
	c.Kind = strings.ToLower(strings.TrimSpace(c.Kind))
	if c.Kind == "" {
		c.Kind = core.KindSlide
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.MaxFileNameLength == 0 {
		c.MaxFileNameLength = naming.DefaultMaxLength
	}
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.Format, validation.Required, validation.In("json", "yaml")),
		validation.Field(&c.Kind, validation.Required, validation.In(core.KindSlide, core.KindSong, core.KindBible)),
		validation.Field(&c.MaxFileNameLength, validation.Min(16), validation.Max(255)),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
	)
}

// Save writes c as TOML to path.
func Save(path string, c Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
