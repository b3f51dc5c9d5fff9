// Package config layers goimplements settings from defaults, a YAML file,
// GOIMPLEMENTS_* environment variables and explicitly set flags.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/olehluchkiv/goimplements/internal/render"
)

// EnvPrefix marks environment variables read as configuration.
const EnvPrefix = "GOIMPLEMENTS_"

// DefaultFiles are tried in order when no config file is named.
var DefaultFiles = []string{"goimplements.yaml", "goimplements.yml"}

// Config holds the resolved settings.
type Config struct {
	LogLevel string `koanf:"log_level"`
	LogFile  string `koanf:"log_file"`
	Format   string `koanf:"format"`
	Autoload bool   `koanf:"autoload"`

	// Manifest is a directory of YAML descriptors loaded up front.
	Manifest string `koanf:"manifest"`
	// AutoloadDir holds one YAML descriptor file per name, loaded on demand.
	AutoloadDir string `koanf:"autoload_dir"`
	// Source is a Go module path or GitHub URL to populate the registry from.
	Source            string `koanf:"source"`
	IncludeStdlib     bool   `koanf:"include_stdlib"`
	IncludeUnexported bool   `koanf:"include_unexported"`
	Filter            string `koanf:"filter"`

	Serve bool `koanf:"serve"`
	Port  int  `koanf:"port"`

	// File is the config file that was read, if any.
	File string `koanf:"-"`
}

// Defaults returns the lowest-priority layer.
func Defaults() map[string]any {
	return map[string]any{
		"log_level":          "info",
		"log_file":           "",
		"format":             string(render.FormatDump),
		"autoload":           true,
		"manifest":           "",
		"autoload_dir":       "",
		"source":             "",
		"include_stdlib":     false,
		"include_unexported": false,
		"filter":             "",
		"serve":              false,
		"port":               8080,
	}
}

// Load builds a Config. path names the config file; when empty the
// DefaultFiles in the working directory are tried and may be absent.
// overrides holds explicitly set flags keyed like the koanf tags and wins
// over every other layer.
func Load(path string, overrides map[string]any) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	cfgFile := findConfigFile(path)
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", cfgFile, err)
		}
	}

	// GOIMPLEMENTS_LOG_LEVEL -> log_level
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.File = cfgFile

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values the loaders cannot type-check.
func (c *Config) Validate() error {
	if _, err := render.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("format: %w", err)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level: unknown level %q (valid: debug, info, warn, error)", c.LogLevel)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port: %d out of range", c.Port)
	}
	return nil
}

func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range DefaultFiles {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}
