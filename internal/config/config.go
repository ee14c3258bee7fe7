// Package config loads the manuscript configuration.
//
// Values come from config.yaml (created with defaults when missing), then a
// .env file and the process environment, then command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/maruel/manuscript/internal/storage"
)

const (
	// Filename is the configuration file name inside the project directory.
	Filename = "config.yaml"
	// EnvPrefix prefixes every environment variable read by ApplyEnv.
	EnvPrefix = "MANUSCRIPT_"
)

// Config holds every tunable of a project.
type Config struct {
	// DefaultProjectName titles newly created projects.
	DefaultProjectName string `yaml:"default_project_name" json:"default_project_name"`
	// ChapterExt is the extension of chapter files, including the dot.
	ChapterExt string `yaml:"chapter_ext" json:"chapter_ext"`
	// AutosaveInterval is how often the session saves the current chapter.
	AutosaveInterval time.Duration `yaml:"autosave_interval" json:"autosave_interval"`
	// SnapshotInterval is the minimum time between two automatic snapshots of a chapter.
	SnapshotInterval time.Duration `yaml:"snapshot_interval" json:"snapshot_interval"`
	// StatsInterval is the minimum time between two word count samples.
	StatsInterval time.Duration `yaml:"stats_interval" json:"stats_interval"`
	// GitMirror enables the git repository under versions/.
	GitMirror bool `yaml:"git_mirror" json:"git_mirror"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// Default returns the configuration written to new projects.
func Default() Config {
	return Config{
		DefaultProjectName: "我的小说",
		ChapterExt:         ".md",
		AutosaveInterval:   5 * time.Second,
		SnapshotInterval:   60 * time.Second,
		StatsInterval:      60 * time.Second,
		LogLevel:           "info",
	}
}

var extRe = regexp.MustCompile(`^\.[A-Za-z0-9]+$`)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DefaultProjectName, validation.Required, validation.RuneLength(1, 200)),
		validation.Field(&c.ChapterExt, validation.Required, validation.Match(extRe)),
		validation.Field(&c.AutosaveInterval, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.SnapshotInterval, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.StatsInterval, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.LogLevel, validation.Required, validation.In("debug", "info", "warn", "error")),
	)
}

// Load reads the configuration file at path. A missing file is created with
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is chosen by the user
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	case errors.Is(err, os.ErrNotExist):
		if err := cfg.Save(path); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", filepath.Base(path), err)
	}
	return &cfg, nil
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if _, err := storage.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := storage.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ApplyEnv overrides fields from MANUSCRIPT_* variables.
//
// Variables defined in the dotenv file are used when the process environment
// does not set them. A missing dotenv file is ignored.
func (c *Config) ApplyEnv(dotenv string) error {
	file := map[string]string{}
	if dotenv != "" {
		m, err := godotenv.Read(dotenv)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to read %s: %w", dotenv, err)
		}
		if m != nil {
			file = m
		}
	}
	lookup := func(name string) (string, bool) {
		if v, ok := os.LookupEnv(name); ok {
			return v, true
		}
		v, ok := file[name]
		return v, ok
	}

	var errs []error
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v, ok := lookup(EnvPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = d
		}
	}
	str("DEFAULT_PROJECT_NAME", &c.DefaultProjectName)
	str("CHAPTER_EXT", &c.ChapterExt)
	dur("AUTOSAVE_INTERVAL", &c.AutosaveInterval)
	dur("SNAPSHOT_INTERVAL", &c.SnapshotInterval)
	dur("STATS_INTERVAL", &c.StatsInterval)
	if v, ok := lookup(EnvPrefix + "GIT_MIRROR"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sGIT_MIRROR: %w", EnvPrefix, err))
		} else {
			c.GitMirror = b
		}
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		c.LogLevel = strings.ToLower(v)
	}
	str("LOG_LEVEL", &c.LogLevel)
	if err := errors.Join(errs...); err != nil {
		return err
	}
	return c.Validate()
}
