// Package cli holds the configuration of the codexpanel command: persistent
// settings from a YAML file and the environment, plus per-run flags.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/codex-router/codex.gerrit/internal/paths"
)

const appName = "codexpanel"

// StateDirRepo as the state directory places the history at the root of the
// current git repository.
const StateDirRepo = "repo"

// Config holds the persistent settings and the command-line flag values.
type Config struct {
	// StateDir is where the decision history is mirrored. Empty keeps it in
	// memory; StateDirRepo selects the repository root.
	StateDir string `yaml:"state_dir"`
	// LogFile enables logging to the given file.
	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level"`
	// Theme is the chroma style used for diffs.
	Theme string `yaml:"theme"`
	// TranscriptStyle is the glamour style of the review panel transcript.
	TranscriptStyle string `yaml:"transcript_style"`
	IDPrefix        string `yaml:"id_prefix"`

	ContextFiles []string `yaml:"-"`
	Prompt       string   `yaml:"-"`
	Files        []string `yaml:"-"`
	LookupDirs   []string `yaml:"-"`
	JSON         bool     `yaml:"-"`
	ShowDiff     bool     `yaml:"-"`
	Output       string   `yaml:"-"`
	Watch        bool     `yaml:"-"`
	NoAnimation  bool     `yaml:"-"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:        "info",
		Theme:           "monokai",
		TranscriptStyle: "dark",
		IDPrefix:        "fc",
	}
}

// ConfigError is a configuration validation failure.
type ConfigError string

func (e ConfigError) Error() string {
	return string(e)
}

const (
	ErrInvalidLogLevel ConfigError = "invalid log level"
	ErrEmptyIDPrefix   ConfigError = "id prefix must not be empty"
)

// DefaultPath returns the location of the config file.
func DefaultPath() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, appName, "config.yaml")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config", appName, "config.yaml")
}

// Load reads the config file at path (DefaultPath when empty) on top of the
// defaults and applies environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			if !os.IsNotExist(err) || explicit {
				return nil, err
			}
		}
	}

	loadFromEnv(cfg)
	return cfg, nil
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func loadFromEnv(cfg *Config) {
	overrides := map[string]*string{
		"CODEXPANEL_STATE_DIR":        &cfg.StateDir,
		"CODEXPANEL_LOG_FILE":         &cfg.LogFile,
		"CODEXPANEL_LOG_LEVEL":        &cfg.LogLevel,
		"CODEXPANEL_THEME":            &cfg.Theme,
		"CODEXPANEL_TRANSCRIPT_STYLE": &cfg.TranscriptStyle,
		"CODEXPANEL_ID_PREFIX":        &cfg.IDPrefix,
	}
	for env, field := range overrides {
		if v := os.Getenv(env); v != "" {
			*field = v
		}
	}
}

// BindFlags registers the per-run flags and the flag overrides of the
// persistent settings on fs.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringSliceVarP(&c.ContextFiles, "context", "c", c.ContextFiles, "File the prompt referenced (repeatable). Used to place code blocks when the reply has no diff.")
	fs.StringVar(&c.Prompt, "prompt", c.Prompt, "Prompt that produced the reply; its @file mentions select context files from --files.")
	fs.StringSliceVar(&c.Files, "files", c.Files, "Files of the change that @mentions in --prompt may refer to.")
	fs.StringVar(&c.StateDir, "state-dir", c.StateDir, "Directory to mirror the decision history to.")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "Write logs to this file.")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error).")
	fs.StringVar(&c.Theme, "theme", c.Theme, "Chroma style for diff highlighting.")
	fs.BoolVar(&c.NoAnimation, "no-animation", c.NoAnimation, "Disable the loading spinner.")
}

// Overlay copies the per-run values of flagged into c, along with every
// persistent setting whose flag was set on fs.
func (c *Config) Overlay(fs *pflag.FlagSet, flagged *Config) {
	settings := map[string]func(){
		"state-dir": func() { c.StateDir = flagged.StateDir },
		"log-file":  func() { c.LogFile = flagged.LogFile },
		"log-level": func() { c.LogLevel = flagged.LogLevel },
		"theme":     func() { c.Theme = flagged.Theme },
	}
	for name, apply := range settings {
		if fs.Changed(name) {
			apply()
		}
	}

	c.ContextFiles = flagged.ContextFiles
	c.Prompt = flagged.Prompt
	c.Files = flagged.Files
	c.LookupDirs = flagged.LookupDirs
	c.JSON = flagged.JSON
	c.ShowDiff = flagged.ShowDiff
	c.Output = flagged.Output
	c.Watch = flagged.Watch
	c.NoAnimation = flagged.NoAnimation
}

// Validate checks the settings.
func (c *Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w %q", ErrInvalidLogLevel, c.LogLevel)
	}
	if strings.TrimSpace(c.IDPrefix) == "" {
		return ErrEmptyIDPrefix
	}
	return nil
}

// ResolveContextFiles returns the explicit context files followed by the
// files mentioned in the prompt, without duplicates.
func (c *Config) ResolveContextFiles() []string {
	files := append([]string{}, c.ContextFiles...)
	if c.Prompt != "" {
		files = append(files, paths.Mentions(c.Prompt, c.Files)...)
	}
	return paths.Dedupe(files)
}
