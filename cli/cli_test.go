package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("PANEL_TEST_DIR", "/tmp/panel-state")
	t.Setenv("CODEXPANEL_THEME", "dracula")

	path := filepath.Join(dir, appName, "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	content := "state_dir: ${PANEL_TEST_DIR}\nlog_level: debug\ntheme: github\nid_prefix: rec\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/panel-state", cfg.StateDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "dracula", cfg.Theme, "environment overrides the file")
	assert.Equal(t, "rec", cfg.IDPrefix)
	assert.Equal(t, "dark", cfg.TranscriptStyle, "unset keys keep defaults")
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.LogLevel = "loud"
	assert.True(t, errors.Is(cfg.Validate(), ErrInvalidLogLevel))

	cfg = DefaultConfig()
	cfg.IDPrefix = " "
	assert.Equal(t, ErrEmptyIDPrefix, cfg.Validate())
}

func TestBindFlags(t *testing.T) {
	cfg := DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.BindFlags(fs)

	err := fs.Parse([]string{"-c", "a.go", "--context", "b.go", "--log-level", "debug", "--prompt", "fix @src/x.go", "--files", "src/x.go,src/y.go"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.go", "b.go"}, cfg.ContextFiles)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "monokai", cfg.Theme)
	assert.Equal(t, []string{"a.go", "b.go", "src/x.go"}, cfg.ResolveContextFiles())
}

func TestResolveContextFilesDedupes(t *testing.T) {
	cfg := &Config{
		ContextFiles: []string{"x.go"},
		Prompt:       "@x.go @all",
		Files:        []string{"x.go", "y.go"},
	}
	assert.Equal(t, []string{"x.go", "y.go"}, cfg.ResolveContextFiles())
}

func TestOverlayKeepsFileSettingsForUnsetFlags(t *testing.T) {
	flagged := DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flagged.BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"--theme", "github", "-c", "a.go"}))

	loaded := DefaultConfig()
	loaded.Theme = "dracula"
	loaded.LogLevel = "warn"
	loaded.Overlay(fs, flagged)

	assert.Equal(t, "github", loaded.Theme, "explicit flag wins")
	assert.Equal(t, "warn", loaded.LogLevel, "file value survives an unset flag")
	assert.Equal(t, []string{"a.go"}, loaded.ContextFiles)
}
