package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/manholepro/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })
	os.Args = append([]string{"testbin"}, args...)
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, common.DefaultDatabaseFile, c.DatabasePath)
	assert.Equal(t, "warn", c.LogLevel)
	assert.Equal(t, "text", c.LogFormat)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	withArgs(t)

	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, common.DefaultDatabaseFile, cfg.DatabasePath)
}

func TestLoadConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database_path: from-file.db\nlog_level: info\nlog_format: json\n"), 0o600))

	t.Setenv("MANHOLE_LOG_LEVEL", "debug")
	t.Setenv("MANHOLE_LOG_FORMAT", "zap")
	withArgs(t, "-c", path, "-f", "console")

	cfg := LoadConfig()

	assert.Equal(t, "from-file.db", cfg.DatabasePath, "file overrides default")
	assert.Equal(t, "debug", cfg.LogLevel, "env overrides file")
	assert.Equal(t, "console", cfg.LogFormat, "flag overrides env")
}

func Test_parseFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "cfg.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"database_path":"x.db"}`), 0o600))
		withArgs(t, "-config", path)

		cfg := &Config{LogLevel: "warn"}
		parseFile(cfg)

		assert.Equal(t, "x.db", cfg.DatabasePath)
		assert.Equal(t, "warn", cfg.LogLevel, "missing keys keep their value")
	})

	t.Run("no file flag → no changes", func(t *testing.T) {
		withArgs(t)

		cfg := &Config{DatabasePath: "keep.db"}
		parseFile(cfg)

		assert.Equal(t, "keep.db", cfg.DatabasePath)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))
		withArgs(t, "-c", bad)

		require.Panics(t, func() { parseFile(&Config{}) })
	})

	t.Run("missing file → panics", func(t *testing.T) {
		withArgs(t, "-c", filepath.Join(dir, "nope.yaml"))

		require.Panics(t, func() { parseFile(&Config{}) })
	})
}

func Test_parseEnv(t *testing.T) {
	t.Setenv("MANHOLE_DB_PATH", "/tmp/env.db")

	cfg := &Config{DatabasePath: "default.db", LogLevel: "warn"}
	parseEnv(cfg)

	assert.Equal(t, "/tmp/env.db", cfg.DatabasePath)
	assert.Equal(t, "warn", cfg.LogLevel)
}
