package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

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

	assert.Equal(t, ":8080", c.ListenAddr)
	assert.Equal(t, "/asset-manifest.json", c.ManifestPath)
	assert.Equal(t, common.DefaultAssetsFile, c.DatabasePath)
	assert.Equal(t, 5*time.Minute, c.CheckInterval.Duration)
	assert.Equal(t, OriginHTTP, c.OriginKind)
	assert.Equal(t, "us-east-1", c.S3Region)
	assert.Equal(t, "info", c.LogLevel)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	withArgs(t)

	c := LoadConfig()

	require.NotNil(t, c, "LoadConfig must not return nil")
	assert.Equal(t, ":8080", c.ListenAddr)
	assert.Equal(t, 5*time.Minute, c.CheckInterval.Duration)
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"origin: https://file.example.com/\ncheck_interval: 2m\norigin_kind: s3\ns3_bucket: from-file\n"), 0o600))

	t.Setenv("MANHOLE_S3_BUCKET", "from-env")
	t.Setenv("MANHOLE_CHECK_INTERVAL", "90s")
	withArgs(t, "-c", path, "-b", "from-flag")

	c := LoadConfig()

	assert.Equal(t, "https://file.example.com/", c.Origin, "file overrides default")
	assert.Equal(t, OriginS3, c.OriginKind)
	assert.Equal(t, 90*time.Second, c.CheckInterval.Duration, "env overrides file")
	assert.Equal(t, "from-flag", c.S3Bucket, "flag overrides env")
}

func Test_parseFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "agent.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"listen_addr":":9999","check_interval":"30s"}`), 0o600))
		withArgs(t, "-config", path)

		c := &Config{LogLevel: "warn"}
		parseFile(c)

		assert.Equal(t, ":9999", c.ListenAddr)
		assert.Equal(t, 30*time.Second, c.CheckInterval.Duration)
		assert.Equal(t, "warn", c.LogLevel)
	})

	t.Run("invalid interval panics", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"check_interval":"soon"}`), 0o600))
		withArgs(t, "-c", path)

		require.Panics(t, func() { parseFile(&Config{}) })
	})
}

func Test_parseEnv(t *testing.T) {
	t.Setenv("MANHOLE_ORIGIN", "https://env.example.com/")
	t.Setenv("MANHOLE_ASSETS_DB_PATH", "/var/lib/manhole/assets.db")

	c := &Config{ListenAddr: ":8080"}
	parseEnv(c)

	assert.Equal(t, "https://env.example.com/", c.Origin)
	assert.Equal(t, "/var/lib/manhole/assets.db", c.DatabasePath)
	assert.Equal(t, ":8080", c.ListenAddr)
}

func Test_parseEnvBadInterval(t *testing.T) {
	t.Setenv("MANHOLE_CHECK_INTERVAL", "often")
	require.Panics(t, func() { parseEnv(&Config{}) })
}
