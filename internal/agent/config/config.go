package config

import (
	"time"

	"github.com/dmitrijs2005/manholepro/internal/common"
	"github.com/dmitrijs2005/manholepro/internal/timex"
)

// Origin backends.
const (
	OriginHTTP = "http"
	OriginS3   = "s3"
)

// Config holds runtime settings for the asset cache agent.
//
// Fields:
//   - ListenAddr: address the local proxy listens on.
//   - Origin: URL of the application origin; only its assets are cached.
//   - ManifestPath: origin path of the asset manifest. Empty means the
//     built-in asset list is installed once and never rechecked.
//   - DatabasePath: SQLite file for asset snapshots.
//   - CheckInterval: how often the manifest is polled.
//   - OriginKind: http or s3.
//   - S3Bucket / S3Region / S3BaseEndpoint / S3User / S3Password: bucket
//     settings when OriginKind is s3.
type Config struct {
	ListenAddr     string         `json:"listen_addr" yaml:"listen_addr" env:"LISTEN_ADDR"`
	Origin         string         `json:"origin" yaml:"origin" env:"ORIGIN"`
	ManifestPath   string         `json:"manifest_path" yaml:"manifest_path" env:"MANIFEST_PATH"`
	DatabasePath   string         `json:"database_path" yaml:"database_path" env:"ASSETS_DB_PATH"`
	CheckInterval  timex.Duration `json:"check_interval" yaml:"check_interval" env:"CHECK_INTERVAL"`
	OriginKind     string         `json:"origin_kind" yaml:"origin_kind" env:"ORIGIN_KIND"`
	S3Bucket       string         `json:"s3_bucket" yaml:"s3_bucket" env:"S3_BUCKET"`
	S3Region       string         `json:"s3_region" yaml:"s3_region" env:"S3_REGION"`
	S3BaseEndpoint string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint" env:"S3_BASE_ENDPOINT"`
	S3User         string         `json:"s3_user" yaml:"s3_user" env:"S3_USER"`
	S3Password     string         `json:"s3_password" yaml:"s3_password" env:"S3_PASSWORD"`
	LogLevel       string         `json:"log_level" yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat      string         `json:"log_format" yaml:"log_format" env:"LOG_FORMAT"`
}

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "MANHOLE_"

// LoadDefaults populates c with development defaults.
func (c *Config) LoadDefaults() {
	c.ListenAddr = ":8080"
	c.Origin = "http://127.0.0.1:8000/"
	c.ManifestPath = "/asset-manifest.json"
	c.DatabasePath = common.DefaultAssetsFile
	c.CheckInterval = timex.Duration{Duration: 5 * time.Minute}
	c.OriginKind = OriginHTTP
	c.S3Bucket = "manhole-inspector"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.LogLevel = "info"
	c.LogFormat = "json"
}

// LoadConfig builds a Config from defaults, then a config file (if any), the
// environment and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
