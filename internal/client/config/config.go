package config

import "github.com/dmitrijs2005/manholepro/internal/common"

// Config holds runtime settings for the inspection CLI.
//
// Fields:
//   - DatabasePath: file holding the inspection store.
//   - LogLevel: debug, info, warn or error.
//   - LogFormat: json, text, zap or console (see logging.New).
type Config struct {
	DatabasePath string `json:"database_path" yaml:"database_path" env:"DB_PATH"`
	LogLevel     string `json:"log_level" yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat    string `json:"log_format" yaml:"log_format" env:"LOG_FORMAT"`
}

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "MANHOLE_"

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabasePath = common.DefaultDatabaseFile
	c.LogLevel = "warn"
	c.LogFormat = "text"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// a config file (if present), the environment and command-line flags. Later
// sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
