package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/manholepro/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   proxy listen address (e.g., ":8080")
//	-o string   origin URL
//	-m string   manifest path on the origin ("" installs the built-in list)
//	-d string   asset snapshot database file
//	-i int      manifest check interval, seconds
//	-k string   origin kind (http or s3)
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint
//	-u string   S3 access key
//	-p string   S3 secret key
//	-l string   log level
//	-f string   log format
//
// The interval is accepted as whole seconds and converted to a duration.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-o", "-m", "-d", "-i", "-k", "-b", "-g", "-e", "-u", "-p", "-l", "-f"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ListenAddr, "a", cfg.ListenAddr, "proxy listen address")
	fs.StringVar(&cfg.Origin, "o", cfg.Origin, "origin URL")
	fs.StringVar(&cfg.ManifestPath, "m", cfg.ManifestPath, "asset manifest path")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "asset snapshot database file")
	interval := fs.Int("i", int(cfg.CheckInterval.Seconds()), "manifest check interval (in seconds)")
	fs.StringVar(&cfg.OriginKind, "k", cfg.OriginKind, "origin kind (http, s3)")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "S3 bucket")
	fs.StringVar(&cfg.S3Region, "g", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3BaseEndpoint, "e", cfg.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&cfg.S3User, "u", cfg.S3User, "S3 access key")
	fs.StringVar(&cfg.S3Password, "p", cfg.S3Password, "S3 secret key")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "f", cfg.LogFormat, "log format (json, text, zap, console)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.CheckInterval.Duration = time.Duration(*interval) * time.Second
}
