package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/pmanager/internal/flagx"
)

var knownFlags = []string{
	"-driver", "-d", "-debounce", "-ttl", "-log",
	"-s3-bucket", "-s3-region", "-s3-endpoint", "-s3-user", "-s3-password",
}

// parseFlags overlays cfg with command-line flags.
//
//	-driver string      sqlite or postgres
//	-d string           database file or DSN
//	-debounce int       search debounce (milliseconds)
//	-ttl int            session lifetime (minutes)
//	-log string         log level
//	-s3-bucket string   backup bucket, empty disables backups
//	-s3-region, -s3-endpoint, -s3-user, -s3-password
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("pmanager", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.DatabaseDriver, "driver", cfg.DatabaseDriver, "database driver: sqlite or postgres")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database file (sqlite) or DSN (postgres)")
	debounce := fs.Int("debounce", int(cfg.SearchDebounce.Milliseconds()), "search debounce (in milliseconds)")
	ttl := fs.Int("ttl", int(cfg.SessionTTL.Minutes()), "session lifetime (in minutes)")
	fs.StringVar(&cfg.LogLevel, "log", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.S3Bucket, "s3-bucket", cfg.S3Bucket, "backup bucket")
	fs.StringVar(&cfg.S3Region, "s3-region", cfg.S3Region, "backup bucket region")
	fs.StringVar(&cfg.S3Endpoint, "s3-endpoint", cfg.S3Endpoint, "S3-compatible endpoint URL")
	fs.StringVar(&cfg.S3User, "s3-user", cfg.S3User, "S3 access key")
	fs.StringVar(&cfg.S3Password, "s3-password", cfg.S3Password, "S3 secret key")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// only overwrite durations that were given, so sub-unit values from
	// JSON survive
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "debounce":
			cfg.SearchDebounce = time.Duration(*debounce) * time.Millisecond
		case "ttl":
			cfg.SessionTTL = time.Duration(*ttl) * time.Minute
		}
	})
	return nil
}
