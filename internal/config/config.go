// Package config assembles the runtime settings of the vault from
// defaults, an optional JSON file and command-line flags, in that order.
package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/pmanager/internal/objstore"
)

// Config holds runtime settings.
//
// Fields:
//   - DatabaseDriver: "sqlite" (default) or "postgres".
//   - DatabaseDSN: sqlite file path or PostgreSQL DSN (pgx).
//   - SearchDebounce: quiet period before a typed search query runs.
//   - SessionTTL: idle time after which the vault locks.
//   - LogLevel: debug, info, warn or error.
//   - S3*: object storage for backups; an empty bucket disables them.
type Config struct {
	DatabaseDriver string
	DatabaseDSN    string
	SearchDebounce time.Duration
	SessionTTL     time.Duration
	LogLevel       string
	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	S3User         string
	S3Password     string
}

// LoadDefaults populates c with defaults.
func (c *Config) LoadDefaults() {
	c.DatabaseDriver = "sqlite"
	c.DatabaseDSN = "secure_vault.db"
	c.SearchDebounce = 300 * time.Millisecond
	c.SessionTTL = 15 * time.Minute
	c.LogLevel = "warn"
	c.S3Region = "us-east-1"
}

// ObjectStore returns the backup storage settings.
func (c *Config) ObjectStore() objstore.Config {
	return objstore.Config{
		Bucket:   c.S3Bucket,
		Region:   c.S3Region,
		Endpoint: c.S3Endpoint,
		User:     c.S3User,
		Password: c.S3Password,
	}
}

func (c *Config) validate() error {
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.DatabaseDriver)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("database dsn is empty")
	}
	if c.SearchDebounce < 0 {
		return fmt.Errorf("negative search debounce %s", c.SearchDebounce)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", c.SessionTTL)
	}
	return nil
}

// Load applies defaults, then the JSON file named by -c/-config, then
// flags. args excludes the program name.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
