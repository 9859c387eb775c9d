package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/pmanager/internal/flagx"
	"github.com/dmitrijs2005/pmanager/internal/timex"
)

// JSONConfig is a DTO used only for unmarshalling. Durations accept "300ms"
// style strings or integer nanoseconds. Absent keys leave Config untouched.
type JSONConfig struct {
	DatabaseDriver *string         `json:"database_driver"`
	DatabaseDSN    *string         `json:"database_dsn"`
	SearchDebounce *timex.Duration `json:"search_debounce"`
	SessionTTL     *timex.Duration `json:"session_ttl"`
	LogLevel       *string         `json:"log_level"`
	S3Bucket       *string         `json:"s3_bucket"`
	S3Region       *string         `json:"s3_region"`
	S3Endpoint     *string         `json:"s3_endpoint"`
	S3User         *string         `json:"s3_user"`
	S3Password     *string         `json:"s3_password"`
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// parseJSON overlays cfg with the file given by -c or -config, if any.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var jc JSONConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&cfg.DatabaseDriver, jc.DatabaseDriver)
	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3Endpoint, jc.S3Endpoint)
	setString(&cfg.S3User, jc.S3User)
	setString(&cfg.S3Password, jc.S3Password)
	if jc.SearchDebounce != nil {
		cfg.SearchDebounce = jc.SearchDebounce.Duration
	}
	if jc.SessionTTL != nil {
		cfg.SessionTTL = jc.SessionTTL.Duration
	}
	return nil
}
