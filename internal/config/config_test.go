package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/pmanager/internal/objstore"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() *Config {
	c := &Config{}
	c.LoadDefaults()
	return c
}

func TestLoadDefaults(t *testing.T) {
	c := defaults()
	assert.Equal(t, "sqlite", c.DatabaseDriver)
	assert.Equal(t, "secure_vault.db", c.DatabaseDSN)
	assert.Equal(t, 300*time.Millisecond, c.SearchDebounce)
	assert.Equal(t, 15*time.Minute, c.SessionTTL)
	assert.False(t, c.ObjectStore().Enabled())
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    func(c *Config)
		wantErr bool
	}{
		{name: "no flags", args: nil, want: func(c *Config) {}},
		{
			name: "all flags",
			args: []string{"-driver", "postgres", "-d", "postgres://x", "-debounce", "50", "-ttl", "2", "-log", "debug",
				"-s3-bucket", "b", "-s3-region", "r", "-s3-endpoint", "http://e", "-s3-user", "u", "-s3-password", "p"},
			want: func(c *Config) {
				c.DatabaseDriver = "postgres"
				c.DatabaseDSN = "postgres://x"
				c.SearchDebounce = 50 * time.Millisecond
				c.SessionTTL = 2 * time.Minute
				c.LogLevel = "debug"
				c.S3Bucket, c.S3Region, c.S3Endpoint, c.S3User, c.S3Password = "b", "r", "http://e", "u", "p"
			},
		},
		{name: "unknown flags ignored", args: []string{"-x", "1", "-d=vault.db"}, want: func(c *Config) { c.DatabaseDSN = "vault.db" }},
		{name: "bad debounce", args: []string{"-debounce", "abc"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := defaults()
			err := parseFlags(got, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			want := defaults()
			tt.want(want)
			assert.Empty(t, cmp.Diff(want, got))
		})
	}
}

func writeJSON(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestParseJSON(t *testing.T) {
	path := writeJSON(t, `{"database_dsn": "other.db", "search_debounce": "150ms", "session_ttl": 60000000000, "s3_bucket": "vault"}`)

	c := defaults()
	require.NoError(t, parseJSON(c, []string{"-c", path}))

	want := defaults()
	want.DatabaseDSN = "other.db"
	want.SearchDebounce = 150 * time.Millisecond
	want.SessionTTL = time.Minute
	want.S3Bucket = "vault"
	assert.Empty(t, cmp.Diff(want, c))

	assert.Equal(t, objstore.Config{Bucket: "vault", Region: "us-east-1"}, c.ObjectStore())
}

func TestParseJSON_Errors(t *testing.T) {
	c := defaults()
	require.NoError(t, parseJSON(c, nil))
	assert.Empty(t, cmp.Diff(defaults(), c))

	require.ErrorContains(t, parseJSON(c, []string{"-config", filepath.Join(t.TempDir(), "missing.json")}), "read config file")
	require.ErrorContains(t, parseJSON(c, []string{"-config", writeJSON(t, "{ nope")}), "parse config file")
}

func TestLoad_Precedence(t *testing.T) {
	path := writeJSON(t, `{"database_dsn": "json.db", "log_level": "info", "search_debounce": "1500us"}`)

	c, err := Load([]string{"-c", path, "-d", "flag.db", "-ttl", "5"})
	require.NoError(t, err)
	assert.Equal(t, "flag.db", c.DatabaseDSN)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, 1500*time.Microsecond, c.SearchDebounce)
	assert.Equal(t, 5*time.Minute, c.SessionTTL)
}

func TestLoad_Validation(t *testing.T) {
	_, err := Load([]string{"-driver", "mysql"})
	require.ErrorContains(t, err, "unsupported database driver")

	_, err = Load([]string{"-ttl", "0"})
	require.ErrorContains(t, err, "session ttl")

	_, err = Load([]string{"-d="})
	require.ErrorContains(t, err, "dsn")
}
