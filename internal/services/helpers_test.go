package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/pmanager/internal/logging"
	"github.com/dmitrijs2005/pmanager/internal/repositories/repomanager"
	"github.com/dmitrijs2005/pmanager/internal/session"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	db       *sql.DB
	repos    repomanager.RepositoryManager
	feed     *ChangeFeed
	auth     *AuthService
	entries  EntryService
	settings SettingsService
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvTTL(t, time.Minute)
}

func newTestEnvTTL(t *testing.T, ttl time.Duration) *testEnv {
	t.Helper()

	db, repos, err := repomanager.Open(context.Background(), repomanager.DriverSQLite, filepath.Join(t.TempDir(), "vault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	feed := NewChangeFeed()
	log := logging.Discard()
	return &testEnv{
		db:       db,
		repos:    repos,
		feed:     feed,
		auth:     NewAuthService(db, repos, session.NewManager(ttl), feed, log),
		entries:  NewEntryService(db, repos, feed, log),
		settings: NewSettingsService(db, repos),
	}
}

// login registers username (password "pw") and returns its session.
func (e *testEnv) login(t *testing.T, username string) *session.Session {
	t.Helper()
	require.NoError(t, e.auth.Register(context.Background(), username, "pw", "pw"))
	sess, err := e.auth.Current()
	require.NoError(t, err)
	return sess
}
