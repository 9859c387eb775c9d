package repomanager

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dmitrijs2005/pmanager/internal/dbx"
	"github.com/dmitrijs2005/pmanager/internal/migrations"
	"github.com/dmitrijs2005/pmanager/internal/repositories/entries"
	"github.com/dmitrijs2005/pmanager/internal/repositories/settings"
	"github.com/dmitrijs2005/pmanager/internal/repositories/users"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

type SQLiteRepositoryManager struct{}

func (m *SQLiteRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Entries(db dbx.DBTX) entries.Repository {
	return entries.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Settings(db dbx.DBTX) settings.Repository {
	return settings.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return gooseUp(ctx, goose.DialectSQLite3, db, migrations.SQLite())
}

// SQLiteDSN adds the connection pragmas the schema relies on: foreign keys
// for the cascade from users to entries, and a busy timeout for the
// background watcher sharing the file with the REPL.
func SQLiteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}
