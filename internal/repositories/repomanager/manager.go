// Package repomanager wires the repository constructors of one storage
// back-end together with its schema migrations.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/dmitrijs2005/pmanager/internal/dbx"
	"github.com/dmitrijs2005/pmanager/internal/filex"
	"github.com/dmitrijs2005/pmanager/internal/repositories/entries"
	"github.com/dmitrijs2005/pmanager/internal/repositories/settings"
	"github.com/dmitrijs2005/pmanager/internal/repositories/users"
	"github.com/pressly/goose/v3"
)

// Supported values of the database driver setting.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code
// path works on a *sql.DB and inside a transaction.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Entries(db dbx.DBTX) entries.Repository
	Settings(db dbx.DBTX) settings.Repository
}

// gooseUp is a seam for testing the migration run.
var gooseUp = func(ctx context.Context, dialect goose.Dialect, db *sql.DB, fsys fs.FS) error {
	p, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return err
	}
	_, err = p.Up(ctx)
	return err
}

// New returns the manager for driver.
func New(driver string) (RepositoryManager, error) {
	switch driver {
	case DriverSQLite, "":
		return &SQLiteRepositoryManager{}, nil
	case DriverPostgres:
		return &PostgresRepositoryManager{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Open connects to the database, checks the connection and brings the
// schema up to date.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, RepositoryManager, error) {
	m, err := New(driver)
	if err != nil {
		return nil, nil, err
	}

	var db *sql.DB
	switch m.(type) {
	case *PostgresRepositoryManager:
		db, err = sql.Open("pgx", dsn)
	default:
		if _, err := filex.EnsureParentDir(dsn); err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		db, err = sql.Open("sqlite", SQLiteDSN(dsn))
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}

	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}

	return db, m, nil
}
