package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/pmanager/internal/dbx"
	"github.com/dmitrijs2005/pmanager/internal/migrations"
	"github.com/dmitrijs2005/pmanager/internal/repositories/entries"
	"github.com/dmitrijs2005/pmanager/internal/repositories/settings"
	"github.com/dmitrijs2005/pmanager/internal/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories.
type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Entries(db dbx.DBTX) entries.Repository {
	return entries.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Settings(db dbx.DBTX) settings.Repository {
	return settings.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return gooseUp(ctx, goose.DialectPostgres, db, migrations.Postgres())
}
