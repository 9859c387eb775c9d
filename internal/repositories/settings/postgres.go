package settings

import "github.com/dmitrijs2005/pmanager/internal/dbx"

var postgresQueries = queries{
	get: `SELECT id, size, last_modified FROM config WHERE id = $1`,
	persist: `INSERT INTO config (id, size, last_modified) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET size = EXCLUDED.size, last_modified = EXCLUDED.last_modified`,
	updateSize: `UPDATE config SET size = $1, last_modified = $2 WHERE id = $3`,
	clear:      `DELETE FROM config`,
	exists:     `SELECT EXISTS(SELECT 1 FROM config WHERE id = $1)`,
}

// NewPostgresRepository returns a Repository for the postgres schema.
func NewPostgresRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, q: postgresQueries}
}
