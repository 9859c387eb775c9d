package settings

import "github.com/dmitrijs2005/pmanager/internal/dbx"

var sqliteQueries = queries{
	get: `SELECT id, size, last_modified FROM config WHERE id = ?`,
	persist: `INSERT INTO config (id, size, last_modified) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET size = excluded.size, last_modified = excluded.last_modified`,
	updateSize: `UPDATE config SET size = ?, last_modified = ? WHERE id = ?`,
	clear:      `DELETE FROM config`,
	exists:     `SELECT EXISTS(SELECT 1 FROM config WHERE id = ?)`,
}

// NewSQLiteRepository returns a Repository for the sqlite schema.
func NewSQLiteRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, q: sqliteQueries}
}
