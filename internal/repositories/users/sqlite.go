package users

import (
	"github.com/dmitrijs2005/pmanager/internal/dbx"
	"github.com/dmitrijs2005/pmanager/internal/repositories/sqlerr"
)

var sqliteQueries = queries{
	create:        `INSERT INTO users (username, salt, verifier) VALUES (?, ?, ?) RETURNING id`,
	getByID:       `SELECT id, username, salt, verifier FROM users WHERE id = ?`,
	getByUsername: `SELECT id, username, salt, verifier FROM users WHERE username = ? LIMIT 1`,
	exists:        `SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`,
	update:        `UPDATE users SET username = ?, salt = ?, verifier = ? WHERE id = ?`,
}

// NewSQLiteRepository returns a Repository for the sqlite schema.
func NewSQLiteRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, q: sqliteQueries, isUnique: sqlerr.IsSQLiteUniqueViolation}
}
