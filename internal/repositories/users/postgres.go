package users

import (
	"github.com/dmitrijs2005/pmanager/internal/dbx"
	"github.com/dmitrijs2005/pmanager/internal/repositories/sqlerr"
)

var postgresQueries = queries{
	create:        `INSERT INTO users (username, salt, verifier) VALUES ($1, $2, $3) RETURNING id`,
	getByID:       `SELECT id, username, salt, verifier FROM users WHERE id = $1`,
	getByUsername: `SELECT id, username, salt, verifier FROM users WHERE username = $1 LIMIT 1`,
	exists:        `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`,
	update:        `UPDATE users SET username = $1, salt = $2, verifier = $3 WHERE id = $4`,
}

// NewPostgresRepository returns a Repository for the postgres schema.
func NewPostgresRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, q: postgresQueries, isUnique: sqlerr.IsPostgresUniqueViolation}
}
