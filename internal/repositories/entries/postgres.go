package entries

import "github.com/dmitrijs2005/pmanager/internal/dbx"

var postgresQueries = queries{
	create: `INSERT INTO password_info (account, secret, secret_nonce, comment, created_at, user_id)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
	update: `UPDATE password_info SET account = $1, secret = $2, secret_nonce = $3, comment = $4
		WHERE id = $5 AND user_id = $6`,
	deleteByID: `DELETE FROM password_info WHERE id = $1 AND user_id = $2`,
	getByID:    `SELECT ` + columns + ` FROM password_info WHERE id = $1`,
	listByUser: `SELECT ` + columns + ` FROM password_info WHERE user_id = $1 ORDER BY id DESC`,
	search: `SELECT ` + columns + ` FROM password_info
		WHERE user_id = $1
		AND (account ILIKE '%' || $2::text || '%' ESCAPE '\' OR comment ILIKE '%' || $3::text || '%' ESCAPE '\')
		ORDER BY id DESC`,
	countByUser: `SELECT COUNT(*) FROM password_info WHERE user_id = $1`,
}

// NewPostgresRepository returns a Repository for the postgres schema.
func NewPostgresRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, q: postgresQueries}
}
