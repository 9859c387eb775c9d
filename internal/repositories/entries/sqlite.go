package entries

import "github.com/dmitrijs2005/pmanager/internal/dbx"

// sqlite LIKE is case-insensitive for ASCII.
var sqliteQueries = queries{
	create: `INSERT INTO password_info (account, secret, secret_nonce, comment, created_at, user_id)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
	update: `UPDATE password_info SET account = ?, secret = ?, secret_nonce = ?, comment = ?
		WHERE id = ? AND user_id = ?`,
	deleteByID: `DELETE FROM password_info WHERE id = ? AND user_id = ?`,
	getByID:    `SELECT ` + columns + ` FROM password_info WHERE id = ?`,
	listByUser: `SELECT ` + columns + ` FROM password_info WHERE user_id = ? ORDER BY id DESC`,
	search: `SELECT ` + columns + ` FROM password_info
		WHERE user_id = ?
		AND (account LIKE '%' || ? || '%' ESCAPE '\' OR comment LIKE '%' || ? || '%' ESCAPE '\')
		ORDER BY id DESC`,
	countByUser: `SELECT COUNT(*) FROM password_info WHERE user_id = ?`,
}

// NewSQLiteRepository returns a Repository for the sqlite schema.
func NewSQLiteRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, q: sqliteQueries}
}
