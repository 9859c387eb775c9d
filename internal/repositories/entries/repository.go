// Package entries persists password entries.
//
// Every mutating query is scoped to the owning user, so an entry can only be
// changed or removed through the account that created it. Listing and
// search return the newest entries first.
package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/pmanager/internal/common"
	"github.com/dmitrijs2005/pmanager/internal/dbx"
	"github.com/dmitrijs2005/pmanager/internal/models"
)

// Repository describes storage of PasswordEntry rows.
type Repository interface {
	Create(ctx context.Context, e *models.PasswordEntry) (int64, error)
	Update(ctx context.Context, e *models.PasswordEntry) error
	DeleteByID(ctx context.Context, userID, id int64) error
	GetByID(ctx context.Context, id int64) (*models.PasswordEntry, error)
	ListByUser(ctx context.Context, userID int64) ([]models.PasswordEntry, error)
	Search(ctx context.Context, userID int64, query string) ([]models.PasswordEntry, error)
	CountByUser(ctx context.Context, userID int64) (int, error)
}

type queries struct {
	create      string
	update      string
	deleteByID  string
	getByID     string
	listByUser  string
	search      string
	countByUser string
}

const columns = `id, user_id, account, comment, secret, secret_nonce, created_at`

// SQLRepository implements Repository over a DBTX.
type SQLRepository struct {
	db dbx.DBTX
	q  queries
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (models.PasswordEntry, error) {
	var (
		e         models.PasswordEntry
		account   sql.NullString
		comment   sql.NullString
		createdAt int64
	)
	if err := s.Scan(&e.ID, &e.UserID, &account, &comment, &e.Secret, &e.SecretNonce, &createdAt); err != nil {
		return e, err
	}
	e.Account = account.String
	e.Comment = comment.String
	e.CreatedAt = time.UnixMilli(createdAt)
	return e, nil
}

// Create inserts e and returns the assigned id. A zero CreatedAt is set to now.
func (r *SQLRepository) Create(ctx context.Context, e *models.PasswordEntry) (int64, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	var id int64
	err := r.db.QueryRowContext(ctx, r.q.create,
		dbx.NullString(e.Account), dbx.NullBytes(e.Secret), dbx.NullBytes(e.SecretNonce),
		dbx.NullString(e.Comment), e.CreatedAt.UnixMilli(), e.UserID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert entry: %w", err)
	}
	e.ID = id
	return id, nil
}

// Update rewrites account, secret and comment of an entry owned by e.UserID.
func (r *SQLRepository) Update(ctx context.Context, e *models.PasswordEntry) error {
	res, err := r.db.ExecContext(ctx, r.q.update,
		dbx.NullString(e.Account), dbx.NullBytes(e.Secret), dbx.NullBytes(e.SecretNonce),
		dbx.NullString(e.Comment), e.ID, e.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	return expectOne(res)
}

// DeleteByID removes entry id of userID. It returns common.ErrNotFound when
// no such entry belongs to the user.
func (r *SQLRepository) DeleteByID(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, r.q.deleteByID, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// GetByID returns the entry or common.ErrNotFound. Ownership is checked by
// the caller.
func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*models.PasswordEntry, error) {
	e, err := scanEntry(r.db.QueryRowContext(ctx, r.q.getByID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return &e, nil
}

// ListByUser returns every entry of userID, newest first.
func (r *SQLRepository) ListByUser(ctx context.Context, userID int64) ([]models.PasswordEntry, error) {
	return r.list(ctx, r.q.listByUser, userID)
}

// Search matches query as a literal, case-insensitive substring of account
// or comment.
func (r *SQLRepository) Search(ctx context.Context, userID int64, query string) ([]models.PasswordEntry, error) {
	pattern := EscapeLike(query)
	return r.list(ctx, r.q.search, userID, pattern, pattern)
}

// CountByUser returns how many entries userID owns.
func (r *SQLRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, r.q.countByUser, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return n, nil
}

func (r *SQLRepository) list(ctx context.Context, query string, args ...any) ([]models.PasswordEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	result := make([]models.PasswordEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike makes LIKE wildcards in s match literally (escape char '\').
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
