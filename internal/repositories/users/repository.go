// Package users persists vault owners.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/pmanager/internal/common"
	"github.com/dmitrijs2005/pmanager/internal/dbx"
	"github.com/dmitrijs2005/pmanager/internal/models"
)

// Repository stores users. Usernames are unique; Create and Update report a
// duplicate with common.ErrConflict.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Exists(ctx context.Context, username string) (bool, error)
	Update(ctx context.Context, user *models.User) error
}

type queries struct {
	create        string
	getByID       string
	getByUsername string
	exists        string
	update        string
}

// SQLRepository implements Repository over a DBTX. The dialect specific
// parts are the query texts and the unique-violation check.
type SQLRepository struct {
	db       dbx.DBTX
	q        queries
	isUnique func(error) bool
}

func (r *SQLRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, r.q.create, user.UserName, user.Salt, user.Verifier).Scan(&id)
	if err != nil {
		if r.isUnique(err) {
			return nil, fmt.Errorf("user %q: %w", user.UserName, common.ErrConflict)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	created := *user
	created.ID = id
	return &created, nil
}

func (r *SQLRepository) scanOne(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	if err := row.Scan(&u.ID, &u.UserName, &u.Salt, &u.Verifier); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, r.q.getByID, id))
}

func (r *SQLRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.scanOne(r.db.QueryRowContext(ctx, r.q.getByUsername, username))
}

func (r *SQLRepository) Exists(ctx context.Context, username string) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, r.q.exists, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// Update rewrites username and credentials of an existing user.
func (r *SQLRepository) Update(ctx context.Context, user *models.User) error {
	res, err := r.db.ExecContext(ctx, r.q.update, user.UserName, user.Salt, user.Verifier, user.ID)
	if err != nil {
		if r.isUnique(err) {
			return fmt.Errorf("user %q: %w", user.UserName, common.ErrConflict)
		}
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
