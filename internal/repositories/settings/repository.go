// Package settings persists the singleton preferences row.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/pmanager/internal/dbx"
	"github.com/dmitrijs2005/pmanager/internal/models"
)

// Repository stores the single settings row.
type Repository interface {
	// Get returns the stored row, or (nil, nil) when none was persisted yet.
	Get(ctx context.Context) (*models.Settings, error)
	// Persist inserts or replaces the row.
	Persist(ctx context.Context, s *models.Settings) error
	// UpdateSize changes size of an existing row and reports whether one
	// was found.
	UpdateSize(ctx context.Context, size int, at time.Time) (bool, error)
	// Clear deletes the row if any.
	Clear(ctx context.Context) error
	Exists(ctx context.Context) (bool, error)
}

type queries struct {
	get        string
	persist    string
	updateSize string
	clear      string
	exists     string
}

// SQLRepository implements Repository for one SQL dialect.
type SQLRepository struct {
	db dbx.DBTX
	q  queries
}

// Get returns the row or nil when it was never persisted.
func (r *SQLRepository) Get(ctx context.Context) (*models.Settings, error) {
	var (
		s  models.Settings
		lm int64
	)
	err := r.db.QueryRowContext(ctx, r.q.get, models.SettingsID).Scan(&s.ID, &s.Size, &lm)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	s.LastModified = time.UnixMilli(lm)
	return &s, nil
}

// Persist writes s under models.SettingsID, stamping LastModified when it
// is zero.
func (r *SQLRepository) Persist(ctx context.Context, s *models.Settings) error {
	if s.LastModified.IsZero() {
		s.LastModified = time.Now()
	}
	s.ID = models.SettingsID

	_, err := r.db.ExecContext(ctx, r.q.persist, s.ID, s.Size, s.LastModified.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to persist settings: %w", err)
	}
	return nil
}

// UpdateSize sets size and modification time of the existing row.
func (r *SQLRepository) UpdateSize(ctx context.Context, size int, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.q.updateSize, size, at.UnixMilli(), models.SettingsID)
	if err != nil {
		return false, fmt.Errorf("failed to update settings: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// Clear deletes the row.
func (r *SQLRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, r.q.clear); err != nil {
		return fmt.Errorf("failed to clear settings: %w", err)
	}
	return nil
}

// Exists reports whether the row was persisted.
func (r *SQLRepository) Exists(ctx context.Context) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, r.q.exists, models.SettingsID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check settings: %w", err)
	}
	return exists, nil
}
