package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/pmanager/internal/common"
	"github.com/dmitrijs2005/pmanager/internal/models"
	"github.com/dmitrijs2005/pmanager/internal/repositories/repomanager"
	"github.com/dmitrijs2005/pmanager/internal/repositories/settings"
)

// Page size bounds for list output.
const (
	DefaultPageSize = 20
	MinPageSize     = 1
	MaxPageSize     = 200
)

// SettingsService reads and writes the singleton preferences row. Size is
// the page size of list output.
type SettingsService interface {
	// Get returns the stored settings or nil when none were saved.
	Get(ctx context.Context) (*models.Settings, error)
	Persist(ctx context.Context, size int) error
	// UpdateSize changes an existing row only and reports whether there
	// was one.
	UpdateSize(ctx context.Context, size int) (bool, error)
	Clear(ctx context.Context) error
	Exists(ctx context.Context) (bool, error)
	// PageSize is the stored size or DefaultPageSize.
	PageSize(ctx context.Context) (int, error)
}

type settingsService struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
	now   func() time.Time
}

// NewSettingsService returns a SettingsService over db.
func NewSettingsService(db *sql.DB, repos repomanager.RepositoryManager) SettingsService {
	return &settingsService{db: db, repos: repos, now: time.Now}
}

func (s *settingsService) repo() settings.Repository {
	return s.repos.Settings(s.db)
}

func validateSize(size int) error {
	if size < MinPageSize || size > MaxPageSize {
		return common.NewValidationError(fmt.Sprintf("Size must be between %d and %d", MinPageSize, MaxPageSize))
	}
	return nil
}

func (s *settingsService) Get(ctx context.Context) (*models.Settings, error) {
	return s.repo().Get(ctx)
}

func (s *settingsService) Persist(ctx context.Context, size int) error {
	if err := validateSize(size); err != nil {
		return err
	}
	return s.repo().Persist(ctx, &models.Settings{Size: size, LastModified: s.now()})
}

func (s *settingsService) UpdateSize(ctx context.Context, size int) (bool, error) {
	if err := validateSize(size); err != nil {
		return false, err
	}
	return s.repo().UpdateSize(ctx, size, s.now())
}

func (s *settingsService) Clear(ctx context.Context) error {
	return s.repo().Clear(ctx)
}

func (s *settingsService) Exists(ctx context.Context) (bool, error) {
	return s.repo().Exists(ctx)
}

// PageSize returns the stored size, or DefaultPageSize when the row is
// absent or out of range.
func (s *settingsService) PageSize(ctx context.Context) (int, error) {
	st, err := s.repo().Get(ctx)
	if err != nil {
		return 0, err
	}
	if st == nil || validateSize(st.Size) != nil {
		return DefaultPageSize, nil
	}
	return st.Size, nil
}
