package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/pmanager/internal/common"
	"github.com/dmitrijs2005/pmanager/internal/cryptox"
	"github.com/dmitrijs2005/pmanager/internal/logging"
	"github.com/dmitrijs2005/pmanager/internal/models"
	"github.com/dmitrijs2005/pmanager/internal/repositories/entries"
	"github.com/dmitrijs2005/pmanager/internal/repositories/repomanager"
	"github.com/dmitrijs2005/pmanager/internal/session"
)

const (
	MsgAccountRequired = "Account is required"
)

// EntryService manages the password entries of the session's user.
// Entries of other users are reported as common.ErrNotFound.
type EntryService interface {
	Create(ctx context.Context, sess *session.Session, account, password, comment string) (int64, error)
	Get(ctx context.Context, sess *session.Session, id int64) (*models.EntryDetail, error)
	Update(ctx context.Context, sess *session.Session, d models.EntryDetail) error
	Delete(ctx context.Context, sess *session.Session, id int64) error
	List(ctx context.Context, sess *session.Session) ([]models.PasswordEntry, error)
	Search(ctx context.Context, sess *session.Session, query string) ([]models.PasswordEntry, error)
	Count(ctx context.Context, sess *session.Session) (int, error)
	// Watch emits the entry list of userID now and after every change to
	// it, until ctx is done. A slow reader only gets the latest list.
	Watch(ctx context.Context, userID int64) <-chan []models.PasswordEntry
}

type entryService struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
	feed  *ChangeFeed
	log   logging.Logger
}

// NewEntryService returns an EntryService that announces writes on feed.
func NewEntryService(db *sql.DB, repos repomanager.RepositoryManager, feed *ChangeFeed, log logging.Logger) EntryService {
	return &entryService{db: db, repos: repos, feed: feed, log: log}
}

func (s *entryService) repo() entries.Repository {
	return s.repos.Entries(s.db)
}

func validateEntry(account, password string) error {
	if strings.TrimSpace(account) == "" {
		return common.NewValidationError(MsgAccountRequired)
	}
	if password == "" {
		return common.NewValidationError(MsgPasswordRequired)
	}
	return nil
}

func checkSession(sess *session.Session) error {
	if sess == nil || len(sess.Key) == 0 {
		return common.ErrUnauthorized
	}
	return nil
}

func (s *entryService) Create(ctx context.Context, sess *session.Session, account, password, comment string) (int64, error) {
	if err := checkSession(sess); err != nil {
		return 0, err
	}
	if err := validateEntry(account, password); err != nil {
		return 0, err
	}

	secret, nonce, err := cryptox.Seal([]byte(password), sess.Key)
	if err != nil {
		return 0, fmt.Errorf("encryption error: %w", err)
	}

	id, err := s.repo().Create(ctx, &models.PasswordEntry{
		UserID:      sess.UserID,
		Account:     strings.TrimSpace(account),
		Comment:     comment,
		Secret:      secret,
		SecretNonce: nonce,
	})
	if err != nil {
		return 0, fmt.Errorf("saving error: %w", err)
	}

	s.feed.Notify(sess.UserID)
	s.log.Debug(ctx, "entry created", "user_id", sess.UserID, "entry_id", id)
	return id, nil
}

func (s *entryService) owned(ctx context.Context, sess *session.Session, id int64) (*models.PasswordEntry, error) {
	e, err := s.repo().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.UserID != sess.UserID {
		return nil, common.ErrNotFound
	}
	return e, nil
}

func (s *entryService) Get(ctx context.Context, sess *session.Session, id int64) (*models.EntryDetail, error) {
	if err := checkSession(sess); err != nil {
		return nil, err
	}

	e, err := s.owned(ctx, sess, id)
	if err != nil {
		return nil, err
	}

	d := &models.EntryDetail{
		ID:        e.ID,
		UserID:    e.UserID,
		Account:   e.Account,
		Comment:   e.Comment,
		CreatedAt: e.CreatedAt,
	}
	if e.HasSecret() {
		plain, err := cryptox.Open(e.Secret, e.SecretNonce, sess.Key)
		if err != nil {
			return nil, fmt.Errorf("decryption error: %w", err)
		}
		d.Password = string(plain)
	}
	return d, nil
}

func (s *entryService) Update(ctx context.Context, sess *session.Session, d models.EntryDetail) error {
	if err := checkSession(sess); err != nil {
		return err
	}
	if err := validateEntry(d.Account, d.Password); err != nil {
		return err
	}

	e, err := s.owned(ctx, sess, d.ID)
	if err != nil {
		return err
	}

	e.Account = strings.TrimSpace(d.Account)
	e.Comment = d.Comment
	e.Secret, e.SecretNonce, err = cryptox.Seal([]byte(d.Password), sess.Key)
	if err != nil {
		return fmt.Errorf("encryption error: %w", err)
	}

	if err := s.repo().Update(ctx, e); err != nil {
		return err
	}
	s.feed.Notify(sess.UserID)
	return nil
}

func (s *entryService) Delete(ctx context.Context, sess *session.Session, id int64) error {
	if err := checkSession(sess); err != nil {
		return err
	}
	if err := s.repo().DeleteByID(ctx, sess.UserID, id); err != nil {
		return err
	}
	s.feed.Notify(sess.UserID)
	s.log.Debug(ctx, "entry deleted", "user_id", sess.UserID, "entry_id", id)
	return nil
}

func (s *entryService) List(ctx context.Context, sess *session.Session) ([]models.PasswordEntry, error) {
	if err := checkSession(sess); err != nil {
		return nil, err
	}
	return s.repo().ListByUser(ctx, sess.UserID)
}

func (s *entryService) Search(ctx context.Context, sess *session.Session, query string) ([]models.PasswordEntry, error) {
	if err := checkSession(sess); err != nil {
		return nil, err
	}
	return s.repo().Search(ctx, sess.UserID, query)
}

func (s *entryService) Count(ctx context.Context, sess *session.Session) (int, error) {
	if err := checkSession(sess); err != nil {
		return 0, err
	}
	return s.repo().CountByUser(ctx, sess.UserID)
}

func (s *entryService) Watch(ctx context.Context, userID int64) <-chan []models.PasswordEntry {
	out := make(chan []models.PasswordEntry, 1)
	versions, cancel := s.feed.Subscribe(userID)

	go func() {
		defer close(out)
		defer cancel()

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-versions:
				if !ok {
					return
				}
				list, err := s.repo().ListByUser(ctx, userID)
				if err != nil {
					if ctx.Err() == nil {
						s.log.Error(ctx, "watch: list entries", "user_id", userID, "error", err)
					}
					continue
				}
				replace(out, list)
			}
		}
	}()

	return out
}

// replace puts v into a buffered channel of one, dropping an unread value.
// The caller must be the only sender.
func replace[T any](ch chan T, v T) {
	select {
	case <-ch:
	default:
	}
	ch <- v
}
