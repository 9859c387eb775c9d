package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/dmitrijs2005/pmanager/internal/common"
	"github.com/dmitrijs2005/pmanager/internal/cryptox"
	"github.com/dmitrijs2005/pmanager/internal/dbx"
	"github.com/dmitrijs2005/pmanager/internal/logging"
	"github.com/dmitrijs2005/pmanager/internal/models"
	"github.com/dmitrijs2005/pmanager/internal/objstore"
	"github.com/dmitrijs2005/pmanager/internal/repositories/repomanager"
	"github.com/dmitrijs2005/pmanager/internal/session"
	"github.com/google/uuid"
)

const backupFormatVersion = 1

// BackupService copies the entries of a user to object storage and back.
// Secrets leave the machine sealed; a backup can only be restored by a
// session whose master key opens them.
type BackupService interface {
	Enabled() bool
	Export(ctx context.Context, sess *session.Session) (string, error)
	Import(ctx context.Context, sess *session.Session, key string) (int, error)
}

type backupDocument struct {
	Version   int           `json:"version"`
	Username  string        `json:"username"`
	CreatedAt time.Time     `json:"created_at"`
	Entries   []backupEntry `json:"entries"`
}

type backupEntry struct {
	Account     string `json:"account,omitempty"`
	Comment     string `json:"comment,omitempty"`
	Secret      []byte `json:"secret,omitempty"`
	SecretNonce []byte `json:"secret_nonce,omitempty"`
	CreatedAt   int64  `json:"created_at"`
}

type backupService struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
	store objstore.Store
	feed  *ChangeFeed
	log   logging.Logger
	now   func() time.Time
}

// NewBackupService returns a BackupService writing to store. A nil store
// disables backups.
func NewBackupService(db *sql.DB, repos repomanager.RepositoryManager, store objstore.Store,
	feed *ChangeFeed, log logging.Logger) BackupService {
	return &backupService{db: db, repos: repos, store: store, feed: feed, log: log, now: time.Now}
}

func (s *backupService) Enabled() bool {
	return s.store != nil
}

// BackupKey builds the object key of a new backup of username.
func BackupKey(username string, at time.Time) string {
	at = at.UTC()
	return fmt.Sprintf("users/%s/%04d/%02d/%02d/%s.json",
		url.PathEscape(username), at.Year(), int(at.Month()), at.Day(), uuid.NewString())
}

func (s *backupService) Export(ctx context.Context, sess *session.Session) (string, error) {
	if !s.Enabled() {
		return "", common.ErrBackupDisabled
	}
	if err := checkSession(sess); err != nil {
		return "", err
	}

	list, err := s.repos.Entries(s.db).ListByUser(ctx, sess.UserID)
	if err != nil {
		return "", err
	}

	now := s.now()
	doc := backupDocument{
		Version:   backupFormatVersion,
		Username:  sess.Username,
		CreatedAt: now.UTC(),
		Entries:   make([]backupEntry, 0, len(list)),
	}
	for _, e := range list {
		doc.Entries = append(doc.Entries, backupEntry{
			Account:     e.Account,
			Comment:     e.Comment,
			Secret:      e.Secret,
			SecretNonce: e.SecretNonce,
			CreatedAt:   e.CreatedAt.UnixMilli(),
		})
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode backup: %w", err)
	}

	key := BackupKey(sess.Username, now)
	if err := s.store.Put(ctx, key, body, "application/json"); err != nil {
		return "", err
	}

	s.log.Info(ctx, "backup exported", "user_id", sess.UserID, "key", key, "entries", len(doc.Entries))
	return key, nil
}

func (s *backupService) Import(ctx context.Context, sess *session.Session, key string) (int, error) {
	if !s.Enabled() {
		return 0, common.ErrBackupDisabled
	}
	if err := checkSession(sess); err != nil {
		return 0, err
	}

	body, err := s.store.Get(ctx, key)
	if err != nil {
		return 0, err
	}

	var doc backupDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return 0, fmt.Errorf("decode backup: %w", err)
	}
	if doc.Version != backupFormatVersion {
		return 0, fmt.Errorf("unsupported backup version %d", doc.Version)
	}

	rows := make([]models.PasswordEntry, 0, len(doc.Entries))
	for i, be := range doc.Entries {
		if len(be.Secret) > 0 {
			plain, err := cryptox.Open(be.Secret, be.SecretNonce, sess.Key)
			if err != nil {
				return 0, fmt.Errorf("backup entry %d: %w", i, common.ErrCredential)
			}
			common.WipeByteArray(plain)
		}
		rows = append(rows, models.PasswordEntry{
			UserID:      sess.UserID,
			Account:     be.Account,
			Comment:     be.Comment,
			Secret:      be.Secret,
			SecretNonce: be.SecretNonce,
			CreatedAt:   time.UnixMilli(be.CreatedAt),
		})
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Entries(tx)
		for i := range rows {
			if _, err := repo.Create(ctx, &rows[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("restore backup: %w", err)
	}

	s.feed.Notify(sess.UserID)
	s.log.Info(ctx, "backup imported", "user_id", sess.UserID, "key", key, "entries", len(rows))
	return len(rows), nil
}
