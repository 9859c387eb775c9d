// Package services contains the application services of the vault: auth,
// entries, settings and cloud backup. They sit between the CLI and the
// repositories and own the session, validation and encryption rules.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/pmanager/internal/common"
	"github.com/dmitrijs2005/pmanager/internal/cryptox"
	"github.com/dmitrijs2005/pmanager/internal/dbx"
	"github.com/dmitrijs2005/pmanager/internal/logging"
	"github.com/dmitrijs2005/pmanager/internal/models"
	"github.com/dmitrijs2005/pmanager/internal/observable"
	"github.com/dmitrijs2005/pmanager/internal/repositories/repomanager"
	"github.com/dmitrijs2005/pmanager/internal/session"
)

// User-facing auth messages.
const (
	MsgPasswordMismatch = "password did not match"
	MsgUserExists       = "User is exist"
	MsgUserNotFound     = "User is not found"
	MsgBadCredentials   = "Incorrect username or password"
	MsgUsernameRequired = "Username is required"
	MsgPasswordRequired = "Password is required"
)

type AuthStatus int

const (
	AuthIdle AuthStatus = iota
	AuthLoading
	AuthFailed
	AuthSuccess
)

func (s AuthStatus) String() string {
	switch s {
	case AuthIdle:
		return "idle"
	case AuthLoading:
		return "loading"
	case AuthFailed:
		return "error"
	case AuthSuccess:
		return "success"
	default:
		return fmt.Sprintf("AuthStatus(%d)", int(s))
	}
}

// AuthState is the observable outcome of the last auth operation. Message
// is set for AuthFailed, User for AuthSuccess.
type AuthState struct {
	Status  AuthStatus
	Message string
	User    *models.User
}

// AuthError pairs the message shown to the user with the underlying cause,
// which stays reachable for errors.Is.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) Unwrap() error { return e.Err }

// AuthService registers and logs in local users and holds the current
// session.
//
// Login, UpdateUsername, ChangePassword and Logout wipe the key of the
// session they replace. Anything still holding the previous
// *session.Session, such as a browse.Controller, must be stopped first.
type AuthService struct {
	db       *sql.DB
	repos    repomanager.RepositoryManager
	sessions *session.Manager
	feed     *ChangeFeed
	log      logging.Logger

	// issue is sessions.Issue; tests replace it.
	issue func(userID int64, username string, key []byte) (*session.Session, error)

	state *observable.Value[AuthState]

	mu   sync.Mutex
	sess *session.Session
}

// NewAuthService returns an idle AuthService. Sessions it opens are
// issued by sessions.
func NewAuthService(db *sql.DB, repos repomanager.RepositoryManager, sessions *session.Manager,
	feed *ChangeFeed, log logging.Logger) *AuthService {
	return &AuthService{
		db:       db,
		repos:    repos,
		sessions: sessions,
		feed:     feed,
		log:      log,
		issue:    sessions.Issue,
		state:    observable.New(AuthState{Status: AuthIdle}),
	}
}

func (a *AuthService) State() AuthState {
	return a.state.Get()
}

// SubscribeState streams state transitions. cancel must be called.
func (a *AuthService) SubscribeState() (<-chan AuthState, func()) {
	return a.state.Subscribe()
}

func (a *AuthService) fail(message string, cause error) error {
	a.state.Set(AuthState{Status: AuthFailed, Message: message})
	return &AuthError{Message: message, Err: cause}
}

// succeed opens a session for u. It owns key and wipes it on failure.
func (a *AuthService) succeed(u *models.User, key []byte) error {
	sess, err := a.issue(u.ID, u.UserName, key)
	if err != nil {
		common.WipeByteArray(key)
		return err
	}

	a.mu.Lock()
	old := a.sess
	a.sess = sess
	a.mu.Unlock()
	if old != nil && old != sess {
		old.Wipe()
	}

	a.state.Set(AuthState{Status: AuthSuccess, User: u})
	return nil
}

// Register creates a local user and logs it in.
func (a *AuthService) Register(ctx context.Context, username, password, confirm string) error {
	a.state.Set(AuthState{Status: AuthLoading})
	username = strings.TrimSpace(username)

	if username == "" {
		return a.fail(MsgUsernameRequired, common.NewValidationError(MsgUsernameRequired))
	}
	if password == "" {
		return a.fail(MsgPasswordRequired, common.NewValidationError(MsgPasswordRequired))
	}
	if password != confirm {
		return a.fail(MsgPasswordMismatch, common.NewValidationError(MsgPasswordMismatch))
	}

	users := a.repos.Users(a.db)
	exists, err := users.Exists(ctx, username)
	if err != nil {
		return a.fail("Cannot create user: "+err.Error(), err)
	}
	if exists {
		return a.fail(MsgUserExists, common.ErrConflict)
	}

	salt := common.GenerateRandByteArray(cryptox.SaltSize)
	key := cryptox.DeriveMasterKey([]byte(password), salt)

	u, err := users.Create(ctx, &models.User{UserName: username, Salt: salt, Verifier: cryptox.MakeVerifier(key)})
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return a.fail(MsgUserExists, err)
		}
		return a.fail("Cannot create user: "+err.Error(), err)
	}

	if err := a.succeed(u, key); err != nil {
		return a.fail("Cannot create user: "+err.Error(), err)
	}
	a.log.Info(ctx, "user registered", "user_id", u.ID)
	return nil
}

// Login verifies the password of an existing user and opens a session.
func (a *AuthService) Login(ctx context.Context, username, password string) error {
	a.state.Set(AuthState{Status: AuthLoading})
	username = strings.TrimSpace(username)

	u, err := a.repos.Users(a.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return a.fail(MsgUserNotFound, err)
		}
		return a.fail("Login failed: "+err.Error(), err)
	}

	key := cryptox.DeriveMasterKey([]byte(password), u.Salt)
	if !cryptox.CheckVerifier(u.Verifier, cryptox.MakeVerifier(key)) {
		common.WipeByteArray(key)
		a.log.Warn(ctx, "login rejected", "user_id", u.ID)
		return a.fail(MsgBadCredentials, common.ErrCredential)
	}

	if err := a.succeed(u, key); err != nil {
		return a.fail("Login failed: "+err.Error(), err)
	}
	a.log.Info(ctx, "user logged in", "user_id", u.ID)
	return nil
}

// Logout drops the session unconditionally.
func (a *AuthService) Logout() {
	a.mu.Lock()
	sess := a.sess
	a.sess = nil
	a.mu.Unlock()

	sess.Wipe()
	a.state.Set(AuthState{Status: AuthIdle})
}

// CurrentUsername returns the user of the open session or "".
func (a *AuthService) CurrentUsername() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sess == nil {
		return ""
	}
	return a.sess.Username
}

// Current returns the open session and extends its lifetime. An expired
// session is closed and reported as common.ErrSessionExpired.
func (a *AuthService) Current() (*session.Session, error) {
	a.mu.Lock()
	sess := a.sess
	a.mu.Unlock()

	if sess == nil {
		return nil, common.ErrUnauthorized
	}

	if err := a.sessions.Refresh(sess); err != nil {
		if errors.Is(err, common.ErrSessionExpired) {
			a.Logout()
		}
		return nil, err
	}
	return sess, nil
}

// Profile returns the stored record of the logged in user.
func (a *AuthService) Profile(ctx context.Context) (*models.User, error) {
	sess, err := a.Current()
	if err != nil {
		return nil, err
	}
	return a.repos.Users(a.db).GetByID(ctx, sess.UserID)
}

// UpdateUsername renames the logged in user.
func (a *AuthService) UpdateUsername(ctx context.Context, newName string) error {
	sess, err := a.Current()
	if err != nil {
		return err
	}
	a.state.Set(AuthState{Status: AuthLoading})

	newName = strings.TrimSpace(newName)
	if newName == "" {
		return a.fail(MsgUsernameRequired, common.NewValidationError(MsgUsernameRequired))
	}

	users := a.repos.Users(a.db)
	u, err := users.GetByID(ctx, sess.UserID)
	if err != nil {
		return a.fail("Update failed: "+err.Error(), err)
	}

	u.UserName = newName
	if err := users.Update(ctx, u); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return a.fail("Update failed: "+MsgUserExists, err)
		}
		return a.fail("Update failed: "+err.Error(), err)
	}

	key := append([]byte(nil), sess.Key...)
	if err := a.succeed(u, key); err != nil {
		return a.fail("Update failed: "+err.Error(), err)
	}
	a.log.Info(ctx, "username changed", "user_id", u.ID)
	return nil
}

// ChangePassword replaces the credentials of the logged in user. Every
// stored secret is re-sealed under the new master key in the same
// transaction as the credential update.
func (a *AuthService) ChangePassword(ctx context.Context, oldPassword, newPassword, confirm string) error {
	sess, err := a.Current()
	if err != nil {
		return err
	}
	a.state.Set(AuthState{Status: AuthLoading})

	if newPassword == "" {
		return a.fail(MsgPasswordRequired, common.NewValidationError(MsgPasswordRequired))
	}
	if newPassword != confirm {
		return a.fail(MsgPasswordMismatch, common.NewValidationError(MsgPasswordMismatch))
	}

	u, err := a.repos.Users(a.db).GetByID(ctx, sess.UserID)
	if err != nil {
		return a.fail("Update failed: "+err.Error(), err)
	}

	oldKey := cryptox.DeriveMasterKey([]byte(oldPassword), u.Salt)
	defer common.WipeByteArray(oldKey)
	if !cryptox.CheckVerifier(u.Verifier, cryptox.MakeVerifier(oldKey)) {
		return a.fail(MsgBadCredentials, common.ErrCredential)
	}

	salt := common.GenerateRandByteArray(cryptox.SaltSize)
	newKey := cryptox.DeriveMasterKey([]byte(newPassword), salt)

	err = dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		entries := a.repos.Entries(tx)
		list, err := entries.ListByUser(ctx, u.ID)
		if err != nil {
			return err
		}
		for i := range list {
			e := &list[i]
			if !e.HasSecret() {
				continue
			}
			plain, err := cryptox.Open(e.Secret, e.SecretNonce, oldKey)
			if err != nil {
				return fmt.Errorf("entry %d: %w", e.ID, err)
			}
			e.Secret, e.SecretNonce, err = cryptox.Seal(plain, newKey)
			common.WipeByteArray(plain)
			if err != nil {
				return err
			}
			if err := entries.Update(ctx, e); err != nil {
				return err
			}
		}

		u.Salt = salt
		u.Verifier = cryptox.MakeVerifier(newKey)
		return a.repos.Users(tx).Update(ctx, u)
	})
	if err != nil {
		common.WipeByteArray(newKey)
		return a.fail("Update failed: "+err.Error(), err)
	}

	if err := a.succeed(u, newKey); err != nil {
		// the stored credentials already changed; the old key is useless
		a.Logout()
		return a.fail("Update failed: "+err.Error(), err)
	}
	a.feed.Notify(u.ID)
	a.log.Info(ctx, "password changed", "user_id", u.ID)
	return nil
}
