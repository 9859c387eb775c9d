// Package session keeps the authenticated user of the running process.
//
// A session carries the master key derived at login and an HS256 token
// that bounds its lifetime. The signing secret is generated per process, so
// tokens never outlive the program.
package session

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/pmanager/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const DefaultTTL = 15 * time.Minute

// Session is an authenticated user together with its master key.
type Session struct {
	UserID   int64
	Username string
	Key      []byte
	Token    string
}

// Wipe zeroes the master key.
func (s *Session) Wipe() {
	if s == nil {
		return
	}
	common.WipeByteArray(s.Key)
	s.Key = nil
}

// Claims are the token claims: the subject is the user id.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"usr"`
}

type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager returns a Manager with a random signing secret. A ttl <= 0
// selects DefaultTTL.
func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		secret: common.GenerateRandByteArray(32),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue opens a session for the user. The session takes ownership of key.
func (m *Manager) Issue(userID int64, username string, key []byte) (*Session, error) {
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		Username: username,
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}

	return &Session{UserID: userID, Username: username, Key: key, Token: signed}, nil
}

// Validate checks the signature and expiry of the session token and that it
// was issued for the session's user.
func (m *Manager) Validate(s *Session) error {
	if s == nil || s.Token == "" {
		return common.ErrUnauthorized
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(s.Token, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return common.ErrSessionExpired
		}
		return fmt.Errorf("%w: %v", common.ErrUnauthorized, err)
	}

	if claims.Subject != strconv.FormatInt(s.UserID, 10) || claims.Username != s.Username {
		return common.ErrUnauthorized
	}
	return nil
}

// Refresh reissues the token of a valid session with a fresh expiry.
func (m *Manager) Refresh(s *Session) error {
	if err := m.Validate(s); err != nil {
		return err
	}
	fresh, err := m.Issue(s.UserID, s.Username, s.Key)
	if err != nil {
		return err
	}
	s.Token = fresh.Token
	return nil
}
