package models

import "time"

// PasswordEntry is a stored account/password/comment record.
// Account and Comment are clear text so they can be searched; the secret is
// AES-GCM ciphertext with its nonce.
type PasswordEntry struct {
	ID          int64
	UserID      int64
	Account     string
	Comment     string
	Secret      []byte
	SecretNonce []byte
	CreatedAt   time.Time
}

// HasSecret reports whether a password value was stored for the entry.
func (e PasswordEntry) HasSecret() bool {
	return len(e.Secret) > 0
}

// EntryDetail is a PasswordEntry with its secret opened, as shown on the
// detail and edit screens.
type EntryDetail struct {
	ID        int64
	UserID    int64
	Account   string
	Password  string
	Comment   string
	CreatedAt time.Time
}
