// Package models defines the records persisted by the vault.
package models

// User is a local vault owner. The password itself is never stored: Salt
// and Verifier are enough to check it and to rebuild the master key.
type User struct {
	ID       int64
	UserName string
	Salt     []byte
	Verifier []byte
}
