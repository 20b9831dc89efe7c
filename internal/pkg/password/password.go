// Package password hashes and checks user passwords with bcrypt.
package password

import (
	"golang.org/x/crypto/bcrypt"
)

// Hash returns a salted bcrypt hash of password.
func Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

// Verify reports whether password matches hash. A malformed hash is a mismatch.
func Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
