package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// PasswordVerifier checks passwords against stored bcrypt hashes.
//
// bcrypt embeds its own salt and the comparison is constant-time, so the
// stored hash string is all the verifier ever needs.
type PasswordVerifier struct{}

// NewPasswordVerifier creates a new password verifier
func NewPasswordVerifier() *PasswordVerifier {
	return &PasswordVerifier{}
}

// Verify compares a password with its hash
func (pv *PasswordVerifier) Verify(hash, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
