package security

import (
	"github.com/gosimple/slug"
	"golang.org/x/crypto/bcrypt"
)

const (
	usernameMinLen = 3
	usernameMaxLen = 32
	passwordMinLen = 8
)

// IsUsernameValid reports whether a username satisfies the account policy:
// 3-32 characters, already in slug form (lowercase letters, digits, hyphens).
func IsUsernameValid(username string) bool {
	if len(username) < usernameMinLen || len(username) > usernameMaxLen {
		return false
	}
	return slug.IsSlug(username)
}

// IsPasswordValid reports whether a password meets the minimum-strength policy.
func IsPasswordValid(password string) bool {
	return len(password) >= passwordMinLen
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares a candidate password against a stored bcrypt
// hash. Returns false on any mismatch.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
