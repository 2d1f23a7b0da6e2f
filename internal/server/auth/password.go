package auth

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Credentials is the single operator account.
type Credentials struct {
	Username string
	// Password is compared in constant time when PasswordHash is empty.
	Password string
	// PasswordHash is a bcrypt hash and wins over Password.
	PasswordHash string
}

// Check reports whether username and password match c.
func (c Credentials) Check(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(c.Username)) == 1

	var passOK bool
	if strings.TrimSpace(c.PasswordHash) != "" {
		passOK = bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) == nil
	} else {
		passOK = subtle.ConstantTimeCompare([]byte(password), []byte(c.Password)) == 1
	}

	return userOK && passOK && c.Username != ""
}

// HashPassword returns a bcrypt hash suitable for auth_password_hash.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
