package utils

import (
	"crypto/rand"
	"encoding/hex"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword bcrypt-hashes a plaintext password at the default cost.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword returns nil when password matches hash.
func CheckPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// GenerateRandomString returns a hex string of the given length from
// crypto/rand.
func GenerateRandomString(length int) (string, error) {
	buf := make([]byte, (length+1)/2)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf)[:length], nil
}

// IsValidRole reports whether role is one of the account roles.
func IsValidRole(role string) bool {
	switch role {
	case "admin", "teacher", "student":
		return true
	}
	return false
}

// IsValidStatus reports whether status is one of the account statuses.
func IsValidStatus(status string) bool {
	switch status {
	case "active", "inactive", "suspended":
		return true
	}
	return false
}

// IsValidFileExtension checks the filename's extension against an
// allow-list, case-insensitively.
func IsValidFileExtension(filename string, allowedExtensions []string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		return false
	}
	for _, allowed := range allowedExtensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

// SanitizeString strips NUL bytes and surrounding whitespace from
// user-provided text before it is stored.
func SanitizeString(input string) string {
	return strings.TrimSpace(strings.ReplaceAll(input, "\x00", ""))
}
