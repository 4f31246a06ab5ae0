package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"unicode"

	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltLength     = 16 // bytes
	HashIterations = 210_000
	HashKeyLength  = 32
	MinPasswordLen = 8
	MaxPasswordLen = 128
)

// PasswordValidationError holds validation error details
type PasswordValidationError struct {
	Errors []string
}

func (e *PasswordValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "password validation failed"
	}
	return "invalid password"
}

// GenerateSalt returns a fresh cryptographically random salt, hex encoded.
func GenerateSalt() (string, error) {
	bytes := make([]byte, SaltLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// HashPassword derives a PBKDF2-SHA256 hash of the password with the given
// hex-encoded salt, returned hex encoded.
func HashPassword(password, salt string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	saltBytes, err := hex.DecodeString(salt)
	if err != nil {
		return "", fmt.Errorf("invalid salt encoding: %w", err)
	}
	key := pbkdf2.Key([]byte(password), saltBytes, HashIterations, HashKeyLength, sha256.New)
	return hex.EncodeToString(key), nil
}

// VerifyPassword re-derives the hash from password+salt and compares it with
// the stored hash in constant time.
func VerifyPassword(storedHash, salt, password string) bool {
	computed, err := HashPassword(password, salt)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}

// ValidatePassword enforces the registration password policy: minimum length,
// at least one letter, one digit, and one punctuation or symbol character.
func ValidatePassword(password string) error {
	errs := make([]string, 0)

	if len(password) < MinPasswordLen {
		errs = append(errs, fmt.Sprintf("Password must be at least %d characters long.", MinPasswordLen))
	}
	if len(password) > MaxPasswordLen {
		errs = append(errs, fmt.Sprintf("Password must be at most %d characters long.", MaxPasswordLen))
	}

	hasLetter := false
	hasDigit := false
	hasSpecial := false

	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	if !hasLetter {
		errs = append(errs, "Password must contain at least one letter.")
	}
	if !hasDigit {
		errs = append(errs, "Password must contain at least one number.")
	}
	if !hasSpecial {
		errs = append(errs, "Password must contain at least one special character.")
	}

	if len(errs) > 0 {
		return &PasswordValidationError{Errors: errs}
	}

	return nil
}
