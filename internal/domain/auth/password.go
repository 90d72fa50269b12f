package auth

import (
	"golang.org/x/crypto/bcrypt"

	"fueldepot/internal/core/apperror"
)

// HashPassword derives a bcrypt hash for storage.
func HashPassword(plain string) (string, error) {
	if len(plain) < 8 {
		return "", apperror.NewValidation("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", apperror.NewInternal(err)
	}
	return string(hash), nil
}

// CheckPassword compares a candidate password against a stored hash.
func CheckPassword(hash, plain string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)); err != nil {
		return apperror.NewUnauthorized("invalid credentials")
	}
	return nil
}
