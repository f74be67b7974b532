package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/emilythestrangee/postboard/backend/internal/apperror"
)

// PasswordCost is the bcrypt work factor used for every stored password.
const PasswordCost = 12

// MaxPasswordBytes is bcrypt's input limit. It counts bytes, not runes.
const MaxPasswordBytes = 72

var ErrPasswordTooLong = fmt.Errorf("%w: password exceeds %d bytes", apperror.ErrInvalidInput, MaxPasswordBytes)

// HashPassword returns a salted bcrypt hash of plain.
func HashPassword(plain string) (string, error) {
	if len(plain) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), PasswordCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches hash. A mismatch or a corrupt
// hash is a false outcome, not an error.
func VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
