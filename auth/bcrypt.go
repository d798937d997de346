package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword will generate a salted, adaptive password hash. The cost is
// selected at build time, see bcrypt_cost.go and bcrypt_cost_race.go.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost())
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext password matches
// the hashed password. The comparison is constant time with respect to where
// a mismatch occurs; that property comes from bcrypt itself.
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}
