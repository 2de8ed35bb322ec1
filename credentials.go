package sessiongate

import (
	stderrors "errors"

	"github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

// credentialHashCost is the bcrypt work factor for stored credentials.
const credentialHashCost = 14

// HashPassword hashes a cleartext credential for storage on an identity
// record. Empty credentials are rejected before hashing.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), credentialHashCost)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "credential hashing failed")
	}
	return string(h), nil
}

// ComparePasswordAndHash checks a cleartext credential against the stored
// hash. A wrong password reports ErrMismatchedHashAndPassword; a corrupt
// stored hash fails closed with the same unauthorized code.
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if stderrors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return errors.Wrap(err, errors.CategoryAuth, "stored credential hash is not usable").
			WithCode(errors.CodeUnauthorized)
	}
	return nil
}
