package password

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// LegacyBcryptCost is the cost factor the pre-Argon2 account records were hashed with.
const LegacyBcryptCost = 10

// Bcrypt verifies (and, for fixtures and migrations, produces) bcrypt hashes.
type Bcrypt struct {
	cost int
}

// NewBcrypt returns a [Bcrypt] using cost for Hash. A zero cost selects
// [LegacyBcryptCost].
func NewBcrypt(cost int) (*Bcrypt, error) {
	if cost == 0 {
		cost = LegacyBcryptCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, errors.New("password bcrypt cost out of range")
	}
	return &Bcrypt{cost: cost}, nil
}

// Hash returns the bcrypt hash of password.
func (b *Bcrypt) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether password matches encodedHash.
func (b *Bcrypt) Verify(password string, encodedHash string) (bool, error) {
	if password == "" {
		return false, ErrEmptyPassword
	}
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	case errors.Is(err, bcrypt.ErrPasswordTooLong):
		return false, nil
	default:
		return false, ErrMalformedHash
	}
}

func isBcryptHash(encodedHash string) bool {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(encodedHash, prefix) {
			return true
		}
	}
	return false
}
