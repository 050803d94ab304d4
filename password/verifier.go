package password

// Verifier checks a plaintext password against a stored hash of either
// supported scheme and hashes new passwords with Argon2id.
//
// Verifier is safe for concurrent use.
type Verifier struct {
	argon2 *Argon2
	bcrypt *Bcrypt
}

// NewVerifier creates a [Verifier] whose new hashes use cfg.
func NewVerifier(cfg Config) (*Verifier, error) {
	a, err := NewArgon2(cfg)
	if err != nil {
		return nil, err
	}
	b, err := NewBcrypt(LegacyBcryptCost)
	if err != nil {
		return nil, err
	}
	return &Verifier{argon2: a, bcrypt: b}, nil
}

// Hash returns a new Argon2id hash of password.
func (v *Verifier) Hash(password string) (string, error) {
	return v.argon2.Hash(password)
}

// Verify reports whether password matches encodedHash. It returns
// [ErrUnsupportedHash] when the scheme is not recognized.
func (v *Verifier) Verify(password string, encodedHash string) (bool, error) {
	switch {
	case isArgon2Hash(encodedHash):
		return v.argon2.Verify(password, encodedHash)
	case isBcryptHash(encodedHash):
		return v.bcrypt.Verify(password, encodedHash)
	default:
		return false, ErrUnsupportedHash
	}
}

// NeedsUpgrade reports whether encodedHash should be replaced with a fresh
// Argon2id hash: every bcrypt hash does, and so does an Argon2id hash with
// weaker parameters than the configured ones.
func (v *Verifier) NeedsUpgrade(encodedHash string) (bool, error) {
	switch {
	case isArgon2Hash(encodedHash):
		return v.argon2.NeedsUpgrade(encodedHash)
	case isBcryptHash(encodedHash):
		return true, nil
	default:
		return false, ErrUnsupportedHash
	}
}
