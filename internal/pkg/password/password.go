package password

import (
	"errors"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrHashingFailed   = errors.New("password hashing failed")
	ErrInvalidPassword = errors.New("invalid password")
	ErrUnknownHasher   = errors.New("unknown password hasher")
)

// Hasher is the pluggable KDF boundary. The resulting hash travels inside
// user event payloads, so the encoded form must be self-describing enough to
// verify without knowing which parameters produced it.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) (bool, error)
}

// NewHasher resolves the configured KDF. argon2id is the default; bcrypt is
// kept for environments that cannot afford the memory-hard cost.
func NewHasher(kind string) (Hasher, error) {
	switch kind {
	case "", "argon2id":
		return &Argon2idHasher{params: argon2id.DefaultParams}, nil
	case "bcrypt":
		return &BcryptHasher{cost: bcrypt.DefaultCost}, nil
	default:
		return nil, ErrUnknownHasher
	}
}

type Argon2idHasher struct {
	params *argon2id.Params
}

func (h *Argon2idHasher) Hash(plain string) (string, error) {
	if plain == "" {
		return "", ErrInvalidPassword
	}
	hash, err := argon2id.CreateHash(plain, h.params)
	if err != nil {
		return "", ErrHashingFailed
	}
	return hash, nil
}

func (h *Argon2idHasher) Verify(plain, hash string) (bool, error) {
	if plain == "" || hash == "" {
		return false, ErrInvalidPassword
	}
	match, err := argon2id.ComparePasswordAndHash(plain, hash)
	if err != nil {
		return false, err
	}
	return match, nil
}

type BcryptHasher struct {
	cost int
}

func (h *BcryptHasher) Hash(plain string) (string, error) {
	if plain == "" {
		return "", ErrInvalidPassword
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", ErrHashingFailed
	}
	return string(hashed), nil
}

func (h *BcryptHasher) Verify(plain, hash string) (bool, error) {
	if plain == "" || hash == "" {
		return false, ErrInvalidPassword
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
