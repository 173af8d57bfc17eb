package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var ErrNoKey = errors.New("no api key configured")

// HashKey produces a bcrypt hash suitable for security.api_key_hash.
func HashKey(key string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	return string(b), err
}

// KeyVerifier checks presented API keys against either a plain configured key
// or a bcrypt hash of it.
type KeyVerifier struct {
	plain []byte
	hash  []byte

	// sha256 of the last key that passed bcrypt, so repeat callers skip the
	// slow compare
	mu       sync.RWMutex
	accepted []byte
}

func NewKeyVerifier(plain, hash string) (*KeyVerifier, error) {
	if plain == "" && hash == "" {
		return nil, ErrNoKey
	}
	v := &KeyVerifier{}
	if plain != "" {
		v.plain = []byte(plain)
	}
	if hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, err
		}
		v.hash = []byte(hash)
	}
	return v, nil
}

func (v *KeyVerifier) Verify(presented string) bool {
	if presented == "" {
		return false
	}
	if v.plain != nil && subtle.ConstantTimeCompare([]byte(presented), v.plain) == 1 {
		return true
	}
	if v.hash == nil {
		return false
	}

	sum := sha256.Sum256([]byte(presented))
	v.mu.RLock()
	hit := v.accepted != nil && subtle.ConstantTimeCompare(sum[:], v.accepted) == 1
	v.mu.RUnlock()
	if hit {
		return true
	}

	if bcrypt.CompareHashAndPassword(v.hash, []byte(presented)) != nil {
		return false
	}
	v.mu.Lock()
	v.accepted = sum[:]
	v.mu.Unlock()
	return true
}
