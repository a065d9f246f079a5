// Package auth verifies the master password, limits login attempts, and
// issues session tokens.
package auth

import (
	"container/list"
	"crypto/sha256"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword generates a bcrypt hash for the given password.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// checkPassword reports whether password matches the bcrypt hash.
// Malformed hashes verify as false rather than erroring.
func checkPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Verifier checks passwords against a stored bcrypt hash, caching results
// so repeated logins with the same credentials skip the bcrypt work.
// The cache is bounded: least-recently-used entries are evicted at
// capacity. Keys are SHA-256 digests of password and hash, so plaintext
// passwords are never retained.
type Verifier struct {
	mu       sync.Mutex
	capacity int
	order    *list.List               // front = most recently used
	entries  map[[32]byte]*list.Element
}

type cacheEntry struct {
	key   [32]byte
	valid bool
}

// NewVerifier creates a verifier with the given cache capacity. A
// non-positive capacity disables caching.
func NewVerifier(capacity int) *Verifier {
	return &Verifier{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[[32]byte]*list.Element),
	}
}

// Verify reports whether password matches hash.
func (v *Verifier) Verify(password, hash string) bool {
	if v.capacity <= 0 {
		return checkPassword(password, hash)
	}

	key := cacheKey(password, hash)

	v.mu.Lock()
	if el, ok := v.entries[key]; ok {
		v.order.MoveToFront(el)
		valid := el.Value.(*cacheEntry).valid
		v.mu.Unlock()
		return valid
	}
	v.mu.Unlock()

	// bcrypt outside the lock; it is deliberately slow.
	valid := checkPassword(password, hash)

	v.mu.Lock()
	defer v.mu.Unlock()
	if el, ok := v.entries[key]; ok {
		v.order.MoveToFront(el)
		return el.Value.(*cacheEntry).valid
	}
	v.entries[key] = v.order.PushFront(&cacheEntry{key: key, valid: valid})
	if v.order.Len() > v.capacity {
		oldest := v.order.Back()
		v.order.Remove(oldest)
		delete(v.entries, oldest.Value.(*cacheEntry).key)
	}
	return valid
}

// Len returns the current cache size.
func (v *Verifier) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.order.Len()
}

func cacheKey(password, hash string) [32]byte {
	h := sha256.New()
	h.Write([]byte(password))
	h.Write([]byte{0})
	h.Write([]byte(hash))
	var key [32]byte
	copy(key[:], h.Sum(nil))
	return key
}
