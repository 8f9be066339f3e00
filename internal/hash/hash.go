package hash

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltBytes  = 16
	iterations = 310000
	keyLength  = 32
)

// NewSalt returns a fresh random salt, hex encoded.
func NewSalt() (string, error) {
	b := make([]byte, saltBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Password derives the stored digest for a plaintext password and a salt.
func Password(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), iterations, keyLength, sha256.New)
	return hex.EncodeToString(key)
}

// Verify recomputes the digest of a candidate password and compares it to the
// stored one in constant time.
func Verify(password, storedHash, salt string) bool {
	want, err := hex.DecodeString(storedHash)
	if err != nil {
		return false
	}
	got := pbkdf2.Key([]byte(password), []byte(salt), iterations, keyLength, sha256.New)
	return subtle.ConstantTimeCompare(want, got) == 1
}
