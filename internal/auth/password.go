package auth

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is the bcrypt input limit; longer inputs are rejected rather
// than silently truncated.
const maxPasswordBytes = 72

// HashPassword derives a bcrypt hash for storage.
func HashPassword(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword reports whether plaintext matches storedHash. Malformed or
// empty hashes never match.
func VerifyPassword(plaintext, storedHash string) bool {
	if storedHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(plaintext)) == nil
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// dummyPasswordHash returns a fixed bcrypt hash at the same cost as real
// accounts. Comparing against it makes a miss on an unknown email cost as
// much as a wrong password.
func dummyPasswordHash() string {
	dummyHashOnce.Do(func() {
		hashed, err := bcrypt.GenerateFromPassword([]byte("videoapp-unknown-account"), bcrypt.DefaultCost)
		if err == nil {
			dummyHash = string(hashed)
		}
	})
	return dummyHash
}
