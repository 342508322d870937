package crypto

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashSecret hashes a password or PIN with bcrypt at the default cost.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(hash), nil
}

// CheckSecret reports whether a plaintext password or PIN matches a
// stored bcrypt hash.
func CheckSecret(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
