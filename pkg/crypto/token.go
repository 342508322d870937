// Package crypto provides hashing utilities for credentials and device
// enrollment tokens.
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// GenerateDeviceToken creates a new device enrollment token. It returns
// the plaintext token (shown exactly once at provisioning time) and the
// hash to persist. The plaintext is never stored.
func GenerateDeviceToken() (plaintext, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate device token: %w", err)
	}

	plaintext = base64.RawURLEncoding.EncodeToString(buf)
	return plaintext, HashDeviceToken(plaintext), nil
}

// HashDeviceToken returns the hex-encoded SHA-256 digest of a token.
func HashDeviceToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// VerifyDeviceToken reports whether a presented token matches a stored
// hash, in constant time.
func VerifyDeviceToken(token, storedHash string) bool {
	computed := HashDeviceToken(token)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}
