package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// NewSessionToken derives a session token from the account id, the creation
// instant at nanosecond resolution and 16 random bytes. Uniqueness is still
// enforced by the store.
func NewSessionToken(userID string, createdAt time.Time) (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("session nonce: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(userID))
	h.Write([]byte(createdAt.UTC().Format(time.RFC3339Nano)))
	h.Write(nonce)
	return hex.EncodeToString(h.Sum(nil)), nil
}
