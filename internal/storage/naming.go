package storage

import (
	"crypto/rand"
	"fmt"

	"pixeldust/internal/config"
)

const (
	DefaultNameLength = 8
	MaxNameLength     = config.MaxNameLength
)

const nameAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// largest multiple of len(nameAlphabet) that fits in a byte
const nameRejectAbove = 256 - 256%len(nameAlphabet)

// AllocateName returns a uniformly random alphanumeric public name. Lengths
// below 1 select DefaultNameLength and lengths above MaxNameLength are clamped.
// Uniqueness is not checked here.
func AllocateName(length int) (string, error) {
	if length <= 0 {
		length = DefaultNameLength
	}
	if length > MaxNameLength {
		length = MaxNameLength
	}

	out := make([]byte, 0, length)
	buf := make([]byte, length*2)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("random name: %w", err)
		}
		for _, b := range buf {
			if int(b) >= nameRejectAbove {
				continue
			}
			out = append(out, nameAlphabet[int(b)%len(nameAlphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}
