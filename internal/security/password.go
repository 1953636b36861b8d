package security

import (
	"bytes"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

type Algorithm string

const (
	AlgorithmBcrypt   Algorithm = "bcrypt"
	AlgorithmArgon2id Algorithm = "argon2id"
)

// bcrypt only looks at the first 72 bytes of its input.
const bcryptMaxPasswordLen = 72

var ErrUnknownHashFormat = errors.New("unknown password hash format")

type Argon2Params struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
	SaltLen uint32
}

var DefaultArgon2Params = Argon2Params{
	Time:    3,
	Memory:  64 * 1024,
	Threads: 2,
	KeyLen:  32,
	SaltLen: 16,
}

type PasswordConfig struct {
	Algorithm  string
	BcryptCost int
	Argon2     Argon2Params
}

// PasswordHasher hashes with bcrypt and degrades to argon2id when bcrypt is
// not configured or cannot take the input. Every degradation is logged.
type PasswordHasher struct {
	algorithm  Algorithm
	bcryptCost int
	argon2     Argon2Params
	log        zerolog.Logger
}

func NewPasswordHasher(cfg PasswordConfig, log zerolog.Logger) *PasswordHasher {
	h := &PasswordHasher{
		algorithm:  Algorithm(strings.ToLower(cfg.Algorithm)),
		bcryptCost: cfg.BcryptCost,
		argon2:     cfg.Argon2,
		log:        log,
	}

	if h.argon2 == (Argon2Params{}) {
		h.argon2 = DefaultArgon2Params
	}
	if h.bcryptCost < bcrypt.MinCost || h.bcryptCost > bcrypt.MaxCost {
		h.bcryptCost = bcrypt.DefaultCost
	}

	switch h.algorithm {
	case AlgorithmBcrypt, AlgorithmArgon2id:
	default:
		log.Warn().
			Str("configured", cfg.Algorithm).
			Str("fallback", string(AlgorithmArgon2id)).
			Msg("password algorithm unavailable, falling back")
		h.algorithm = AlgorithmArgon2id
	}

	return h
}

func (h *PasswordHasher) Algorithm() Algorithm {
	return h.algorithm
}

func (h *PasswordHasher) Hash(password string) ([]byte, error) {
	if h.algorithm == AlgorithmBcrypt {
		digest, err := bcrypt.GenerateFromPassword([]byte(password), h.bcryptCost)
		if err == nil {
			return digest, nil
		}
		if !errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, fmt.Errorf("bcrypt: %w", err)
		}
		h.log.Warn().
			Int("password_len", len(password)).
			Str("fallback", string(AlgorithmArgon2id)).
			Msg("bcrypt cannot hash password, falling back")
	}
	return hashArgon2id(password, h.argon2)
}

// Verify reports whether password matches digest. A mismatch is not an error.
func (h *PasswordHasher) Verify(password string, digest []byte) (bool, error) {
	switch {
	case isBcrypt(digest):
		if len(password) > bcryptMaxPasswordLen {
			return false, nil
		}
		err := bcrypt.CompareHashAndPassword(digest, []byte(password))
		if err == nil {
			return true, nil
		}
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, fmt.Errorf("bcrypt: %w", err)
	case bytes.HasPrefix(digest, []byte("$argon2id$")):
		return verifyArgon2id(password, digest)
	default:
		return false, ErrUnknownHashFormat
	}
}

func isBcrypt(digest []byte) bool {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if bytes.HasPrefix(digest, []byte(prefix)) {
			return true
		}
	}
	return false
}

func hashArgon2id(password string, params Argon2Params) ([]byte, error) {
	salt := make([]byte, params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, params.Time, params.Memory, params.Threads, params.KeyLen)

	result := fmt.Sprintf("$argon2id$v=%d$t=%d,m=%d,p=%d$%s$%s",
		argon2.Version,
		params.Time, params.Memory, params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash))

	return []byte(result), nil
}

func verifyArgon2id(password string, encoded []byte) (bool, error) {
	// $argon2id$v=19$t=3,m=65536,p=2$<salt>$<hash>
	parts := strings.Split(string(encoded), "$")
	if len(parts) != 6 {
		return false, ErrUnknownHashFormat
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("parse version: %w", err)
	}
	if version != argon2.Version {
		return false, fmt.Errorf("unsupported argon2 version %d", version)
	}

	var params Argon2Params
	if _, err := fmt.Sscanf(parts[3], "t=%d,m=%d,p=%d", &params.Time, &params.Memory, &params.Threads); err != nil {
		return false, fmt.Errorf("parse params: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("decode salt: %w", err)
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("decode hash: %w", err)
	}
	if len(salt) == 0 || len(hash) == 0 {
		return false, ErrUnknownHashFormat
	}

	computed := argon2.IDKey([]byte(password), salt, params.Time, params.Memory, params.Threads, uint32(len(hash)))

	return subtle.ConstantTimeCompare(hash, computed) == 1, nil
}
