package credential

import (
	"crypto/sha256"
	"encoding/base64"
	"regexp"

	"golang.org/x/crypto/argon2"
)

// Hasher maps a plaintext string to a fixed-format base64 digest.
type Hasher interface {
	Hash(plain string) string
}

// SHA256Hasher digests with SHA-256 and encodes with standard base64.
type SHA256Hasher struct{}

// Hash returns the base64 SHA-256 digest of plain.
func (SHA256Hasher) Hash(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// Argon2Hasher derives an Argon2id key from plain and a fixed salt. The salt
// acts as an installation pepper; equal inputs give equal digests so hashed
// columns stay comparable.
type Argon2Hasher struct {
	Salt    []byte
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
}

// NewArgon2Hasher returns an Argon2Hasher with the RFC 9106 second
// recommended parameter set.
func NewArgon2Hasher(salt []byte) Argon2Hasher {
	return Argon2Hasher{
		Salt:    salt,
		Time:    3,
		Memory:  64 * 1024,
		Threads: 4,
		KeyLen:  32,
	}
}

// Hash returns the base64 Argon2id key for plain.
func (h Argon2Hasher) Hash(plain string) string {
	key := argon2.IDKey([]byte(plain), h.Salt, h.Time, h.Memory, h.Threads, h.KeyLen)
	return base64.StdEncoding.EncodeToString(key)
}

var base64Pattern = regexp.MustCompile(`^[A-Za-z0-9+/]+={0,2}$`)

// IsHashed reports whether v looks like a base64 digest: a non-empty string
// over the base64 alphabet, length a multiple of 4, with at most two pad
// characters. Plaintext of that shape also matches; columns opt in to the
// check with their hashed flag.
func IsHashed(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	return len(s)%4 == 0 && base64Pattern.MatchString(s)
}
