package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	// KeyEnvKey is the env var name for the master signing secret.
	// #nosec G101 -- not a credential; it's an environment variable name.
	KeyEnvKey = "ALTCHA_SECRET_KEY"

	// MinKeyBytes is the minimum accepted secret size for HMAC-SHA256.
	MinKeyBytes = 32

	// TagHexLen is the length of a hex-encoded HMAC-SHA256 tag.
	TagHexLen = sha256.Size * 2
)

// Signer computes and checks HMAC-SHA256 tags under a fixed key.
// The zero value is unusable; build one with NewSigner or DeriveSigner.
type Signer struct {
	key []byte
}

// NewSigner returns a Signer for key, enforcing MinKeyBytes.
// The key is copied so later mutation by the caller has no effect.
func NewSigner(key []byte) (Signer, error) {
	if len(key) == 0 {
		return Signer{}, ErrKeyMissing
	}
	if len(key) < MinKeyBytes {
		return Signer{}, ErrKeyTooShort
	}
	return Signer{key: append([]byte(nil), key...)}, nil
}

// DeriveSigner returns a Signer whose key is HKDF-SHA256(secret, info=purpose).
func DeriveSigner(secret []byte, purpose string) (Signer, error) {
	if len(secret) == 0 {
		return Signer{}, ErrKeyMissing
	}
	if len(secret) < MinKeyBytes {
		return Signer{}, ErrKeyTooShort
	}
	if strings.TrimSpace(purpose) == "" {
		return Signer{}, fmt.Errorf("token: empty purpose label")
	}

	sub := make([]byte, sha256.Size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(purpose)), sub); err != nil {
		return Signer{}, fmt.Errorf("token: derive %q: %w", purpose, err)
	}
	return NewSigner(sub)
}

// Sum returns the raw HMAC-SHA256 tag of msg.
func (s Signer) Sum(msg []byte) []byte {
	m := hmac.New(sha256.New, s.key)
	_, _ = m.Write(msg)
	return m.Sum(nil)
}

// Sign returns the hex-encoded HMAC-SHA256 tag of msg.
func (s Signer) Sign(msg string) string {
	return hex.EncodeToString(s.Sum([]byte(msg)))
}

// Verify reports whether tag is the hex tag of msg.
// Comparison is over the full expected length and runs in constant time.
func (s Signer) Verify(msg, tag string) bool {
	if len(tag) != TagHexLen {
		return false
	}
	want := s.Sign(msg)
	return hmac.Equal([]byte(want), []byte(tag))
}

// KeyFromEnv returns the configured secret bytes (trimmed), enforcing a minimum byte length.
// If the env var is missing/blank -> ErrKeyMissing.
// If too short -> ErrKeyTooShort.
func KeyFromEnv(minBytes int) ([]byte, error) {
	raw := strings.TrimSpace(os.Getenv(KeyEnvKey))
	if raw == "" {
		return nil, ErrKeyMissing
	}
	b := []byte(raw)
	if minBytes > 0 && len(b) < minBytes {
		return nil, ErrKeyTooShort
	}
	return b, nil
}
