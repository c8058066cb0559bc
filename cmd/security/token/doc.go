// Package token provides the keyed message authentication primitives used by altchagate.
//
// It is the single source of truth for HMAC-SHA256 tagging:
// - Signer produces 64-char hex tags and verifies them with constant-time comparison.
// - DeriveSigner binds a sub-key to a purpose label (HKDF-SHA256), so tags minted
//   for one artifact (puzzles) are never valid for another (session credentials).
//
// Environment:
// - ALTCHA_SECRET_KEY: master secret, required, at least MinKeyBytes bytes.
package token
