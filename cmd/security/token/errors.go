package token

import "errors"

// Public, stable errors for callers.
var (
	ErrKeyMissing  = errors.New("signing key missing")
	ErrKeyTooShort = errors.New("signing key too short")
)
