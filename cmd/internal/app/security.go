package app

import (
	"errors"
	"fmt"

	"altchagate/cmd/security/token"
)

// ValidateSecurityConfig enforces the startup security policy and returns the
// master secret for the altcha service.
//
// Fail-fast: there is no generated or default key, since tokens signed with a
// throwaway key would silently stop validating after a restart.
func ValidateSecurityConfig(cfg Config) ([]byte, error) {
	key, err := token.KeyFromEnv(token.MinKeyBytes)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrKeyMissing):
			return nil, fmt.Errorf("security policy: %s is required", token.KeyEnvKey)
		case errors.Is(err, token.ErrKeyTooShort):
			return nil, fmt.Errorf("security policy: %s is too short (min %d bytes)", token.KeyEnvKey, token.MinKeyBytes)
		default:
			return nil, err
		}
	}

	if cfg.CORSAllowCredentials {
		if wildcard, _ := originAllowed(cfg.CORSAllowedOrigins, "*"); wildcard {
			return nil, errors.New("security policy: CORS credentials cannot be combined with a wildcard origin")
		}
	}

	return key, nil
}
