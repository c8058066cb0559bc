package altcha

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// AlgorithmSHA256 is the only puzzle algorithm this server issues.
	AlgorithmSHA256 = "SHA-256"

	// DefaultMaxNumber bounds the secret number and therefore the brute-force cost.
	DefaultMaxNumber = 50000

	// DefaultTokenTTL is the session credential lifetime.
	DefaultTokenTTL = 24 * time.Hour

	defaultSaltBytes = 16

	maxMaxNumber = 10_000_000
)

// Config holds the protocol parameters.
type Config struct {
	// MaxNumber is the exclusive upper bound of the secret number.
	MaxNumber uint64

	// SaltBytes is the number of random bytes in each salt (hex-encoded on the wire).
	SaltBytes int

	// TokenTTL is how long a session credential stays valid. Whole seconds only.
	TokenTTL time.Duration
}

// DefaultConfig returns the protocol defaults.
func DefaultConfig() Config {
	return Config{
		MaxNumber: DefaultMaxNumber,
		SaltBytes: defaultSaltBytes,
		TokenTTL:  DefaultTokenTTL,
	}
}

// LoadConfigFromEnv loads protocol configuration from environment variables.
//
// Optional:
//   - ALTCHA_MAX_NUMBER (1..10000000)
//   - ALTCHA_TOKEN_TTL (Go duration, at least 1s)
//
// Returns ErrConfig if a value is present but invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := strings.TrimSpace(os.Getenv("ALTCHA_MAX_NUMBER")); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil || n == 0 || n > maxMaxNumber {
			return Config{}, ErrConfig
		}
		cfg.MaxNumber = n
	}

	if v := strings.TrimSpace(os.Getenv("ALTCHA_TOKEN_TTL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < time.Second {
			return Config{}, ErrConfig
		}
		cfg.TokenTTL = d
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.MaxNumber == 0 || c.MaxNumber > maxMaxNumber {
		return ErrConfig
	}
	if c.SaltBytes < 8 || c.SaltBytes > 64 {
		return ErrConfig
	}
	if c.TokenTTL < time.Second {
		return ErrConfig
	}
	return nil
}
