package api

import (
	"net/http"
	"os"
	"strconv"
	"strings"
)

// Config controls transport behavior around the protocol.
type Config struct {
	// TrustProxy makes clientIP read X-Forwarded-For / X-Real-IP.
	// Only safe behind a proxy that overwrites (not appends) these headers.
	TrustProxy   bool
	MaxBodyBytes int64

	CookieName     string
	CookiePath     string
	CookieSecure   bool
	CookieSameSite http.SameSite

	PageTitle string
}

// LoadConfigFromEnv loads transport config from environment variables with safe defaults.
func LoadConfigFromEnv() Config {
	cfg := Config{
		TrustProxy:     envBool("ALTCHA_TRUST_PROXY", true),
		MaxBodyBytes:   envInt64("ALTCHA_MAX_BODY_BYTES", 64<<10),
		CookieName:     envString("ALTCHA_COOKIE_NAME", "altcha_verified"),
		CookiePath:     envString("ALTCHA_COOKIE_PATH", "/"),
		CookieSecure:   envBool("ALTCHA_COOKIE_SECURE", true),
		CookieSameSite: parseSameSite(envString("ALTCHA_COOKIE_SAMESITE", "strict")),
		PageTitle:      envString("ALTCHA_PAGE_TITLE", "Verification Required"),
	}

	// SameSite=None is rejected by browsers without Secure.
	if cfg.CookieSameSite == http.SameSiteNoneMode {
		cfg.CookieSecure = true
	}
	if !strings.HasPrefix(cfg.CookiePath, "/") {
		cfg.CookiePath = "/"
	}
	return cfg
}

// DefaultConfig mirrors LoadConfigFromEnv with an empty environment.
func DefaultConfig() Config {
	return Config{
		TrustProxy:     true,
		MaxBodyBytes:   64 << 10,
		CookieName:     "altcha_verified",
		CookiePath:     "/",
		CookieSecure:   true,
		CookieSameSite: http.SameSiteStrictMode,
		PageTitle:      "Verification Required",
	}
}

func parseSameSite(v string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "strict":
		return http.SameSiteStrictMode
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	case "default":
		return http.SameSiteDefaultMode
	default:
		return http.SameSiteStrictMode
	}
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
