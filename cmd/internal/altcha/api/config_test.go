package api

import (
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	if diff := cmp.Diff(DefaultConfig(), LoadConfigFromEnv()); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("ALTCHA_TRUST_PROXY", "false")
	t.Setenv("ALTCHA_MAX_BODY_BYTES", "1024")
	t.Setenv("ALTCHA_COOKIE_NAME", "gate")
	t.Setenv("ALTCHA_COOKIE_PATH", "relative")
	t.Setenv("ALTCHA_COOKIE_SECURE", "false")
	t.Setenv("ALTCHA_COOKIE_SAMESITE", "lax")
	t.Setenv("ALTCHA_PAGE_TITLE", "Library Check")

	want := Config{
		TrustProxy:     false,
		MaxBodyBytes:   1024,
		CookieName:     "gate",
		CookiePath:     "/",
		CookieSecure:   false,
		CookieSameSite: http.SameSiteLaxMode,
		PageTitle:      "Library Check",
	}
	if diff := cmp.Diff(want, LoadConfigFromEnv()); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigFromEnv_SameSiteNoneForcesSecure(t *testing.T) {
	t.Setenv("ALTCHA_COOKIE_SECURE", "false")
	t.Setenv("ALTCHA_COOKIE_SAMESITE", "none")

	cfg := LoadConfigFromEnv()
	if !cfg.CookieSecure {
		t.Fatalf("SameSite=None requires Secure")
	}
}

func TestLoadConfigFromEnv_BadValuesKeepDefaults(t *testing.T) {
	t.Setenv("ALTCHA_TRUST_PROXY", "maybe")
	t.Setenv("ALTCHA_MAX_BODY_BYTES", "-5")
	t.Setenv("ALTCHA_COOKIE_SAMESITE", "sideways")

	cfg := LoadConfigFromEnv()
	if !cfg.TrustProxy || cfg.MaxBodyBytes != 64<<10 || cfg.CookieSameSite != http.SameSiteStrictMode {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}
