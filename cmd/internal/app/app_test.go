package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	t.Setenv("ALTCHA_SECRET_KEY", strings.Repeat("s", 48))
	t.Setenv("ALTCHA_MAX_NUMBER", "1000")

	cfg := LoadConfig()
	a, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestNew_RequiresSecret(t *testing.T) {
	t.Setenv("ALTCHA_SECRET_KEY", "")
	if _, err := New(LoadConfig(), slog.New(slog.NewTextHandler(io.Discard, nil))); err == nil {
		t.Fatalf("expected error without secret key")
	}
}

func TestNew_RejectsBadAltchaConfig(t *testing.T) {
	t.Setenv("ALTCHA_SECRET_KEY", strings.Repeat("s", 48))
	t.Setenv("ALTCHA_MAX_NUMBER", "not-a-number")
	if _, err := New(LoadConfig(), slog.New(slog.NewTextHandler(io.Discard, nil))); err == nil {
		t.Fatalf("expected config error")
	}
}

func TestApp_Routes(t *testing.T) {
	a := newTestApp(t)
	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	cases := []struct {
		path string
		want int
	}{
		{path: "/healthz", want: http.StatusOK},
		{path: "/readyz", want: http.StatusOK},
		{path: "/api/challenge", want: http.StatusOK},
		{path: "/api/validate", want: http.StatusUnauthorized},
		{path: "/", want: http.StatusOK},
		{path: "/does-not-exist", want: http.StatusNotFound},
	}
	for _, tc := range cases {
		res, err := http.Get(srv.URL + tc.path)
		if err != nil {
			t.Fatalf("GET %s: %v", tc.path, err)
		}
		_ = res.Body.Close()
		if res.StatusCode != tc.want {
			t.Fatalf("GET %s status=%d want=%d", tc.path, res.StatusCode, tc.want)
		}
		if res.Header.Get("X-Request-ID") == "" {
			t.Fatalf("GET %s: missing X-Request-ID", tc.path)
		}
		if res.Header.Get("X-Content-Type-Options") != "nosniff" {
			t.Fatalf("GET %s: missing security headers", tc.path)
		}
	}

	res, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	body, _ := io.ReadAll(res.Body)
	_ = res.Body.Close()
	for _, want := range []string{
		"altcha_challenges_issued_total 1",
		`altcha_token_validations_total{result="missing"} 1`,
		"altcha_http_request_duration_seconds",
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics missing %q", want)
		}
	}
}

func TestApp_ReadinessRequiresDB(t *testing.T) {
	a := newTestApp(t)
	a.cfg.ReadinessRequireDB = true

	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	res, err := http.Get(srv.URL + "/readyz")
	if err != nil {
		t.Fatalf("GET /readyz: %v", err)
	}
	_ = res.Body.Close()
	if res.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status=%d want=503", res.StatusCode)
	}
}

func TestApp_CORSPreflight(t *testing.T) {
	a := newTestApp(t)
	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/verify", nil)
	req.Header.Set("Origin", "https://library.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS: %v", err)
	}
	_ = res.Body.Close()
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("status=%d want=204", res.StatusCode)
	}
	if got := res.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow-origin=%q", got)
	}
}
