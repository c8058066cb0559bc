// Package client drives the protocol from the caller's side: fetch a puzzle,
// solve it, submit the solution and present the resulting session cookie.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"altchagate/cmd/internal/altcha"
)

// DefaultCookieName matches the server default.
const DefaultCookieName = "altcha_verified"

// ErrRejected is returned when the server refuses a solution.
var ErrRejected = errors.New("solution rejected")

// Client talks to one altchagate base URL.
type Client struct {
	base       *url.URL
	http       *http.Client
	log        *slog.Logger
	cookieName string
}

// Result summarizes one full pass through the protocol.
type Result struct {
	Number    uint64
	Took      time.Duration
	Cookie    *http.Cookie
	Validated bool
}

// New builds a Client. hc and log may be nil.
func New(baseURL string, hc *http.Client, log *slog.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("client: base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("client: base url must be http(s), got %q", baseURL)
	}
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{base: u, http: hc, log: log, cookieName: DefaultCookieName}, nil
}

// WithCookieName returns a copy of c that looks for a differently named session cookie.
func (c *Client) WithCookieName(name string) *Client {
	cp := *c
	if name = strings.TrimSpace(name); name != "" {
		cp.cookieName = name
	}
	return &cp
}

// FetchChallenge requests a fresh puzzle.
func (c *Client) FetchChallenge(ctx context.Context) (altcha.Puzzle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/api/challenge"), nil)
	if err != nil {
		return altcha.Puzzle{}, err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return altcha.Puzzle{}, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		return altcha.Puzzle{}, fmt.Errorf("client: challenge: status %d", res.StatusCode)
	}
	var p altcha.Puzzle
	if err := json.NewDecoder(io.LimitReader(res.Body, 1<<16)).Decode(&p); err != nil {
		return altcha.Puzzle{}, fmt.Errorf("client: challenge: %w", err)
	}
	return p, nil
}

// Verify submits sol and returns the session cookie set by the server.
func (c *Client) Verify(ctx context.Context, sol altcha.Solution) (*http.Cookie, error) {
	payload, err := altcha.EncodeSolution(sol)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(map[string]string{"altcha": payload})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/api/verify"), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 1<<16))

	if res.StatusCode == http.StatusBadRequest {
		return nil, ErrRejected
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("client: verify: status %d", res.StatusCode)
	}
	for _, ck := range res.Cookies() {
		if ck.Name == c.cookieName {
			return ck, nil
		}
	}
	return nil, fmt.Errorf("client: verify: no %s cookie in response", c.cookieName)
}

// Validate presents cookie and reports whether the server accepts it.
// The cookie is attached explicitly since a jar would withhold Secure cookies over plain http.
func (c *Client) Validate(ctx context.Context, cookie *http.Cookie) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/api/validate"), nil)
	if err != nil {
		return false, err
	}
	if cookie != nil {
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	}

	res, err := c.http.Do(req)
	if err != nil {
		return false, err
	}
	defer func() { _ = res.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 1<<16))

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusUnauthorized:
		return false, nil
	default:
		return false, fmt.Errorf("client: validate: status %d", res.StatusCode)
	}
}

// Pass runs fetch, solve, verify and validate once.
func (c *Client) Pass(ctx context.Context) (Result, error) {
	p, err := c.FetchChallenge(ctx)
	if err != nil {
		return Result{}, err
	}
	c.log.Debug("client.challenge", "maxnumber", p.MaxNumber, "salt", p.Salt)

	start := time.Now()
	n, err := altcha.Solve(ctx, p)
	if err != nil {
		return Result{}, err
	}
	took := time.Since(start)
	c.log.Info("client.solved", "number", n, "took_ms", took.Milliseconds())

	cookie, err := c.Verify(ctx, altcha.SolutionFor(p, n))
	if err != nil {
		return Result{Number: n, Took: took}, err
	}

	ok, err := c.Validate(ctx, cookie)
	if err != nil {
		return Result{Number: n, Took: took, Cookie: cookie}, err
	}
	return Result{Number: n, Took: took, Cookie: cookie, Validated: ok}, nil
}

func (c *Client) endpoint(path string) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String()
}
