package altcha

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	tokenSep   = ":"
	payloadSep = "|"
)

// TokenClaims is the decoded, authenticated content of a session credential.
type TokenClaims struct {
	ClientIP  string
	Domain    string
	ExpiresAt time.Time
}

// IssueToken mints a credential binding clientIP and domain until now+TokenTTL.
//
// Format: base64std(ip|domain|expires_unix) ":" hex(tag). Neither the base64 nor the
// hex alphabet contains ':', so the separator is unambiguous even for IPv6 clients.
// Values containing '|' are refused so the payload always splits into three fields.
func (s *Service) IssueToken(now time.Time, clientIP, domain string) (string, time.Time, error) {
	const op = "altcha.IssueToken"

	if !validBindingValue(clientIP) {
		return "", time.Time{}, opErr(op, ErrInvalidBinding, "client ip %q", clientIP)
	}
	if !validBindingValue(domain) {
		return "", time.Time{}, opErr(op, ErrInvalidBinding, "domain %q", domain)
	}

	exp := now.Unix() + int64(s.cfg.TokenTTL/time.Second)
	payload := clientIP + payloadSep + domain + payloadSep + strconv.FormatInt(exp, 10)
	tok := base64.StdEncoding.EncodeToString([]byte(payload)) + tokenSep + s.sessions.Sign(payload)

	return tok, time.Unix(exp, 0).UTC(), nil
}

// CheckToken authenticates tok and checks expiry and binding against the current request.
//
// Order: shape, decode, tag, fields, expiry, binding. Expiry is strict: a credential whose
// expiry equals now is still valid.
func (s *Service) CheckToken(now time.Time, tok, clientIP, domain string) (TokenClaims, error) {
	const op = "altcha.CheckToken"

	parts := strings.Split(tok, tokenSep)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return TokenClaims{}, opErr(op, ErrMalformed, "want 2 segments, got %d", len(parts))
	}

	raw, err := base64.StdEncoding.Strict().DecodeString(parts[0])
	if err != nil {
		return TokenClaims{}, opErr(op, ErrMalformed, "base64: %v", err)
	}
	if !utf8.Valid(raw) {
		return TokenClaims{}, opErr(op, ErrMalformed, "payload is not utf-8")
	}
	payload := string(raw)

	if !s.sessions.Verify(payload, parts[1]) {
		return TokenClaims{}, opErr(op, ErrSignatureMismatch, "client=%s@%s", clientIP, domain)
	}

	fields := strings.Split(payload, payloadSep)
	if len(fields) != 3 {
		return TokenClaims{}, opErr(op, ErrMalformed, "want 3 payload fields, got %d", len(fields))
	}
	exp, err := strconv.ParseUint(fields[2], 10, 63)
	if err != nil {
		return TokenClaims{}, opErr(op, ErrMalformed, "expires: %v", err)
	}

	claims := TokenClaims{
		ClientIP:  fields[0],
		Domain:    fields[1],
		ExpiresAt: time.Unix(int64(exp), 0).UTC(),
	}

	if now.Unix() > int64(exp) {
		return claims, opErr(op, ErrExpired, "expired_at=%d client=%s", exp, clientIP)
	}
	if claims.ClientIP != clientIP || claims.Domain != domain {
		return claims, opErr(op, ErrBindingMismatch, "token=%s@%s actual=%s@%s",
			claims.ClientIP, claims.Domain, clientIP, domain)
	}
	return claims, nil
}

// ValidateToken reports whether tok is valid for clientIP and domain at now.
func (s *Service) ValidateToken(now time.Time, tok, clientIP, domain string) bool {
	_, err := s.CheckToken(now, tok, clientIP, domain)
	return err == nil
}

func validBindingValue(v string) bool {
	return v != "" && !strings.Contains(v, payloadSep)
}
