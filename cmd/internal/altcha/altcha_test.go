package altcha

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

var testSecret = []byte("ece5b7b9c637456c135dfe87f571bc5e757f5e4e51e24306c8917a69d8540206")

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	s, err := NewService(DefaultConfig(), testSecret, opts...)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return s
}

func TestNewService_RejectsBadInput(t *testing.T) {
	if _, err := NewService(DefaultConfig(), []byte("short")); err == nil {
		t.Fatalf("expected error for short secret")
	}
	if _, err := NewService(DefaultConfig(), nil); err == nil {
		t.Fatalf("expected error for missing secret")
	}
	cfg := DefaultConfig()
	cfg.MaxNumber = 0
	if _, err := NewService(cfg, testSecret); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestIssueChallenge_Shape(t *testing.T) {
	t.Parallel()
	s := newTestService(t)

	p, err := s.IssueChallenge()
	if err != nil {
		t.Fatalf("IssueChallenge: %v", err)
	}
	if p.Algorithm != "SHA-256" {
		t.Fatalf("algorithm=%q", p.Algorithm)
	}
	if p.MaxNumber != DefaultMaxNumber {
		t.Fatalf("maxnumber=%d", p.MaxNumber)
	}
	if len(p.Salt) != 32 || !isLowerHex(p.Salt) {
		t.Fatalf("salt must be 32 lower-hex chars, got %q", p.Salt)
	}
	if len(p.Challenge) != 64 || !isLowerHex(p.Challenge) {
		t.Fatalf("challenge must be 64 lower-hex chars, got %q", p.Challenge)
	}
	if !s.puzzles.Verify(p.Challenge+p.Salt, p.Signature) {
		t.Fatalf("signature does not cover challenge||salt")
	}

	q, err := s.IssueChallenge()
	if err != nil {
		t.Fatalf("IssueChallenge: %v", err)
	}
	if p.Salt == q.Salt {
		t.Fatalf("salts must be unique per issuance")
	}
}

func TestIssueChallenge_RandomFailureIsFatal(t *testing.T) {
	t.Parallel()
	s := newTestService(t, WithRandom(failingReader{}))

	if _, err := s.IssueChallenge(); err == nil {
		t.Fatalf("expected error when random source fails")
	}
}

func TestRoundTrip_AnySecretNumber(t *testing.T) {
	t.Parallel()
	s := newTestService(t)
	salt := "00112233445566778899aabbccddeeff"

	for _, n := range []uint64{0, 1, 9, 10, 12345, 49998, 49999} {
		p := s.newPuzzle(salt, n)
		if !s.VerifySolution(SolutionFor(p, n)) {
			t.Fatalf("round trip failed for secret number %d", n)
		}
	}
}

func TestVerify_ForgeryRejected(t *testing.T) {
	t.Parallel()
	s := newTestService(t)
	salt := "deadbeefdeadbeefdeadbeefdeadbeef"

	// The client picks an easy puzzle (n=0) and signs it with anything but our puzzle key.
	challenge := workHash(salt, 0)
	other, err := NewService(DefaultConfig(), append([]byte("other-"), testSecret...))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	cases := []struct {
		name string
		sig  string
	}{
		{name: "empty", sig: ""},
		{name: "garbage", sig: strings.Repeat("0", 64)},
		{name: "other key", sig: other.puzzles.Sign(challenge + salt)},
		{name: "session key", sig: s.sessions.Sign(challenge + salt)},
		{name: "swapped order", sig: s.puzzles.Sign(salt + challenge)},
	}

	for _, tc := range cases {
		sol := Solution{Algorithm: "SHA-256", Challenge: challenge, Number: 0, Salt: salt, Signature: tc.sig}
		err := s.Verify(sol)
		if !errors.Is(err, ErrSignatureMismatch) {
			t.Fatalf("%s: expected ErrSignatureMismatch, got %v", tc.name, err)
		}
	}
}

func TestVerify_TamperedPuzzleRejected(t *testing.T) {
	t.Parallel()
	s := newTestService(t)
	p := s.newPuzzle("0123456789abcdef0123456789abcdef", 777)

	sol := SolutionFor(p, 777)
	sol.Salt = "f123456789abcdef0123456789abcdef"
	if err := s.Verify(sol); !errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("altered salt: expected ErrSignatureMismatch, got %v", err)
	}

	sol = SolutionFor(p, 777)
	sol.Challenge = workHash(p.Salt, 1)
	if err := s.Verify(sol); !errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("altered challenge: expected ErrSignatureMismatch, got %v", err)
	}
}

func TestVerify_ExactMatchNotPrefix(t *testing.T) {
	t.Parallel()
	s := newTestService(t)
	salt := "a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1"
	const n = 4242
	h := workHash(salt, n)

	// Near miss: a signed challenge sharing 63 of 64 hex chars with the digest of n.
	last := h[63]
	flip := byte('0')
	if last == '0' {
		flip = '1'
	}
	nearMiss := h[:63] + string(flip)

	// Prefix only: the digest starts with the challenge but is longer.
	prefixOnly := h[:16]

	for _, challenge := range []string{nearMiss, prefixOnly} {
		sol := Solution{
			Algorithm: "SHA-256",
			Challenge: challenge,
			Number:    n,
			Salt:      salt,
			Signature: s.puzzles.Sign(challenge + salt),
		}
		if err := s.Verify(sol); !errors.Is(err, ErrProofMismatch) {
			t.Fatalf("challenge %q: expected ErrProofMismatch, got %v", challenge, err)
		}
	}
}

func TestVerify_WrongNumber(t *testing.T) {
	t.Parallel()
	s := newTestService(t)
	p := s.newPuzzle("0123456789abcdef0123456789abcdef", 100)

	if err := s.Verify(SolutionFor(p, 101)); !errors.Is(err, ErrProofMismatch) {
		t.Fatalf("expected ErrProofMismatch, got %v", err)
	}
}

func TestVerify_Deterministic(t *testing.T) {
	t.Parallel()
	s := newTestService(t)
	p := s.newPuzzle("0123456789abcdef0123456789abcdef", 31337)

	good := SolutionFor(p, 31337)
	bad := SolutionFor(p, 31338)
	for i := 0; i < 50; i++ {
		if !s.VerifySolution(good) {
			t.Fatalf("iteration %d: good solution rejected", i)
		}
		if s.VerifySolution(bad) {
			t.Fatalf("iteration %d: bad solution accepted", i)
		}
	}
}

func TestVerify_ErrorDoesNotLeakIntoReason(t *testing.T) {
	t.Parallel()
	s := newTestService(t)
	p := s.newPuzzle("0123456789abcdef0123456789abcdef", 5)

	err := s.Verify(SolutionFor(p, 6))
	var opErr OpError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected OpError, got %T", err)
	}
	if opErr.Op != "altcha.Verify" {
		t.Fatalf("op=%q", opErr.Op)
	}
	if got := Reason(err); got != "proof" {
		t.Fatalf("Reason=%q want proof", got)
	}
}

func TestEndToEnd_IssueSolveVerifyTokenValidate(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 13, 12, 0, 0, 0, time.UTC)
	s := newTestService(t, WithClock(func() time.Time { return now }))

	p, err := s.IssueChallenge()
	if err != nil {
		t.Fatalf("IssueChallenge: %v", err)
	}

	n, err := Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if n >= DefaultMaxNumber {
		t.Fatalf("solution %d outside [0, %d)", n, DefaultMaxNumber)
	}

	encoded, err := EncodeSolution(SolutionFor(p, n))
	if err != nil {
		t.Fatalf("EncodeSolution: %v", err)
	}
	sol, err := DecodeSolution(encoded)
	if err != nil {
		t.Fatalf("DecodeSolution: %v", err)
	}
	if err := s.Verify(sol); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	tok, exp, err := s.IssueToken(s.Now(), "203.0.113.7", "dataspace.example.edu")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if !exp.Equal(now.Add(24 * time.Hour)) {
		t.Fatalf("expiry=%v want=%v", exp, now.Add(24*time.Hour))
	}

	if !s.ValidateToken(now.Add(23*time.Hour), tok, "203.0.113.7", "dataspace.example.edu") {
		t.Fatalf("token must validate within 24h")
	}
	if s.ValidateToken(now.Add(24*time.Hour+time.Second), tok, "203.0.113.7", "dataspace.example.edu") {
		t.Fatalf("token must fail after 24h")
	}
}

func TestReason(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want string
	}{
		{err: nil, want: "ok"},
		{err: OpError{Op: "x", Kind: ErrMalformed}, want: "malformed"},
		{err: OpError{Op: "x", Kind: ErrSignatureMismatch}, want: "signature"},
		{err: OpError{Op: "x", Kind: ErrProofMismatch}, want: "proof"},
		{err: OpError{Op: "x", Kind: ErrExpired}, want: "expired"},
		{err: OpError{Op: "x", Kind: ErrBindingMismatch}, want: "binding"},
		{err: OpError{Op: "x", Kind: ErrInvalidBinding}, want: "invalid_binding"},
		{err: errors.New("clock exploded"), want: "internal"},
	}
	for _, tc := range cases {
		if got := Reason(tc.err); got != tc.want {
			t.Fatalf("Reason(%v)=%q want=%q", tc.err, got, tc.want)
		}
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy unavailable") }

func isLowerHex(s string) bool {
	for _, r := range s {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')) {
			return false
		}
	}
	return true
}
