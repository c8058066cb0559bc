package altcha

import (
	"crypto/rand"
	"io"
	"time"

	"altchagate/cmd/security/token"
)

// Sub-key purpose labels. Changing either invalidates every outstanding artifact of that kind.
const (
	puzzlePurpose  = "altcha/puzzle/v1"
	sessionPurpose = "altcha/session/v1"
)

// Service is the immutable protocol context shared by all requests.
// It holds no mutable state and is safe for concurrent use.
type Service struct {
	cfg Config

	puzzles  token.Signer
	sessions token.Signer

	now  func() time.Time
	rand io.Reader
}

// Option configures optional Service dependencies.
type Option func(*Service)

// WithClock overrides the wall clock (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRandom overrides the randomness source (tests). It must be cryptographically secure in production.
func WithRandom(r io.Reader) Option {
	return func(s *Service) {
		if r != nil {
			s.rand = r
		}
	}
}

// NewService builds a Service from cfg and the master secret.
// It fails on a missing/short secret or invalid config; both are fatal at startup.
func NewService(cfg Config, secret []byte, opts ...Option) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	puzzles, err := token.DeriveSigner(secret, puzzlePurpose)
	if err != nil {
		return nil, err
	}
	sessions, err := token.DeriveSigner(secret, sessionPurpose)
	if err != nil {
		return nil, err
	}

	s := &Service{
		cfg:      cfg,
		puzzles:  puzzles,
		sessions: sessions,
		now:      time.Now,
		rand:     rand.Reader,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s, nil
}

// Config returns the protocol parameters.
func (s *Service) Config() Config { return s.cfg }

// Now returns the service clock reading.
func (s *Service) Now() time.Time { return s.now() }
