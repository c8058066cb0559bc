// Package audit keeps an optional, append-only trail of verification outcomes.
//
// It stores events only (who verified, who was rejected and why). Puzzles and
// session credentials are never persisted; the protocol stays stateless.
package audit

import (
	"context"
	"time"
)

// Actions recorded by the API.
const (
	ActionVerifySuccess  = "altcha.verify.success"
	ActionVerifyFailed   = "altcha.verify.failed"
	ActionValidateFailed = "altcha.validate.failed"
)

// Event is one audit row.
type Event struct {
	ID       string
	Action   string
	ClientIP string
	Domain   string
	Reason   string
	At       time.Time
	Meta     map[string]any
}

// NopSink discards events; it is the default when no database is configured.
type NopSink struct{}

// Record is a no-op.
func (NopSink) Record(_ context.Context, _ Event) {}
