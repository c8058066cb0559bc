package audit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"altchagate/cmd/internal/ids"

	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultInsertTimeout = 2 * time.Second

const schemaSQL = `
CREATE SCHEMA IF NOT EXISTS altcha;
CREATE TABLE IF NOT EXISTS altcha.audit_log (
	id         text PRIMARY KEY,
	action     text NOT NULL,
	created_at timestamptz NOT NULL,
	ip         text,
	domain     text,
	reason     text,
	meta       jsonb
);
CREATE INDEX IF NOT EXISTS audit_log_action_created_idx ON altcha.audit_log (action, created_at);
`

// PostgresSink writes events to altcha.audit_log.
// The app owns the pool lifecycle.
type PostgresSink struct {
	pool    *pgxpool.Pool
	log     *slog.Logger
	timeout time.Duration
}

// NewPostgresSink builds a sink over pool.
func NewPostgresSink(pool *pgxpool.Pool, log *slog.Logger) (*PostgresSink, error) {
	if pool == nil {
		return nil, errors.New("audit: nil db pool")
	}
	if log == nil {
		log = slog.Default()
	}
	return &PostgresSink{pool: pool, log: log, timeout: defaultInsertTimeout}, nil
}

// EnsureSchema creates the audit schema and table when missing.
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaSQL)
	return err
}

// Record inserts ev. Failures are logged, never returned.
// The insert outlives request cancellation but is bounded by the sink timeout.
func (s *PostgresSink) Record(ctx context.Context, ev Event) {
	if s == nil || s.pool == nil {
		return
	}

	action := strings.TrimSpace(ev.Action)
	if action == "" {
		return
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	id := ev.ID
	if id == "" {
		var err error
		if id, err = ids.NewULID(at); err != nil {
			s.log.Error("audit.id.fail", "err", err, "action", action)
			return
		}
	}

	var metaVal *string
	if len(ev.Meta) > 0 {
		if b, err := json.Marshal(ev.Meta); err == nil {
			m := string(b)
			metaVal = &m
		}
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO altcha.audit_log (
			id, action, created_at, ip, domain, reason, meta
		) VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb)
	`, id, action, at, trimOrNil(ev.ClientIP), trimOrNil(ev.Domain), trimOrNil(ev.Reason), metaVal)
	if err != nil {
		s.log.Error("audit.insert.fail", "err", err, "action", action)
	}
}

// CountSince returns how many events with action were recorded at or after since.
func (s *PostgresSink) CountSince(ctx context.Context, action string, since time.Time) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM altcha.audit_log
		WHERE action = $1
		  AND created_at >= $2
	`, action, since).Scan(&n)
	return n, err
}

func trimOrNil(s string) any {
	v := strings.TrimSpace(s)
	if v == "" {
		return nil
	}
	return v
}
