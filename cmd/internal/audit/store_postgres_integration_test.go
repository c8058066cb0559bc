package audit

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"altchagate/cmd/internal/ids"

	"github.com/jackc/pgx/v5/pgxpool"
)

func mustOpenAuditTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("ALTCHA_TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("ALTCHA_TEST_DATABASE_URL not set; skipping Postgres integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pgxpool.New: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Fatalf("ping: %v", err)
	}
	return pool
}

func TestPostgresSink_RecordAndCount(t *testing.T) {
	pool := mustOpenAuditTestPool(t)
	defer pool.Close()

	sink, err := NewPostgresSink(pool, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewPostgresSink: %v", err)
	}
	ctx := context.Background()
	if err := sink.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	// A unique action keeps the count isolated from other runs.
	action := "altcha.test." + strings.ToLower(mustULID(t))
	since := time.Now().UTC().Add(-time.Second)
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM altcha.audit_log WHERE action = $1`, action)
	})

	sink.Record(ctx, Event{Action: action, ClientIP: "203.0.113.7", Domain: "d", Reason: "proof"})
	sink.Record(ctx, Event{Action: action, ClientIP: "2001:db8::1", Domain: "d", Meta: map[string]any{"n": 1}})
	sink.Record(ctx, Event{Action: "   "})

	n, err := sink.CountSince(ctx, action, since)
	if err != nil {
		t.Fatalf("CountSince: %v", err)
	}
	if n != 2 {
		t.Fatalf("count=%d want 2", n)
	}
}

func TestPostgresSink_RecordSurvivesCancelledRequest(t *testing.T) {
	pool := mustOpenAuditTestPool(t)
	defer pool.Close()

	sink, err := NewPostgresSink(pool, nil)
	if err != nil {
		t.Fatalf("NewPostgresSink: %v", err)
	}
	if err := sink.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	action := "altcha.test." + strings.ToLower(mustULID(t))
	since := time.Now().UTC().Add(-time.Second)
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM altcha.audit_log WHERE action = $1`, action)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink.Record(ctx, Event{Action: action})

	n, err := sink.CountSince(context.Background(), action, since)
	if err != nil {
		t.Fatalf("CountSince: %v", err)
	}
	if n != 1 {
		t.Fatalf("count=%d want 1", n)
	}
}

func TestNewPostgresSink_NilPool(t *testing.T) {
	if _, err := NewPostgresSink(nil, nil); err == nil {
		t.Fatalf("expected error for nil pool")
	}
}

func mustULID(t *testing.T) string {
	t.Helper()
	id, err := ids.NewULID(time.Now())
	if err != nil {
		t.Fatalf("NewULID: %v", err)
	}
	return id
}
