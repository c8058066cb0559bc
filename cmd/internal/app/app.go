// Package app wires the altchagate runtime: config, logging, HTTP routes, metrics and the audit store.
//
// It is intentionally small and deterministic to keep CI gates strict and behavior predictable.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"altchagate/cmd/internal/altcha"
	"altchagate/cmd/internal/altcha/api"
	"altchagate/cmd/internal/audit"
	"altchagate/cmd/internal/metrics"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is a small app-level lifecycle abstraction.
// It exists to allow DB-backed resources to be closed gracefully.
type Store interface {
	Close(ctx context.Context) error
}

// nopStore is used when no database is configured.
type nopStore struct{}

func (nopStore) Close(_ context.Context) error { return nil }

// App is the altchagate runtime: it owns HTTP server wiring and the protocol service.
type App struct {
	cfg Config
	log Logger

	store Store

	dbPool    *pgxpool.Pool
	dbEnabled bool

	metrics *metrics.Metrics
	altcha  *api.Handler
}

// New constructs a fully wired App instance from config and logger.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg)
	}

	secret, err := ValidateSecurityConfig(cfg)
	if err != nil {
		return nil, err
	}

	altchaCfg, err := altcha.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	svc, err := altcha.NewService(altchaCfg, secret)
	if err != nil {
		return nil, err
	}

	st, dbPool, dbEnabled, sink, err := newStore(context.Background(), cfg, log)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	handler, err := api.NewHandler(log, svc, api.LoadConfigFromEnv(),
		api.WithMetrics(m),
		api.WithAuditSink(sink),
	)
	if err != nil {
		_ = st.Close(context.Background())
		return nil, err
	}

	log.Info("altcha.config",
		"max_number", altchaCfg.MaxNumber,
		"token_ttl", altchaCfg.TokenTTL.String(),
	)

	return &App{
		cfg:       cfg,
		log:       log,
		store:     st,
		dbPool:    dbPool,
		dbEnabled: dbEnabled,
		metrics:   m,
		altcha:    handler,
	}, nil
}

// Handler returns the full middleware-wrapped HTTP handler.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.dbEnabled, a.metrics, a.altcha)

	var h http.Handler = mux
	h = WithSecurityHeaders(h)
	h = WithCORS(h, a.cfg, a.log)
	h = WithRequestLogging(h, a.log, a.metrics)
	return h
}

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		_ = a.store.Close(context.Background())
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	if err := a.store.Close(shutdownCtx); err != nil {
		a.log.Error("store.close.fail", "err", err)
	}

	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// newStore decides between the Postgres audit trail and no persistence at all.
func newStore(ctx context.Context, cfg Config, log Logger) (Store, *pgxpool.Pool, bool, audit.Sink, error) {
	if cfg.DatabaseURL == "" {
		log.Info("db.disabled.audit_off")
		return nopStore{}, nil, false, audit.NopSink{}, nil
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return nil, nil, false, nil, err
	}

	sink, err := audit.NewPostgresSink(pool, log)
	if err != nil {
		pool.Close()
		return nil, nil, false, nil, err
	}

	schemaCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sink.EnsureSchema(schemaCtx); err != nil {
		pool.Close()
		return nil, nil, false, nil, err
	}

	log.Info("db.enabled.postgres_audit")
	return dbStore{pool: pool}, pool, true, sink, nil
}

// dbStore owns the pool lifecycle; the audit sink only borrows it.
type dbStore struct {
	pool *pgxpool.Pool
}

func (s dbStore) Close(_ context.Context) error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
