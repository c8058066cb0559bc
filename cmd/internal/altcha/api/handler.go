// Package api exposes the challenge, verify and validate endpoints over HTTP
// and serves the interstitial verification page.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"altchagate/cmd/internal/altcha"
	"altchagate/cmd/internal/audit"
	"altchagate/cmd/internal/metrics"
)

// Handler wires HTTP endpoints to the altcha protocol service.
type Handler struct {
	log *slog.Logger
	cfg Config

	svc     *altcha.Service
	metrics *metrics.Metrics
	audit   audit.Sink
}

// HandlerOption configures optional handler dependencies.
type HandlerOption func(*Handler)

// WithMetrics records protocol outcomes on m.
func WithMetrics(m *metrics.Metrics) HandlerOption {
	return func(h *Handler) {
		if h == nil || m == nil {
			return
		}
		h.metrics = m
	}
}

// WithAuditSink overrides the default no-op audit sink.
func WithAuditSink(sink audit.Sink) HandlerOption {
	return func(h *Handler) {
		if h == nil || sink == nil {
			return
		}
		h.audit = sink
	}
}

// NewHandler constructs a Handler around svc.
func NewHandler(log *slog.Logger, svc *altcha.Service, cfg Config, opts ...HandlerOption) (*Handler, error) {
	if svc == nil {
		return nil, errors.New("altcha api: nil service")
	}
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultConfig().MaxBodyBytes
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultConfig().CookieName
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = "/"
	}
	if cfg.PageTitle == "" {
		cfg.PageTitle = DefaultConfig().PageTitle
	}

	h := &Handler{
		log:   log,
		cfg:   cfg,
		svc:   svc,
		audit: audit.NopSink{},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(h)
	}
	return h, nil
}

// Register wires routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/api/challenge", h.handleChallenge)
	mux.HandleFunc("/api/verify", h.handleVerify)
	mux.HandleFunc("/api/validate", h.handleValidate)
	mux.HandleFunc("/{$}", h.handlePage)
}

// ---- handlers ----

func (h *Handler) handleChallenge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	p, err := h.svc.IssueChallenge()
	if err != nil {
		h.metrics.ChallengeFailed()
		h.log.Error("altcha.challenge.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	h.metrics.ChallengeIssued()
	h.log.Debug("altcha.challenge.issued",
		"challenge", shorten(p.Challenge),
		"salt", shorten(p.Salt),
		"max_number", p.MaxNumber,
	)
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	ip := clientIP(r, h.cfg.TrustProxy)
	domain := hostDomain(r)

	var req verifyRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		h.metrics.Verified("malformed")
		h.log.Warn("altcha.verify.fail", "ip", ip, "domain", domain, "reason", "invalid_json", "err", err)
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return
	}

	sol, err := altcha.DecodeSolution(req.Altcha)
	if err == nil {
		err = h.svc.Verify(sol)
	}
	if err != nil {
		reason := altcha.Reason(err)
		h.metrics.Verified(reason)
		h.log.Warn("altcha.verify.fail", "ip", ip, "domain", domain, "reason", reason, "err", err)
		h.auditVerifyFailed(r.Context(), ip, domain, reason)
		writeError(w, http.StatusBadRequest, "verification_failed", "Verification failed")
		return
	}

	tok, exp, err := h.svc.IssueToken(h.svc.Now(), ip, domain)
	if err != nil {
		reason := altcha.Reason(err)
		h.metrics.Verified(reason)
		if errors.Is(err, altcha.ErrInvalidBinding) {
			h.log.Warn("altcha.verify.fail", "ip", ip, "domain", domain, "reason", reason, "err", err)
			writeError(w, http.StatusBadRequest, "invalid_request", "request cannot be bound to a session")
			return
		}
		h.log.Error("altcha.verify.token.fail", "ip", ip, "domain", domain, "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	h.setSessionCookie(w, tok, domain)
	h.metrics.Verified("ok")
	h.log.Info("altcha.verify.ok", "ip", ip, "domain", domain, "expires_at", exp.Format(time.RFC3339))
	h.auditVerifySuccess(r.Context(), ip, domain, exp)

	writeJSON(w, http.StatusOK, verifyResponse{
		Status:  "verified",
		Message: "Verification successful",
	})
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	ip := clientIP(r, h.cfg.TrustProxy)
	domain := hostDomain(r)

	tok, ok := h.sessionFromCookie(r)
	if !ok {
		h.metrics.Validated("missing")
		h.log.Debug("altcha.validate.fail", "ip", ip, "domain", domain, "reason", "missing")
		writeError(w, http.StatusUnauthorized, "unauthorized", "verification required")
		return
	}

	if _, err := h.svc.CheckToken(h.svc.Now(), tok, ip, domain); err != nil {
		reason := altcha.Reason(err)
		h.metrics.Validated(reason)
		if errors.Is(err, altcha.ErrExpired) {
			h.log.Info("altcha.validate.fail", "ip", ip, "domain", domain, "reason", reason)
		} else {
			h.log.Warn("altcha.validate.fail", "ip", ip, "domain", domain, "reason", reason, "err", err)
			h.auditValidateFailed(r.Context(), ip, domain, reason)
		}
		writeError(w, http.StatusUnauthorized, "unauthorized", "verification required")
		return
	}

	h.metrics.Validated("ok")
	writeJSON(w, http.StatusOK, validateResponse{Status: "valid"})
}

func shorten(s string) string {
	if len(s) <= 8 {
		return s
	}
	return s[:8]
}
