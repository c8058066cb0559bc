package api

import (
	"context"
	"time"

	"altchagate/cmd/internal/audit"
)

func (h *Handler) auditVerifySuccess(ctx context.Context, ip, domain string, exp time.Time) {
	h.recordAudit(ctx, audit.ActionVerifySuccess, ip, domain, "", map[string]any{
		"expires_at": exp.Unix(),
	})
}

func (h *Handler) auditVerifyFailed(ctx context.Context, ip, domain, reason string) {
	h.recordAudit(ctx, audit.ActionVerifyFailed, ip, domain, reason, nil)
}

func (h *Handler) auditValidateFailed(ctx context.Context, ip, domain, reason string) {
	h.recordAudit(ctx, audit.ActionValidateFailed, ip, domain, reason, nil)
}

func (h *Handler) recordAudit(ctx context.Context, action, ip, domain, reason string, meta map[string]any) {
	if h == nil || h.audit == nil {
		return
	}
	h.audit.Record(ctx, audit.Event{
		Action:   action,
		ClientIP: ip,
		Domain:   domain,
		Reason:   reason,
		At:       h.svc.Now().UTC(),
		Meta:     meta,
	})
}
