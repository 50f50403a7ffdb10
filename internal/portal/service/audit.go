package service

import (
	"context"
	"log/slog"

	"github.com/copperfort/deskauth/internal/portal/domain"
	"github.com/copperfort/deskauth/internal/portal/store"
	"github.com/copperfort/deskauth/pkg/idx"
)

// RequestMeta carries the client metadata every audit row records.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// AuditService is the single write path to the audit trail. Storage failure
// of an audit write is logged but never masks the outcome being recorded.
type AuditService struct {
	Store  store.Store
	Logger *slog.Logger
	Clock  Clock
}

// Log writes one entry, assigning the id and timestamp.
func (s *AuditService) Log(ctx context.Context, e domain.AuditEntry) {
	e.ID = idx.New().String()
	e.CreatedAt = s.Clock.Now()
	if e.UserType == "" {
		e.UserType = domain.ActorSystem
	}

	if err := s.Store.AuditLogs().AppendAuditEntry(ctx, e); err != nil {
		s.Logger.Error("failed to write audit entry",
			"action", e.Action,
			"user_type", e.UserType,
			"error", err,
		)
	}
}

// LogPrincipal records an action attributed to a resolved principal.
func (s *AuditService) LogPrincipal(ctx context.Context, p domain.Principal, action string, success bool, reason string, meta RequestMeta) {
	e := domain.AuditEntry{
		Action:    action,
		IPAddress: meta.IP,
		UserAgent: meta.UserAgent,
		Success:   success,
	}

	id := p.PrincipalID()
	switch p.Kind() {
	case domain.PrincipalAdmin:
		e.UserType = domain.ActorAdmin
		e.AdminID = &id
	default:
		e.UserType = domain.ActorUser
		e.UserID = &id
	}

	if reason != "" {
		e.ErrorMessage = &reason
	}
	s.Log(ctx, e)
}

// LogAnonymous records an action with no resolved principal, keeping the
// attempted identifier in details.
func (s *AuditService) LogAnonymous(ctx context.Context, action string, success bool, reason string, details map[string]any, meta RequestMeta) {
	e := domain.AuditEntry{
		UserType:  domain.ActorSystem,
		Action:    action,
		Details:   details,
		IPAddress: meta.IP,
		UserAgent: meta.UserAgent,
		Success:   success,
	}
	if reason != "" {
		e.ErrorMessage = &reason
	}
	s.Log(ctx, e)
}
