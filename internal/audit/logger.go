package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"org-access-api/backend/internal/audit/domain"
	auditrepo "org-access-api/backend/internal/audit/repository"
)

// SentinelOrgID is the org_id used for audit events that address no organisation (e.g. login, user reads).
const SentinelOrgID = "_system"

// IPExtractor returns the client IP from the request context.
type IPExtractor func(context.Context) string

// AuditLogger writes a single audit event with explicit action/resource.
// LogEvent is best-effort: failures are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, orgID, userID, action, resource, metadata string)
}

// Logger implements AuditLogger by writing a zap entry and persisting to the audit writer.
type Logger struct {
	repo        auditrepo.Writer
	log         *zap.Logger
	ipExtractor IPExtractor
	now         func() time.Time
}

// NewLogger returns a Logger. repo may be nil (zap only); log may be nil (persist only).
// ipExtractor may be nil; then ClientIP is used.
func NewLogger(repo auditrepo.Writer, log *zap.Logger, ipExtractor IPExtractor) *Logger {
	if log == nil {
		log = zap.NewNop()
	}
	if ipExtractor == nil {
		ipExtractor = ClientIP
	}
	return &Logger{repo: repo, log: log, ipExtractor: ipExtractor, now: time.Now}
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, orgID, userID, action, resource, metadata string) {
	if orgID == "" {
		orgID = SentinelOrgID
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		OrgID:     orgID,
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		IP:        l.ipExtractor(ctx),
		Metadata:  metadata,
		CreatedAt: l.now().UTC(),
	}
	l.log.Info("audit",
		zap.Bool("audit", true),
		zap.String("org_id", entry.OrgID),
		zap.String("user_id", entry.UserID),
		zap.String("action", entry.Action),
		zap.String("resource", entry.Resource),
		zap.String("ip", entry.IP),
		zap.String("metadata", entry.Metadata),
	)
	if l.repo == nil {
		return
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		l.log.Warn("audit: failed to persist event",
			zap.String("action", action),
			zap.String("resource", resource),
			zap.Error(err),
		)
	}
}

type ipKey struct{}

// WithClientIP returns ctx carrying the client IP for ClientIP.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ipKey{}, ip)
}

// ClientIP returns the IP stored by WithClientIP, or "unknown".
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ipKey{}).(string); ok && ip != "" {
		return ip
	}
	return "unknown"
}
