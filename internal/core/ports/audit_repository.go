package ports

import (
	"context"

	"github.com/estatehub/marketplace-api/internal/core/domain"
)

// AuditRepository persists moderation audit records.
type AuditRepository interface {
	Record(ctx context.Context, entry domain.ModerationAudit) error
}
