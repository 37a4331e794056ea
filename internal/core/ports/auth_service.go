package ports

import (
	"context"

	"github.com/estatehub/marketplace-api/internal/core/domain"
)

// AuthService issues credentials. The gateway core only verifies tokens;
// issuance lives here so the role claim is fixed at login time.
type AuthService interface {
	Register(ctx context.Context, email, password, name string, role domain.Role) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
}
