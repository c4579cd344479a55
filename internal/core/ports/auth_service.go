package ports

import (
	"context"

	"github.com/leadbook/crm-system/internal/core/domain"
)

type AuthService interface {
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
}

// Authenticator verifies a bearer credential and yields the caller's identity.
type Authenticator interface {
	Authenticate(token string) (domain.UserIdentity, error)
}
