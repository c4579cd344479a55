package ports

import (
	"context"

	"github.com/leadbook/crm-system/internal/core/domain"
)

// UserRepository reads accounts owned by the user-management subsystem.
type UserRepository interface {
	FindAll(ctx context.Context) ([]domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}
