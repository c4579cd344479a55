package ports

import (
	"context"

	"github.com/leadbook/crm-system/internal/core/domain"
)

// CRMRepository resolves the lead and product records referenced by events
// and reminders. Missing records are reported with the domain not-found errors.
type CRMRepository interface {
	FindLead(ctx context.Context, leadID string) (*domain.Lead, error)
	FindProduct(ctx context.Context, productID string) (*domain.Product, error)
	FindLeadProduct(ctx context.Context, leadID, productID string) (*domain.LeadProduct, error)
	// ListLeadProducts returns every product pairing of a lead; empty when none.
	ListLeadProducts(ctx context.Context, leadID string) ([]domain.LeadProduct, error)
}
