package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/leadbook/crm-system/internal/core/domain"
)

const (
	collectionLeads        = "Leads"
	collectionProducts     = "Products"
	collectionLeadProducts = "LeadProducts"
)

// CRMRepository reads leads, products and their pairings. These collections
// belong to the CRUD side of the CRM and are read-only here.
type CRMRepository struct {
	leads        *mongo.Collection
	products     *mongo.Collection
	leadProducts *mongo.Collection
}

func NewCRMRepository(db *mongo.Database) *CRMRepository {
	return &CRMRepository{
		leads:        db.Collection(collectionLeads),
		products:     db.Collection(collectionProducts),
		leadProducts: db.Collection(collectionLeadProducts),
	}
}

type leadDoc struct {
	Name string `bson:"name"`
}

type productDoc struct {
	PID  string `bson:"PID"`
	Name string `bson:"pName"`
}

// leadProductDoc keeps LID raw: it is numeric in most documents and a string
// in imported ones.
type leadProductDoc struct {
	LID any    `bson:"LID"`
	PID string `bson:"PID"`
	UID string `bson:"UID"`
}

func (d leadProductDoc) toDomain() domain.LeadProduct {
	return domain.LeadProduct{
		LeadID:     fmt.Sprint(d.LID),
		ProductID:  d.PID,
		AssigneeID: d.UID,
	}
}

func (r *CRMRepository) FindLead(ctx context.Context, leadID string) (*domain.Lead, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d leadDoc
	if err := r.leads.FindOne(ctx, bson.M{"LID": anyID(leadID)}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrLeadNotFound
		}
		return nil, fmt.Errorf("find lead: %w", err)
	}
	if d.Name == "" {
		return nil, domain.ErrLeadNotFound
	}
	return &domain.Lead{ID: leadID, Name: d.Name}, nil
}

func (r *CRMRepository) FindProduct(ctx context.Context, productID string) (*domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d productDoc
	if err := r.products.FindOne(ctx, bson.M{"PID": productID}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	if d.Name == "" {
		return nil, domain.ErrProductNotFound
	}
	return &domain.Product{ID: d.PID, Name: d.Name}, nil
}

func (r *CRMRepository) FindLeadProduct(ctx context.Context, leadID, productID string) (*domain.LeadProduct, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d leadProductDoc
	err := r.leadProducts.FindOne(ctx, bson.M{"LID": anyID(leadID), "PID": productID}).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrLeadProductNotFound
		}
		return nil, fmt.Errorf("find lead product: %w", err)
	}
	lp := d.toDomain()
	return &lp, nil
}

func (r *CRMRepository) ListLeadProducts(ctx context.Context, leadID string) ([]domain.LeadProduct, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.leadProducts.Find(ctx, bson.M{"LID": anyID(leadID)})
	if err != nil {
		return nil, fmt.Errorf("list lead products: %w", err)
	}
	defer cur.Close(ctx)

	var docs []leadProductDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode lead products: %w", err)
	}

	out := make([]domain.LeadProduct, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}
