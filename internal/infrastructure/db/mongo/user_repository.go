package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/leadbook/crm-system/internal/core/domain"
)

const collectionUsers = "Users"

// userTypeOwner marks administrators in the user documents.
const userTypeOwner = 1

// UserRepository reads accounts from the Users collection. The collection is
// owned by the user-management side of the CRM; this service never writes to it.
type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

type userDoc struct {
	UID      string `bson:"UID"`
	Name     string `bson:"uName"`
	Email    string `bson:"email"`
	Password string `bson:"password"`
	UserType int    `bson:"userType"`
	Status   string `bson:"uStatus"`
}

func (d userDoc) toDomain() domain.User {
	role := domain.RoleMember
	if d.UserType == userTypeOwner {
		role = domain.RoleOwner
	}
	return domain.User{
		UserIdentity: domain.UserIdentity{
			ID:    d.UID,
			Name:  d.Name,
			Role:  role,
			Email: d.Email,
		},
		PasswordHash: d.Password,
		Active:       d.Status == "" || strings.EqualFold(d.Status, "active"),
	}
}

// FindAll returns every user. Used to build the directory snapshot.
func (r *UserRepository) FindAll(ctx context.Context) ([]domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"UID": bson.M{"$exists": true}})
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	users := make([]domain.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.toDomain())
	}
	return users, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"UID": id})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d userDoc
	if err := r.col.FindOne(ctx, filter).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	u := d.toDomain()
	return &u, nil
}
