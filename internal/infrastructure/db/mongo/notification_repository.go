package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/leadbook/crm-system/internal/core/domain"
	"github.com/leadbook/crm-system/internal/core/ports"
)

const collectionNotifications = "Notifications"

// NotificationRepository implements ports.NotificationRepository using MongoDB.
type NotificationRepository struct {
	col *mongo.Collection
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{col: db.Collection(collectionNotifications)}
}

var _ ports.NotificationRepository = (*NotificationRepository)(nil)

// notificationDoc keeps the field names the web client already reads.
type notificationDoc struct {
	ID           primitive.ObjectID          `bson:"_id,omitempty"`
	EventKind    string                      `bson:"eventType"`
	OccurredAt   time.Time                   `bson:"time"`
	ActorID      string                      `bson:"sentBy"`
	SubjectLabel string                      `bson:"keyword"`
	RouteHint    string                      `bson:"redirect"`
	Targets      []domain.NotificationTarget `bson:"targetUsers"`
}

func (d notificationDoc) toDomain() domain.Notification {
	return domain.Notification{
		ID:           d.ID.Hex(),
		EventKind:    domain.EventKind(d.EventKind),
		OccurredAt:   d.OccurredAt.UTC(),
		ActorID:      d.ActorID,
		SubjectLabel: d.SubjectLabel,
		RouteHint:    d.RouteHint,
		Targets:      d.Targets,
	}
}

// Insert appends a notification. Notifications without targets are rejected.
func (r *NotificationRepository) Insert(ctx context.Context, n *domain.Notification) (string, error) {
	if len(n.Targets) == 0 {
		return "", domain.ErrEmptyTargets
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := notificationDoc{
		ID:           primitive.NewObjectID(),
		EventKind:    string(n.EventKind),
		OccurredAt:   n.OccurredAt.UTC(),
		ActorID:      n.ActorID,
		SubjectLabel: n.SubjectLabel,
		RouteHint:    n.RouteHint,
		Targets:      n.Targets,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("insert notification: %w", err)
	}
	return doc.ID.Hex(), nil
}

// MarkRead sets hasRead on the caller's target through the positional
// operator, leaving every other target untouched.
func (r *NotificationRepository) MarkRead(ctx context.Context, notificationID, userID string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(notificationID)
	if err != nil {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, markReadFilter(oid, userID), markReadUpdate())
	if err != nil {
		return false, fmt.Errorf("mark read: %w", err)
	}
	return targetMatched(res), nil
}

// markReadFilter only matches a notification that lists userID as a target,
// so other users can never flip a read flag.
func markReadFilter(oid primitive.ObjectID, userID string) bson.M {
	return bson.M{"_id": oid, "targetUsers.uid": userID}
}

// markReadUpdate sets the flag on the target the filter matched. Setting it
// twice leaves the document as it was.
func markReadUpdate() bson.M {
	return bson.M{"$set": bson.M{"targetUsers.$.hasRead": true}}
}

// targetMatched reports success on a match even when nothing was modified,
// which is the repeated-read case.
func targetMatched(res *mongo.UpdateResult) bool {
	return res != nil && res.MatchedCount > 0
}

// ListForUser returns the user's notifications, newest first.
func (r *NotificationRepository) ListForUser(ctx context.Context, f ports.ListNotificationsFilter) ([]domain.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	match := bson.M{"uid": f.UserID}
	if f.UnreadOnly {
		match["hasRead"] = false
	}
	filter := bson.M{"targetUsers": bson.M{"$elemMatch": match}}

	opts := options.Find().
		SetSort(bson.D{{Key: "time", Value: -1}}).
		SetLimit(int64(f.Limit))

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer cur.Close(ctx)

	var docs []notificationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}

	out := make([]domain.Notification, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// EnsureIndexes creates the indexes backing the per-user pull query.
func (r *NotificationRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "targetUsers.uid", Value: 1}, {Key: "time", Value: -1}}},
		{Keys: bson.D{{Key: "sentBy", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
