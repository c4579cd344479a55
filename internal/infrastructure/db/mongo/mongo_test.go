package mongo

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/leadbook/crm-system/internal/core/domain"
)

func TestUserDoc_ToDomain(t *testing.T) {
	owner := userDoc{UID: "U1", Name: "Alice", Email: "a@x.io", UserType: 1, Status: "Active"}.toDomain()
	if owner.Role != domain.RoleOwner || !owner.Active || owner.ID != "U1" || owner.Name != "Alice" {
		t.Fatalf("unexpected owner: %+v", owner)
	}

	member := userDoc{UID: "U2", UserType: 2, Status: "Inactive"}.toDomain()
	if member.Role != domain.RoleMember {
		t.Errorf("expected member role, got %s", member.Role)
	}
	if member.Active {
		t.Error("expected inactive user")
	}

	if !(userDoc{UID: "U3"}).toDomain().Active {
		t.Error("expected missing status to count as active")
	}
}

func TestLeadProductDoc_NumericLeadID(t *testing.T) {
	lp := leadProductDoc{LID: int32(42), PID: "P7", UID: "U2"}.toDomain()
	if lp.LeadID != "42" || lp.ProductID != "P7" || lp.AssigneeID != "U2" {
		t.Fatalf("unexpected lead product: %+v", lp)
	}
}

func TestAnyID(t *testing.T) {
	numeric := anyID("42")["$in"].(bson.A)
	if len(numeric) != 2 || numeric[0] != "42" || numeric[1] != int64(42) {
		t.Fatalf("expected string and number variants, got %v", numeric)
	}

	text := anyID("L-9")["$in"].(bson.A)
	if len(text) != 1 || text[0] != "L-9" {
		t.Fatalf("expected string only, got %v", text)
	}
}

func TestMarkRead_FilterScopesToTarget(t *testing.T) {
	oid := primitive.NewObjectID()
	filter := markReadFilter(oid, "M1")

	if filter["_id"] != oid {
		t.Fatalf("expected _id %s, got %v", oid.Hex(), filter["_id"])
	}
	if filter["targetUsers.uid"] != "M1" {
		t.Fatalf("filter must require the caller as a target, got %v", filter)
	}
	if len(filter) != 2 {
		t.Fatalf("unexpected filter keys: %v", filter)
	}
}

func TestMarkRead_UpdateIsPositionalSet(t *testing.T) {
	update := markReadUpdate()

	set, ok := update["$set"].(bson.M)
	if !ok || len(update) != 1 {
		t.Fatalf("expected a single $set, got %v", update)
	}
	if len(set) != 1 || set["targetUsers.$.hasRead"] != true {
		t.Fatalf("expected only the matched target's hasRead to change, got %v", set)
	}
}

func TestMarkRead_MatchedCount(t *testing.T) {
	cases := []struct {
		name string
		res  *mongo.UpdateResult
		want bool
	}{
		{"first read", &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, true},
		{"repeated read", &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 0}, true},
		{"not a target", &mongo.UpdateResult{}, false},
		{"no result", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := targetMatched(tc.res); got != tc.want {
				t.Errorf("targetMatched = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMarkRead_InvalidIDIsNoMatch(t *testing.T) {
	repo := &NotificationRepository{}

	ok, err := repo.MarkRead(context.Background(), "not-an-object-id", "M1")
	if err != nil || ok {
		t.Fatalf("expected (false, nil), got (%v, %v)", ok, err)
	}
}
