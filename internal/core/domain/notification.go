package domain

import (
	"errors"
	"time"
)

// EventKind identifies what a notification is about. The set is closed.
type EventKind string

const (
	KindNewLead                        EventKind = "new-lead"
	KindNewLeadForOwnerReview          EventKind = "new-lead-for-owner-review"
	KindFollowUpAdded                  EventKind = "follow-up-added"
	KindFollowUpWithNextStep           EventKind = "follow-up-with-next-step"
	KindLeadProductAssigned            EventKind = "lead-product-assigned"
	KindLeadProductAssignedEcho        EventKind = "lead-product-assigned-echo"
	KindLeadProductAssignedOwnerReview EventKind = "lead-product-assigned-for-owner-review"
	KindLeadEdited                     EventKind = "lead-edited"
	KindTaskAssigned                   EventKind = "task-assigned"
	KindTaskEdited                     EventKind = "task-edited"
	KindFollowUpEdited                 EventKind = "follow-up-edited"
	KindFollowUpEditedForOwnerReview   EventKind = "follow-up-edited-for-owner-review"
	KindFollowUpReassigned             EventKind = "follow-up-reassigned"
	KindNewProduct                     EventKind = "new-product"
	KindProductEdited                  EventKind = "product-edited"
	KindNewUser                        EventKind = "new-user"
	KindUserEdited                     EventKind = "user-edited"
)

// Route hints tell the client which screen a notification opens.
const (
	RouteLeads    = "leads"
	RouteProducts = "products"
	RouteTasks    = "tasks"
	RouteUsers    = "users"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrEmptyTargets         = errors.New("notification has no targets")
)

// NotificationTarget is a recipient and its read state.
type NotificationTarget struct {
	UserID  string `json:"uid" bson:"uid"`
	HasRead bool   `json:"hasRead" bson:"hasRead"`
}

// Notification is the persisted, auditable record of one triggering action.
// Only Targets[i].HasRead changes after creation.
type Notification struct {
	ID           string               `json:"id"`
	EventKind    EventKind            `json:"eventKind"`
	OccurredAt   time.Time            `json:"occurredAt"`
	ActorID      string               `json:"actorId"`
	SubjectLabel string               `json:"subjectLabel"`
	RouteHint    string               `json:"routeHint"`
	Targets      []NotificationTarget `json:"targets"`
}

// TargetIDs returns the recipient user IDs in order.
func (n *Notification) TargetIDs() []string {
	ids := make([]string, len(n.Targets))
	for i, t := range n.Targets {
		ids[i] = t.UserID
	}
	return ids
}

// NewTargets builds unread targets for the given user IDs.
func NewTargets(userIDs ...string) []NotificationTarget {
	out := make([]NotificationTarget, 0, len(userIDs))
	for _, id := range userIDs {
		out = append(out, NotificationTarget{UserID: id})
	}
	return out
}
