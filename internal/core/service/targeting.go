package service

import (
	"fmt"

	"github.com/leadbook/crm-system/internal/core/domain"
)

// Facts carries the records the notification service looked up before
// resolution, keeping the resolver free of I/O.
type Facts struct {
	// LeadProduct is the pairing a follow-up was logged against.
	LeadProduct *domain.LeadProduct
	// ProductName labels lead-product assignments.
	ProductName string
	// LeadAssignees are the users working any product of an edited lead.
	LeadAssignees []string
}

// Draft is a notification ready to be persisted.
type Draft struct {
	Kind         domain.EventKind
	Targets      []string
	SubjectLabel string
	RouteHint    string
}

// kinds names the notification emitted for each branch of the routing rule.
type kinds struct {
	primary domain.EventKind // to the relevant party
	review  domain.EventKind // to owners, when a member acted for someone else or nobody
	echo    domain.EventKind // to owners, when a member acted for themselves
}

func sameKind(k domain.EventKind) kinds { return kinds{primary: k, review: k, echo: k} }

// TargetResolver computes notification audiences. It is pure: the same actor,
// event, facts and directory snapshot always yield the same drafts.
type TargetResolver struct{}

// Resolve returns the drafts an event produces. An empty result means nobody
// is to be notified. A missing fact is reported as the matching not-found error.
func (TargetResolver) Resolve(actor domain.UserIdentity, ev domain.Event, facts Facts, users []domain.UserIdentity) ([]Draft, error) {
	dir := newSnapshot(users)

	switch e := ev.(type) {
	case domain.NewLead:
		return dir.route(actor, e.AssigneeID, kinds{
			primary: domain.KindNewLead,
			review:  domain.KindNewLeadForOwnerReview,
			echo:    domain.KindNewLeadForOwnerReview,
		}, e.LeadName, domain.RouteLeads), nil

	case domain.FollowUpAdded:
		if facts.LeadProduct == nil {
			return nil, fmt.Errorf("resolve %s: %w", e.Name(), domain.ErrLeadProductNotFound)
		}
		kind := domain.KindFollowUpAdded
		if e.HasNextStep() {
			kind = domain.KindFollowUpWithNextStep
		}
		label := e.LeadID + "-" + e.ProductID
		return dir.route(actor, facts.LeadProduct.AssigneeID, sameKind(kind), label, domain.RouteLeads), nil

	case domain.LeadProductAssigned:
		if facts.ProductName == "" {
			return nil, fmt.Errorf("resolve %s: %w", e.Name(), domain.ErrProductNotFound)
		}
		label := fmt.Sprintf("Lead %s-%s", e.LeadID, facts.ProductName)
		return dir.route(actor, e.AssigneeID, kinds{
			primary: domain.KindLeadProductAssigned,
			review:  domain.KindLeadProductAssignedOwnerReview,
			echo:    domain.KindLeadProductAssignedEcho,
		}, label, domain.RouteLeads), nil

	case domain.LeadEdited:
		targets := without(facts.LeadAssignees, actor.ID)
		if !actor.IsOwner() {
			targets = append(targets, dir.owners(actor.ID)...)
		}
		return compact(Draft{
			Kind:         domain.KindLeadEdited,
			Targets:      targets,
			SubjectLabel: e.LeadName,
			RouteHint:    domain.RouteLeads,
		}), nil

	case domain.TaskAssigned:
		return dir.route(actor, e.AssigneeID, sameKind(domain.KindTaskAssigned), e.Title, domain.RouteTasks), nil

	case domain.TaskEdited:
		return dir.route(actor, e.AssigneeID, sameKind(domain.KindTaskEdited), e.Title, domain.RouteTasks), nil

	case domain.FollowUpEdited:
		k := kinds{
			primary: domain.KindFollowUpEdited,
			review:  domain.KindFollowUpEditedForOwnerReview,
			echo:    domain.KindFollowUpEditedForOwnerReview,
		}
		if e.Reassigned() {
			k.primary = domain.KindFollowUpReassigned
		}
		label := e.LeadID + "-" + e.ProductID
		return dir.route(actor, e.AssigneeID, k, label, domain.RouteLeads), nil

	case domain.ProductAdded:
		return compact(Draft{
			Kind:         domain.KindNewProduct,
			Targets:      dir.everyone(actor.ID),
			SubjectLabel: e.ProductName,
			RouteHint:    domain.RouteProducts,
		}), nil

	case domain.ProductEdited:
		return compact(Draft{
			Kind:         domain.KindProductEdited,
			Targets:      dir.everyone(actor.ID),
			SubjectLabel: e.ProductName,
			RouteHint:    domain.RouteProducts,
		}), nil

	case domain.UserAdded:
		return compact(Draft{
			Kind:         domain.KindNewUser,
			Targets:      without(dir.owners(actor.ID), e.UserID),
			SubjectLabel: e.UserName,
			RouteHint:    domain.RouteUsers,
		}), nil

	case domain.UserEdited:
		return dir.route(actor, e.UserID, sameKind(domain.KindUserEdited), e.UserName, domain.RouteUsers), nil
	}

	return nil, fmt.Errorf("resolve: unsupported event %T", ev)
}

// snapshot indexes the directory for one resolution.
type snapshot struct {
	users []domain.UserIdentity
	byID  map[string]domain.UserIdentity
}

func newSnapshot(users []domain.UserIdentity) snapshot {
	byID := make(map[string]domain.UserIdentity, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return snapshot{users: users, byID: byID}
}

func (s snapshot) owners(except string) []string {
	var out []string
	for _, u := range s.users {
		if u.IsOwner() && u.ID != except {
			out = append(out, u.ID)
		}
	}
	return out
}

func (s snapshot) everyone(except string) []string {
	var out []string
	for _, u := range s.users {
		if u.ID != except {
			out = append(out, u.ID)
		}
	}
	return out
}

// isOwner treats users missing from a stale snapshot as members.
func (s snapshot) isOwner(id string) bool {
	u, ok := s.byID[id]
	return ok && u.IsOwner()
}

// route applies the common rule for an action concerning party.
//
// Owner actor: self-assignment is silent, otherwise only the party hears.
// Member actor: an owner party hears alone; acting for oneself reaches all
// owners as an echo; acting for another member notifies that member and sends
// an owner-review copy to all owners.
func (s snapshot) route(actor domain.UserIdentity, party string, k kinds, label, hint string) []Draft {
	draft := func(kind domain.EventKind, targets []string) Draft {
		return Draft{Kind: kind, Targets: targets, SubjectLabel: label, RouteHint: hint}
	}

	if actor.IsOwner() {
		if party == "" || party == actor.ID {
			return nil
		}
		return compact(draft(k.primary, []string{party}))
	}

	switch {
	case party == "":
		return compact(draft(k.review, s.owners(actor.ID)))
	case party == actor.ID:
		return compact(draft(k.echo, s.owners(actor.ID)))
	case s.isOwner(party):
		return compact(draft(k.primary, []string{party}))
	default:
		return compact(
			draft(k.primary, []string{party}),
			draft(k.review, s.owners(actor.ID)),
		)
	}
}

// compact deduplicates targets and drops drafts nobody would receive.
func compact(drafts ...Draft) []Draft {
	out := make([]Draft, 0, len(drafts))
	for _, d := range drafts {
		d.Targets = unique(d.Targets)
		if len(d.Targets) == 0 {
			continue
		}
		out = append(out, d)
	}
	return out
}

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func without(ids []string, drop string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}
