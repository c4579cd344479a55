package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/leadbook/crm-system/internal/core/domain"
	"github.com/leadbook/crm-system/internal/core/ports"
)

// stubCRM is shared with the reminder scheduler tests.
type stubCRM struct {
	leads        map[string]string
	products     map[string]string
	leadProducts []domain.LeadProduct
	err          error
}

func (c *stubCRM) FindLead(_ context.Context, id string) (*domain.Lead, error) {
	if c.err != nil {
		return nil, c.err
	}
	name, ok := c.leads[id]
	if !ok {
		return nil, domain.ErrLeadNotFound
	}
	return &domain.Lead{ID: id, Name: name}, nil
}

func (c *stubCRM) FindProduct(_ context.Context, id string) (*domain.Product, error) {
	if c.err != nil {
		return nil, c.err
	}
	name, ok := c.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &domain.Product{ID: id, Name: name}, nil
}

func (c *stubCRM) FindLeadProduct(_ context.Context, leadID, productID string) (*domain.LeadProduct, error) {
	if c.err != nil {
		return nil, c.err
	}
	for _, lp := range c.leadProducts {
		if lp.LeadID == leadID && lp.ProductID == productID {
			lp := lp
			return &lp, nil
		}
	}
	return nil, domain.ErrLeadProductNotFound
}

func (c *stubCRM) ListLeadProducts(_ context.Context, leadID string) ([]domain.LeadProduct, error) {
	if c.err != nil {
		return nil, c.err
	}
	var out []domain.LeadProduct
	for _, lp := range c.leadProducts {
		if lp.LeadID == leadID {
			out = append(out, lp)
		}
	}
	return out, nil
}

type stubDirectory struct {
	users      []domain.UserIdentity
	refreshed  int
	refreshErr error
}

func (d *stubDirectory) Refresh(context.Context) error {
	d.refreshed++
	return d.refreshErr
}

func (d *stubDirectory) All() []domain.UserIdentity { return d.users }

func (d *stubDirectory) Owners() []domain.UserIdentity {
	var out []domain.UserIdentity
	for _, u := range d.users {
		if u.Role == domain.RoleOwner {
			out = append(out, u)
		}
	}
	return out
}

func (d *stubDirectory) BuiltAt() time.Time { return time.Time{} }

func (d *stubDirectory) Get(id string) (domain.UserIdentity, bool) {
	for _, u := range d.users {
		if u.ID == id {
			return u, true
		}
	}
	return domain.UserIdentity{}, false
}

// journal records inserts and publishes in the order they happen.
type journal struct {
	steps []string
}

type stubNotificationRepo struct {
	j         *journal
	inserted  []*domain.Notification
	insertErr error
	lastList  ports.ListNotificationsFilter
}

func (r *stubNotificationRepo) Insert(_ context.Context, n *domain.Notification) (string, error) {
	if r.insertErr != nil {
		return "", r.insertErr
	}
	id := "N" + strconv.Itoa(len(r.inserted)+1)
	r.inserted = append(r.inserted, n)
	r.j.steps = append(r.j.steps, "insert:"+id)
	return id, nil
}

func (r *stubNotificationRepo) MarkRead(_ context.Context, id, uid string) (bool, error) {
	return id == "N1" && uid == "M1", nil
}

func (r *stubNotificationRepo) ListForUser(_ context.Context, f ports.ListNotificationsFilter) ([]domain.Notification, error) {
	r.lastList = f
	return nil, nil
}

type recordingPublisher struct {
	j         *journal
	published []*domain.Notification
}

func (p *recordingPublisher) Publish(n *domain.Notification) {
	p.published = append(p.published, n)
	p.j.steps = append(p.j.steps, "publish:"+n.ID)
}

type notificationFixture struct {
	svc  ports.NotificationService
	repo *stubNotificationRepo
	pub  *recordingPublisher
	dir  *stubDirectory
	crm  *stubCRM
	j    *journal
}

func newNotificationFixture() *notificationFixture {
	j := &journal{}
	f := &notificationFixture{
		repo: &stubNotificationRepo{j: j},
		pub:  &recordingPublisher{j: j},
		dir:  &stubDirectory{users: everybody},
		crm: &stubCRM{
			leads:    map[string]string{"42": "ACME"},
			products: map[string]string{"P1": "GIS Suite"},
			leadProducts: []domain.LeadProduct{
				{LeadID: "42", ProductID: "P1", AssigneeID: ownerA.ID},
				{LeadID: "42", ProductID: "P2", AssigneeID: memberN.ID},
			},
		},
		j: j,
	}
	f.svc = NewNotificationService(f.repo, f.crm, f.dir, f.pub, zerolog.Nop())
	return f
}

func TestHandle_OwnerCreatesLeadForMember(t *testing.T) {
	f := newNotificationFixture()
	at := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	err := f.svc.Handle(context.Background(), ports.LiveEventInput{
		Actor:      ownerA,
		Event:      domain.NewLead{LeadName: "ACME", AssigneeID: memberM.ID},
		ReceivedAt: at,
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(f.repo.inserted) != 1 {
		t.Fatalf("inserted %d notifications, want 1", len(f.repo.inserted))
	}
	n := f.repo.inserted[0]
	if n.EventKind != domain.KindNewLead {
		t.Errorf("kind = %q", n.EventKind)
	}
	if len(n.Targets) != 1 || n.Targets[0].UserID != memberM.ID || n.Targets[0].HasRead {
		t.Errorf("targets = %+v", n.Targets)
	}
	if n.ActorID != ownerA.ID || !n.OccurredAt.Equal(at) {
		t.Errorf("actor %q at %v", n.ActorID, n.OccurredAt)
	}
	if n.ID != "N1" {
		t.Errorf("published notification should carry the assigned id, got %q", n.ID)
	}
}

func TestHandle_InsertsBeforePublishing(t *testing.T) {
	f := newNotificationFixture()

	err := f.svc.Handle(context.Background(), ports.LiveEventInput{
		Actor: memberM,
		Event: domain.TaskAssigned{Title: "Call back", AssigneeID: memberN.ID},
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}

	want := []string{"insert:N1", "publish:N1", "insert:N2", "publish:N2"}
	if len(f.j.steps) != len(want) {
		t.Fatalf("steps = %v, want %v", f.j.steps, want)
	}
	for i := range want {
		if f.j.steps[i] != want[i] {
			t.Fatalf("steps = %v, want %v", f.j.steps, want)
		}
	}
}

func TestHandle_FollowUpUsesLeadProductAssignee(t *testing.T) {
	f := newNotificationFixture()
	next := time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)

	err := f.svc.Handle(context.Background(), ports.LiveEventInput{
		Actor: memberM,
		Event: domain.FollowUpAdded{LeadID: "42", ProductID: "P1", NextDate: &next},
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(f.pub.published) != 1 {
		t.Fatalf("published %d, want 1", len(f.pub.published))
	}
	n := f.pub.published[0]
	if n.EventKind != domain.KindFollowUpWithNextStep {
		t.Errorf("kind = %q", n.EventKind)
	}
	if ids := n.TargetIDs(); len(ids) != 1 || ids[0] != ownerA.ID {
		t.Errorf("targets = %v, want [%s]", ids, ownerA.ID)
	}
}

func TestHandle_EditLeadReachesAssignees(t *testing.T) {
	f := newNotificationFixture()

	err := f.svc.Handle(context.Background(), ports.LiveEventInput{
		Actor: ownerB,
		Event: domain.LeadEdited{LeadID: "42", LeadName: "ACME"},
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(f.pub.published) != 1 {
		t.Fatalf("published %d, want 1", len(f.pub.published))
	}
	ids := f.pub.published[0].TargetIDs()
	if len(ids) != 2 || ids[0] != ownerA.ID || ids[1] != memberN.ID {
		t.Errorf("targets = %v", ids)
	}
}

func TestHandle_LookupMissIsSilent(t *testing.T) {
	f := newNotificationFixture()

	events := []domain.Event{
		domain.FollowUpAdded{LeadID: "404", ProductID: "P1"},
		domain.LeadProductAssigned{LeadID: "42", ProductID: "P404", AssigneeID: memberN.ID},
	}
	for _, ev := range events {
		if err := f.svc.Handle(context.Background(), ports.LiveEventInput{Actor: memberM, Event: ev}); err != nil {
			t.Fatalf("%s: lookup miss should not be an error, got %v", ev.Name(), err)
		}
	}
	if len(f.repo.inserted) != 0 || len(f.pub.published) != 0 {
		t.Fatalf("nothing should be persisted or published, got %v", f.j.steps)
	}
}

func TestHandle_LookupFailureIsReturned(t *testing.T) {
	f := newNotificationFixture()
	f.crm.err = errors.New("mongo down")

	err := f.svc.Handle(context.Background(), ports.LiveEventInput{
		Actor: memberM,
		Event: domain.FollowUpAdded{LeadID: "42", ProductID: "P1"},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(f.j.steps) != 0 {
		t.Fatalf("steps = %v", f.j.steps)
	}
}

func TestHandle_NoAudience(t *testing.T) {
	f := newNotificationFixture()

	err := f.svc.Handle(context.Background(), ports.LiveEventInput{
		Actor: ownerA,
		Event: domain.TaskAssigned{Title: "Self", AssigneeID: ownerA.ID},
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(f.j.steps) != 0 {
		t.Fatalf("steps = %v", f.j.steps)
	}
}

func TestHandle_UserEventsRefreshDirectory(t *testing.T) {
	f := newNotificationFixture()
	f.dir.refreshErr = errors.New("timeout")

	err := f.svc.Handle(context.Background(), ports.LiveEventInput{
		Actor: ownerA,
		Event: domain.UserAdded{UserID: "M9", UserName: "Zoe"},
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if f.dir.refreshed != 1 {
		t.Fatalf("refreshed %d times, want 1", f.dir.refreshed)
	}
	if len(f.pub.published) != 1 {
		t.Fatalf("stale snapshot should still resolve, published %d", len(f.pub.published))
	}

	_ = f.svc.Handle(context.Background(), ports.LiveEventInput{
		Actor: ownerA,
		Event: domain.NewLead{LeadName: "x", AssigneeID: memberM.ID},
	})
	if f.dir.refreshed != 1 {
		t.Fatalf("lead events must not refresh the directory")
	}
}

func TestHandle_UserEventNameFromDirectory(t *testing.T) {
	f := newNotificationFixture()

	err := f.svc.Handle(context.Background(), ports.LiveEventInput{
		Actor: ownerA,
		Event: domain.UserAdded{UserID: memberN.ID},
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(f.repo.inserted) != 1 {
		t.Fatalf("inserted %d notifications, want 1", len(f.repo.inserted))
	}
	if got := f.repo.inserted[0].SubjectLabel; got != memberN.Name {
		t.Errorf("subject = %q, want %q", got, memberN.Name)
	}
}

func TestHandle_InsertFailureSkipsPublish(t *testing.T) {
	f := newNotificationFixture()
	f.repo.insertErr = errors.New("write conflict")

	err := f.svc.Handle(context.Background(), ports.LiveEventInput{
		Actor: memberM,
		Event: domain.TaskAssigned{Title: "Call", AssigneeID: memberN.ID},
	})
	if !errors.Is(err, f.repo.insertErr) {
		t.Fatalf("err = %v, want wrapped insert error", err)
	}
	if len(f.pub.published) != 0 {
		t.Fatalf("published %d, want 0", len(f.pub.published))
	}
}

func TestMarkRead(t *testing.T) {
	f := newNotificationFixture()

	ok, err := f.svc.MarkRead(context.Background(), "N1", "M1")
	if err != nil || !ok {
		t.Fatalf("MarkRead = %v, %v", ok, err)
	}
	ok, err = f.svc.MarkRead(context.Background(), "N1", "M2")
	if err != nil || ok {
		t.Fatalf("non-target MarkRead = %v, %v", ok, err)
	}
	if _, err := f.svc.MarkRead(context.Background(), "", "M1"); !errors.Is(err, domain.ErrNotificationNotFound) {
		t.Fatalf("empty id err = %v", err)
	}
}

func TestList_ClampsLimit(t *testing.T) {
	f := newNotificationFixture()

	cases := []struct{ in, want int }{
		{0, defaultListLimit},
		{-3, defaultListLimit},
		{10, 10},
		{5000, maxListLimit},
	}
	for _, tc := range cases {
		if _, err := f.svc.List(context.Background(), ports.ListNotificationsFilter{UserID: "M1", Limit: tc.in}); err != nil {
			t.Fatalf("list: %v", err)
		}
		if f.repo.lastList.Limit != tc.want {
			t.Errorf("limit %d -> %d, want %d", tc.in, f.repo.lastList.Limit, tc.want)
		}
	}
}
