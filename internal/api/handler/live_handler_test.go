package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/leadbook/crm-system/internal/api/middleware"
	"github.com/leadbook/crm-system/internal/core/domain"
	"github.com/leadbook/crm-system/internal/core/ports"
	"github.com/leadbook/crm-system/internal/infrastructure/session"
)

type stubQueue struct {
	got []ports.LiveEventInput
	err error
}

func (q *stubQueue) Enqueue(_ context.Context, in ports.LiveEventInput) error {
	if q.err != nil {
		return q.err
	}
	q.got = append(q.got, in)
	return nil
}

var member = domain.UserIdentity{ID: "U2", Name: "Bob", Role: domain.RoleMember}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func withIdentity(c echo.Context, id domain.UserIdentity) {
	c.Set(middleware.CtxIdentity, id)
}

func postEvent(t *testing.T, h *LiveHandler, event, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := newTestEcho()
	req := httptest.NewRequest(http.MethodPost, "/v1/live/events/"+event, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("event")
	c.SetParamValues(event)
	withIdentity(c, member)

	if err := h.Publish(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestLiveHandler_Publish_Accepted(t *testing.T) {
	q := &stubQueue{}
	h := NewLiveHandler(session.NewRegistry(4, zerolog.Nop()), q, time.Second, zerolog.Nop())

	rec := postEvent(t, h, "leadProductAssigned", `{"leadId":"42","productId":"P1","assigneeId":"U3"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(q.got) != 1 {
		t.Fatalf("expected one queued event, got %d", len(q.got))
	}

	in := q.got[0]
	if in.Actor.ID != "U2" {
		t.Errorf("expected actor U2, got %s", in.Actor.ID)
	}
	ev, ok := in.Event.(domain.LeadProductAssigned)
	if !ok {
		t.Fatalf("expected LeadProductAssigned, got %T", in.Event)
	}
	if ev.LeadID != "42" || ev.ProductID != "P1" || ev.AssigneeID != "U3" {
		t.Errorf("unexpected event: %+v", ev)
	}
	if in.ReceivedAt.IsZero() {
		t.Error("expected receive time")
	}
}

func TestLiveHandler_Publish_EditVariants(t *testing.T) {
	q := &stubQueue{}
	h := NewLiveHandler(session.NewRegistry(4, zerolog.Nop()), q, time.Second, zerolog.Nop())

	postEvent(t, h, "editTask", `{"taskId":"T1","title":"Call","assigneeId":"U3"}`)
	postEvent(t, h, "editUser", `{"userId":"U9","name":"Zed"}`)

	if len(q.got) != 2 {
		t.Fatalf("expected two queued events, got %d", len(q.got))
	}
	if _, ok := q.got[0].Event.(domain.TaskEdited); !ok {
		t.Errorf("expected TaskEdited, got %T", q.got[0].Event)
	}
	if _, ok := q.got[1].Event.(domain.UserEdited); !ok {
		t.Errorf("expected UserEdited, got %T", q.got[1].Event)
	}
}

func TestLiveHandler_Publish_AddTaskWithoutID(t *testing.T) {
	q := &stubQueue{}
	h := NewLiveHandler(session.NewRegistry(4, zerolog.Nop()), q, time.Second, zerolog.Nop())

	rec := postEvent(t, h, "addTask", `{"title":"Call","assigneeId":"U3"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if _, ok := q.got[0].Event.(domain.TaskAssigned); !ok {
		t.Errorf("expected TaskAssigned, got %T", q.got[0].Event)
	}
}

func TestLiveHandler_Publish_Rejects(t *testing.T) {
	cases := []struct {
		name  string
		event string
		body  string
		want  int
	}{
		{"unknown event", "deleteLead", `{}`, http.StatusNotFound},
		{"malformed body", "newLead", `{`, http.StatusBadRequest},
		{"missing field", "newProduct", `{}`, http.StatusUnprocessableEntity},
		{"edit task without id", "editTask", `{"title":"Call","assigneeId":"U3"}`, http.StatusUnprocessableEntity},
		{"edit product without id", "editProduct", `{"productName":"GIS"}`, http.StatusUnprocessableEntity},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := &stubQueue{}
			h := NewLiveHandler(session.NewRegistry(4, zerolog.Nop()), q, time.Second, zerolog.Nop())

			rec := postEvent(t, h, tc.event, tc.body)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
			if len(q.got) != 0 {
				t.Fatalf("expected nothing queued")
			}
		})
	}
}

func TestLiveHandler_Publish_QueueBusy(t *testing.T) {
	q := &stubQueue{err: context.DeadlineExceeded}
	h := NewLiveHandler(session.NewRegistry(4, zerolog.Nop()), q, time.Second, zerolog.Nop())

	rec := postEvent(t, h, "newProduct", `{"productName":"GIS"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestLiveHandler_Stream_WritesPushedNotification(t *testing.T) {
	reg := session.NewRegistry(4, zerolog.Nop())
	h := NewLiveHandler(reg, &stubQueue{}, time.Hour, zerolog.Nop())

	e := newTestEcho()
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/v1/live", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	withIdentity(c, member)

	done := make(chan error, 1)
	go func() { done <- h.Stream(c) }()

	var s ports.Pusher
	deadline := time.Now().Add(2 * time.Second)
	for s == nil && time.Now().Before(deadline) {
		if p, ok := reg.Lookup(member.ID); ok {
			s = p
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if s == nil {
		t.Fatal("session was never registered")
	}

	if err := s.Push(&domain.Notification{ID: "n1", EventKind: domain.KindNewLead}); err != nil {
		t.Fatalf("push: %v", err)
	}

	// the stream drains the outbox before the cancellation is observed
	time.Sleep(50 * time.Millisecond)
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("stream error: %v", err)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "event: receiveNotification") || !strings.Contains(body, `"id":"n1"`) {
		t.Fatalf("expected notification frame, got %q", body)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "text/event-stream" {
		t.Errorf("unexpected content type %q", ct)
	}
	if _, ok := reg.Lookup(member.ID); ok {
		t.Error("expected session to be released after the stream ends")
	}
}

func TestLiveHandler_Stream_RequiresIdentity(t *testing.T) {
	h := NewLiveHandler(session.NewRegistry(4, zerolog.Nop()), &stubQueue{}, time.Second, zerolog.Nop())

	e := newTestEcho()
	req := httptest.NewRequest(http.MethodGet, "/v1/live", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Stream(c)
	if err == nil {
		t.Fatal("expected error without identity")
	}
	e.HTTPErrorHandler(err, c)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
