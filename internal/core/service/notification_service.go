package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/leadbook/crm-system/internal/core/domain"
	"github.com/leadbook/crm-system/internal/core/ports"
	"github.com/leadbook/crm-system/internal/pkg/metrics"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type notificationService struct {
	repo      ports.NotificationRepository
	crm       ports.CRMRepository
	directory ports.Directory
	publisher ports.NotificationPublisher
	resolver  TargetResolver
	now       func() time.Time
	log       zerolog.Logger
}

// NewNotificationService returns a NotificationService implementation.
func NewNotificationService(
	repo ports.NotificationRepository,
	crm ports.CRMRepository,
	directory ports.Directory,
	publisher ports.NotificationPublisher,
	log zerolog.Logger,
) ports.NotificationService {
	return &notificationService{
		repo:      repo,
		crm:       crm,
		directory: directory,
		publisher: publisher,
		now:       time.Now,
		log:       log,
	}
}

// Handle resolves the audience of a live event, persists one notification per
// draft and only then publishes it for delivery. Lookup misses are logged and
// swallowed; persistence failures are returned for the caller to log.
func (s *notificationService) Handle(ctx context.Context, in ports.LiveEventInput) error {
	log := s.log.With().
		Str("event", string(in.Event.Name())).
		Str("actor_id", in.Actor.ID).
		Logger()

	switch e := in.Event.(type) {
	case domain.UserAdded:
		s.refreshDirectory(ctx, log)
		e.UserName = s.userName(e.UserID, e.UserName)
		in.Event = e
	case domain.UserEdited:
		s.refreshDirectory(ctx, log)
		e.UserName = s.userName(e.UserID, e.UserName)
		in.Event = e
	}

	facts, err := s.lookup(ctx, in.Event)
	if err != nil {
		if isLookupMiss(err) {
			metrics.NotificationsSkippedTotal.WithLabelValues("lookup_miss").Inc()
			log.Warn().Err(err).Msg("referenced record missing, notification skipped")
			return nil
		}
		return fmt.Errorf("handle %s: %w", in.Event.Name(), err)
	}

	drafts, err := s.resolver.Resolve(in.Actor, in.Event, facts, s.directory.All())
	if err != nil {
		if isLookupMiss(err) {
			metrics.NotificationsSkippedTotal.WithLabelValues("lookup_miss").Inc()
			log.Warn().Err(err).Msg("notification skipped")
			return nil
		}
		return fmt.Errorf("handle %s: %w", in.Event.Name(), err)
	}
	if len(drafts) == 0 {
		metrics.NotificationsSkippedTotal.WithLabelValues("no_targets").Inc()
		log.Debug().Msg("no audience, nothing to notify")
		return nil
	}

	occurredAt := in.ReceivedAt
	if occurredAt.IsZero() {
		occurredAt = s.now()
	}

	var errs []error
	for _, d := range drafts {
		n := &domain.Notification{
			EventKind:    d.Kind,
			OccurredAt:   occurredAt.UTC(),
			ActorID:      in.Actor.ID,
			SubjectLabel: d.SubjectLabel,
			RouteHint:    d.RouteHint,
			Targets:      domain.NewTargets(d.Targets...),
		}

		id, err := s.repo.Insert(ctx, n)
		if err != nil {
			metrics.NotificationsSkippedTotal.WithLabelValues("insert_failed").Inc()
			errs = append(errs, fmt.Errorf("insert %s: %w", d.Kind, err))
			continue
		}
		n.ID = id
		metrics.NotificationsCreatedTotal.WithLabelValues(string(d.Kind)).Inc()

		s.publisher.Publish(n)

		log.Info().
			Str("notification_id", id).
			Str("kind", string(d.Kind)).
			Int("targets", len(n.Targets)).
			Msg("notification created")
	}

	return errors.Join(errs...)
}

func (s *notificationService) refreshDirectory(ctx context.Context, log zerolog.Logger) {
	if err := s.directory.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("directory refresh failed, resolving against stale snapshot")
	}
}

// userName falls back to the directory when the event carries no name.
func (s *notificationService) userName(userID, name string) string {
	if name != "" {
		return name
	}
	if u, ok := s.directory.Get(userID); ok {
		return u.Name
	}
	return name
}

// lookup gathers the records the event's audience rule depends on.
func (s *notificationService) lookup(ctx context.Context, ev domain.Event) (Facts, error) {
	var facts Facts

	switch e := ev.(type) {
	case domain.FollowUpAdded:
		lp, err := s.crm.FindLeadProduct(ctx, e.LeadID, e.ProductID)
		if err != nil {
			return facts, err
		}
		facts.LeadProduct = lp

	case domain.LeadProductAssigned:
		p, err := s.crm.FindProduct(ctx, e.ProductID)
		if err != nil {
			return facts, err
		}
		facts.ProductName = p.Name

	case domain.LeadEdited:
		pairs, err := s.crm.ListLeadProducts(ctx, e.LeadID)
		if err != nil {
			return facts, err
		}
		for _, lp := range pairs {
			facts.LeadAssignees = append(facts.LeadAssignees, lp.AssigneeID)
		}
	}

	return facts, nil
}

func (s *notificationService) MarkRead(ctx context.Context, notificationID, userID string) (bool, error) {
	if notificationID == "" || userID == "" {
		return false, domain.ErrNotificationNotFound
	}
	ok, err := s.repo.MarkRead(ctx, notificationID, userID)
	if err != nil {
		return false, fmt.Errorf("mark read: %w", err)
	}
	return ok, nil
}

func (s *notificationService) List(ctx context.Context, filter ports.ListNotificationsFilter) ([]domain.Notification, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	return s.repo.ListForUser(ctx, filter)
}

func isLookupMiss(err error) bool {
	return errors.Is(err, domain.ErrLeadNotFound) ||
		errors.Is(err, domain.ErrProductNotFound) ||
		errors.Is(err, domain.ErrLeadProductNotFound) ||
		errors.Is(err, domain.ErrUserNotFound)
}
