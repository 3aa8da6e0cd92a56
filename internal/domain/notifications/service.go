package notifications

import (
	"context"
	"time"

	"hrperf/internal/requestctx"
)

type Notification struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Mailer delivers a plain-text email. Implementations live in platform/email.
type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// emailed lists the notification types that are also sent by email. Workflow
// transitions stay in-app; reminder digests are the only thing a manager may
// not otherwise see.
var emailed = map[string]bool{
	TypeMilestoneOverdue: true,
	TypeMilestoneDueSoon: true,
}

type Service struct {
	store  StoreAPI
	mailer Mailer
	from   string
}

func New(store StoreAPI) *Service {
	return &Service{store: store}
}

// WithMailer enables email delivery for reminder digests.
func (s *Service) WithMailer(mailer Mailer, from string) *Service {
	s.mailer = mailer
	s.from = from
	return s
}

func (s *Service) Create(ctx context.Context, userID, ntype, title, body string) error {
	if userID == "" {
		return nil
	}
	if err := s.store.CreateNotification(ctx, userID, ntype, title, body); err != nil {
		return err
	}
	if s.mailer != nil && emailed[ntype] {
		s.email(ctx, userID, title, body)
	}
	return nil
}

// email is best effort: the in-app notification is already stored.
func (s *Service) email(ctx context.Context, userID, subject, body string) {
	to, err := s.store.UserEmail(ctx, userID)
	if err != nil {
		requestctx.Logger(ctx).Warn("notification email lookup failed", "userId", userID, "err", err)
		return
	}
	if to == "" {
		return
	}
	if err := s.mailer.Send(ctx, s.from, to, subject, body); err != nil {
		requestctx.Logger(ctx).Warn("notification email failed", "userId", userID, "err", err)
	}
}

// NotifyHR fans a notification out to every HR user. Individual failures are
// logged and skipped.
func (s *Service) NotifyHR(ctx context.Context, ntype, title, body string) error {
	ids, err := s.store.HRUserIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.store.CreateNotification(ctx, id, ntype, title, body); err != nil {
			requestctx.Logger(ctx).Warn("hr notification failed", "userId", id, "err", err)
		}
	}
	return nil
}

func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Notification, error) {
	return s.store.ListNotifications(ctx, userID, limit, offset)
}

func (s *Service) CountUnread(ctx context.Context, userID string) (int, error) {
	return s.store.CountUnread(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	return s.store.MarkRead(ctx, userID, notificationID)
}
