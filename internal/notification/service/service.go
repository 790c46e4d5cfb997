package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"dealroom/internal/notification/email"
	"dealroom/internal/notification/models"
	usermodels "dealroom/internal/user/models"
	id "dealroom/pkg/domain"
	dErrors "dealroom/pkg/domain-errors"
	"dealroom/pkg/platform/sentinel"
	"dealroom/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, n *models.Notification) error
	ListForUser(ctx context.Context, userID id.UserID) ([]*models.Notification, error)
	MarkRead(ctx context.Context, notificationID id.NotificationID, userID id.UserID, at time.Time) error
}

// Directory resolves a recipient's email address.
type Directory interface {
	FindByID(ctx context.Context, userID id.UserID) (*usermodels.User, error)
}

// Service delivers in-app notifications and queues emails. The two channels
// fail independently.
type Service struct {
	store     Store
	directory Directory
	emails    email.Queue
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, directory Directory, emails email.Queue, opts ...Option) *Service {
	s := &Service{store: store, directory: directory, emails: emails, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send records an in-app notification for recipient and, when payload.Email
// is set, queues an email. Both channels are attempted; their failures are
// joined into one DependencyFailure.
func (s *Service) Send(ctx context.Context, kind models.Kind, recipient id.UserID, payload models.Payload) error {
	var errs []error

	n := &models.Notification{
		ID:        id.NotificationID(uuid.New()),
		UserID:    recipient,
		Type:      kind,
		Title:     payload.Title,
		Body:      payload.Body,
		Link:      payload.Link,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, n); err != nil {
		errs = append(errs, fmt.Errorf("in-app: %w", err))
	}

	if payload.Email {
		if err := s.queueEmail(ctx, recipient, payload); err != nil {
			errs = append(errs, fmt.Errorf("email: %w", err))
		}
	}

	if len(errs) > 0 {
		return dErrors.Wrap(errors.Join(errs...), dErrors.CodeDependencyFailure, "notification delivery failed")
	}
	return nil
}

func (s *Service) queueEmail(ctx context.Context, recipient id.UserID, payload models.Payload) error {
	if s.emails == nil {
		return errors.New("email queue not configured")
	}
	u, err := s.directory.FindByID(ctx, recipient)
	if err != nil {
		return fmt.Errorf("resolve recipient: %w", err)
	}
	if u.Email == "" {
		return errors.New("recipient has no email address")
	}
	body := payload.Body
	if payload.Link != "" {
		body += "\n\n" + payload.Link
	}
	return s.emails.Enqueue(ctx, email.Message{To: u.Email, Subject: payload.Title, Body: body})
}

func (s *Service) List(ctx context.Context, userID id.UserID) ([]*models.Notification, error) {
	items, err := s.store.ListForUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list notifications")
	}
	return items, nil
}

func (s *Service) MarkRead(ctx context.Context, notificationID id.NotificationID, userID id.UserID) error {
	if err := s.store.MarkRead(ctx, notificationID, userID, requestcontext.Now(ctx)); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "notification not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark notification read")
	}
	return nil
}
