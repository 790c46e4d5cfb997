package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"dealroom/internal/messaging/models"
	id "dealroom/pkg/domain"
	dErrors "dealroom/pkg/domain-errors"
	"dealroom/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, m *models.Message) error
	ListForUser(ctx context.Context, listingID id.ListingID, userID id.UserID) ([]*models.Message, error)
}

// Service owns listing-scoped message threads.
type Service struct {
	store Store
}

func New(store Store) *Service {
	return &Service{store: store}
}

// Seed opens a thread from sender to recipient with body.
func (s *Service) Seed(ctx context.Context, listingID id.ListingID, senderID, recipientID id.UserID, body string) (*models.Message, error) {
	return s.Send(ctx, listingID, senderID, recipientID, body)
}

func (s *Service) Send(ctx context.Context, listingID id.ListingID, senderID, recipientID id.UserID, body string) (*models.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "message body is required")
	}
	if senderID == recipientID {
		return nil, dErrors.New(dErrors.CodeValidation, "cannot message yourself")
	}
	m := &models.Message{
		ID:          id.MessageID(uuid.New()),
		ListingID:   listingID,
		SenderID:    senderID,
		RecipientID: recipientID,
		Body:        body,
		CreatedAt:   requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, m); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeDependencyFailure, "failed to store message")
	}
	return m, nil
}

func (s *Service) ListForUser(ctx context.Context, listingID id.ListingID, userID id.UserID) ([]*models.Message, error) {
	msgs, err := s.store.ListForUser(ctx, listingID, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list messages")
	}
	return msgs, nil
}
