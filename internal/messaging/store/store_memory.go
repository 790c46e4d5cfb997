package store

import (
	"context"
	"slices"
	"sync"

	"dealroom/internal/messaging/models"
	id "dealroom/pkg/domain"
)

type InMemory struct {
	mu       sync.RWMutex
	messages []models.Message
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Create(_ context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, *m)
	return nil
}

// ListForUser returns the listing's messages that userID sent or received, oldest first.
func (s *InMemory) ListForUser(_ context.Context, listingID id.ListingID, userID id.UserID) ([]*models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Message, 0)
	for _, m := range s.messages {
		if m.ListingID == listingID && m.Involves(userID) {
			msg := m
			out = append(out, &msg)
		}
	}
	slices.SortStableFunc(out, func(a, b *models.Message) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}
