package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"dealroom/internal/notification/models"
	id "dealroom/pkg/domain"
	"dealroom/pkg/platform/sentinel"
)

type InMemory struct {
	mu    sync.RWMutex
	items []models.Notification
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Create(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, *n)
	return nil
}

// ListForUser returns newest first.
func (s *InMemory) ListForUser(_ context.Context, userID id.UserID) ([]*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Notification, 0)
	for _, n := range s.items {
		if n.UserID == userID {
			item := n
			out = append(out, &item)
		}
	}
	slices.SortStableFunc(out, func(a, b *models.Notification) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

// MarkRead is scoped to the owner so one user cannot mark another's notice.
func (s *InMemory) MarkRead(_ context.Context, notificationID id.NotificationID, userID id.UserID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == notificationID && s.items[i].UserID == userID {
			if s.items[i].ReadAt == nil {
				s.items[i].ReadAt = &at
			}
			return nil
		}
	}
	return sentinel.ErrNotFound
}
