package store

import (
	"context"
	"slices"
	"strings"
	"sync"

	"dealroom/internal/listing/models"
	id "dealroom/pkg/domain"
	"dealroom/pkg/platform/sentinel"
)

// InMemory is a listing store for tests and local development.
type InMemory struct {
	mu       sync.RWMutex
	listings map[id.ListingID]models.Listing
}

func NewInMemory() *InMemory {
	return &InMemory{listings: make(map[id.ListingID]models.Listing)}
}

func (s *InMemory) Create(_ context.Context, l *models.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.listings[l.ID]; ok {
		return sentinel.ErrAlreadyExists
	}
	s.listings[l.ID] = *clone(*l)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, listingID id.ListingID) (*models.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.listings[listingID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(l), nil
}

func (s *InMemory) ListActive(_ context.Context) ([]*models.Listing, error) {
	return s.filter(func(l *models.Listing) bool { return l.IsActive() }), nil
}

func (s *InMemory) ListByOwner(_ context.Context, ownerID id.UserID) ([]*models.Listing, error) {
	return s.filter(func(l *models.Listing) bool { return l.OwnerID == ownerID }), nil
}

func (s *InMemory) filter(keep func(*models.Listing) bool) []*models.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Listing, 0)
	for _, l := range s.listings {
		if keep(&l) {
			out = append(out, clone(l))
		}
	}
	slices.SortFunc(out, func(a, b *models.Listing) int {
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out
}

func clone(l models.Listing) *models.Listing {
	l.KeyCustomers = slices.Clone(l.KeyCustomers)
	return &l
}
