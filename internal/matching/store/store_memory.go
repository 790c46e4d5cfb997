package store

import (
	"context"
	"slices"
	"strings"
	"sync"

	"dealroom/internal/matching/models"
	id "dealroom/pkg/domain"
	"dealroom/pkg/platform/sentinel"
)

// InMemory is a BuyerProfile store for tests and local development.
type InMemory struct {
	mu       sync.RWMutex
	profiles map[id.UserID]models.BuyerProfile
}

func NewInMemory() *InMemory {
	return &InMemory{profiles: make(map[id.UserID]models.BuyerProfile)}
}

func (s *InMemory) Get(_ context.Context, userID id.UserID) (*models.BuyerProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(p), nil
}

func (s *InMemory) Upsert(_ context.Context, profile *models.BuyerProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.UserID] = *clone(*profile)
	return nil
}

// List returns every profile ordered by user id.
func (s *InMemory) List(_ context.Context) ([]*models.BuyerProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.BuyerProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, clone(p))
	}
	slices.SortFunc(out, func(a, b *models.BuyerProfile) int {
		return strings.Compare(a.UserID.String(), b.UserID.String())
	})
	return out, nil
}

func clone(p models.BuyerProfile) *models.BuyerProfile {
	p.Regions = slices.Clone(p.Regions)
	p.Industries = slices.Clone(p.Industries)
	return &p
}
