package store

import (
	"context"
	"slices"
	"sync"

	"dealroom/internal/nda/models"
	id "dealroom/pkg/domain"
	"dealroom/pkg/platform/sentinel"
)

// InMemory is an NDA request store for tests and local development. Every
// mutation compares and swaps under one lock.
type InMemory struct {
	mu       sync.RWMutex
	requests map[id.NDARequestID]models.Request
}

func NewInMemory() *InMemory {
	return &InMemory{requests: make(map[id.NDARequestID]models.Request)}
}

func (s *InMemory) Create(_ context.Context, req *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[req.ID]; ok {
		return sentinel.ErrAlreadyExists
	}
	if req.Status.IsActive() {
		if _, ok := s.findActiveLocked(req.ListingID, req.BuyerID); ok {
			return sentinel.ErrAlreadyExists
		}
	}
	s.requests[req.ID] = *req
	return nil
}

func (s *InMemory) FindByID(_ context.Context, requestID id.NDARequestID) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &req, nil
}

func (s *InMemory) FindActive(_ context.Context, listingID id.ListingID, buyerID id.UserID) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.findActiveLocked(listingID, buyerID)
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &req, nil
}

func (s *InMemory) findActiveLocked(listingID id.ListingID, buyerID id.UserID) (models.Request, bool) {
	for _, req := range s.requests {
		if req.ListingID == listingID && req.BuyerID == buyerID && req.Status.IsActive() {
			return req, true
		}
	}
	return models.Request{}, false
}

// UpdateIfStatus replaces the stored request only if it is still in expected.
func (s *InMemory) UpdateIfStatus(_ context.Context, req *models.Request, expected models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.requests[req.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Status != expected {
		return sentinel.ErrStaleState
	}
	s.requests[req.ID] = *req
	return nil
}

// DeleteIfStatusIn removes the buyer's request only while it is in one of statuses.
func (s *InMemory) DeleteIfStatusIn(_ context.Context, requestID id.NDARequestID, buyerID id.UserID, statuses []models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.requests[requestID]
	if !ok || current.BuyerID != buyerID {
		return sentinel.ErrNotFound
	}
	if !slices.Contains(statuses, current.Status) {
		return sentinel.ErrStaleState
	}
	delete(s.requests, requestID)
	return nil
}

func (s *InMemory) ListByBuyer(_ context.Context, buyerID id.UserID) ([]*models.Request, error) {
	return s.filter(func(r *models.Request) bool { return r.BuyerID == buyerID }), nil
}

func (s *InMemory) ListBySeller(_ context.Context, sellerID id.UserID) ([]*models.Request, error) {
	return s.filter(func(r *models.Request) bool { return r.SellerID == sellerID }), nil
}

// HasVisibility reports whether buyerID holds an approved or signed request for listingID.
func (s *InMemory) HasVisibility(_ context.Context, listingID id.ListingID, buyerID id.UserID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, req := range s.requests {
		if req.ListingID == listingID && req.BuyerID == buyerID && req.Status.GrantsVisibility() {
			return true, nil
		}
	}
	return false, nil
}

// filter returns matching requests newest first.
func (s *InMemory) filter(keep func(*models.Request) bool) []*models.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Request, 0)
	for _, req := range s.requests {
		if keep(&req) {
			out = append(out, &req)
		}
	}
	slices.SortFunc(out, func(a, b *models.Request) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}
