package store

import (
	"context"
	"sync"

	id "dealroom/pkg/domain"
)

type InMemoryViewCounter struct {
	mu     sync.Mutex
	counts map[id.ListingID]int64
}

func NewInMemoryViewCounter() *InMemoryViewCounter {
	return &InMemoryViewCounter{counts: make(map[id.ListingID]int64)}
}

func (c *InMemoryViewCounter) Increment(_ context.Context, listingID id.ListingID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[listingID]++
	return nil
}

func (c *InMemoryViewCounter) Count(_ context.Context, listingID id.ListingID) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[listingID], nil
}
