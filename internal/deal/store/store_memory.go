package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"dealroom/internal/deal/models"
	id "dealroom/pkg/domain"
	"dealroom/pkg/platform/sentinel"
)

// InMemory stores transactions, milestones and DD projects for tests and
// local development. Conditional updates compare and swap under one lock.
type InMemory struct {
	mu           sync.RWMutex
	transactions map[id.TransactionID]models.Transaction
	milestones   map[id.TransactionID][]models.Milestone
	projects     map[id.TransactionID]models.DDProject
	tasks        map[id.DDProjectID][]models.DDTask
}

func NewInMemory() *InMemory {
	return &InMemory{
		transactions: make(map[id.TransactionID]models.Transaction),
		milestones:   make(map[id.TransactionID][]models.Milestone),
		projects:     make(map[id.TransactionID]models.DDProject),
		tasks:        make(map[id.DDProjectID][]models.DDTask),
	}
}

func (s *InMemory) CreateTransaction(_ context.Context, t *models.Transaction, milestones []*models.Milestone) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[t.ID]; ok {
		return sentinel.ErrAlreadyExists
	}
	s.transactions[t.ID] = *t
	ms := make([]models.Milestone, 0, len(milestones))
	for _, m := range milestones {
		ms = append(ms, *m)
	}
	s.milestones[t.ID] = ms
	return nil
}

func (s *InMemory) FindTransaction(_ context.Context, transactionID id.TransactionID) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[transactionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &t, nil
}

func (s *InMemory) ListTransactionsForUser(_ context.Context, userID id.UserID) ([]*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Transaction, 0)
	for _, t := range s.transactions {
		if t.IsParty(userID) {
			out = append(out, &t)
		}
	}
	slices.SortFunc(out, func(a, b *models.Transaction) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (s *InMemory) UpdateStageIfCurrent(_ context.Context, transactionID id.TransactionID, expected, next models.Stage, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[transactionID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if t.Stage != expected || t.IsCancelled() {
		return sentinel.ErrStaleState
	}
	t.Stage = next
	t.UpdatedAt = at
	s.transactions[transactionID] = t
	return nil
}

func (s *InMemory) CancelIfActive(_ context.Context, transactionID id.TransactionID, reason string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[transactionID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if t.IsCancelled() {
		return sentinel.ErrStaleState
	}
	t.CancelledAt = &at
	t.CancelReason = reason
	t.UpdatedAt = at
	s.transactions[transactionID] = t
	return nil
}

func (s *InMemory) ListMilestones(_ context.Context, transactionID id.TransactionID) ([]*models.Milestone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ms := s.milestones[transactionID]
	out := make([]*models.Milestone, 0, len(ms))
	for _, m := range ms {
		out = append(out, &m)
	}
	slices.SortFunc(out, func(a, b *models.Milestone) int { return a.SortOrder - b.SortOrder })
	return out, nil
}

func (s *InMemory) CompleteMilestoneIfOpen(_ context.Context, transactionID id.TransactionID, milestoneID id.MilestoneID, by id.UserID, at time.Time) (*models.Milestone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms := s.milestones[transactionID]
	i := slices.IndexFunc(ms, func(m models.Milestone) bool { return m.ID == milestoneID })
	if i < 0 {
		return nil, sentinel.ErrNotFound
	}
	if ms[i].Completed {
		return nil, sentinel.ErrStaleState
	}
	return completeLocked(ms, i, by, at), nil
}

func (s *InMemory) CompleteOpenMilestoneByTitle(_ context.Context, transactionID id.TransactionID, title string, by id.UserID, at time.Time) (*models.Milestone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms := s.milestones[transactionID]
	i := slices.IndexFunc(ms, func(m models.Milestone) bool { return m.Title == title && !m.Completed })
	if i < 0 {
		return nil, sentinel.ErrNotFound
	}
	return completeLocked(ms, i, by, at), nil
}

func completeLocked(ms []models.Milestone, i int, by id.UserID, at time.Time) *models.Milestone {
	ms[i].Completed = true
	ms[i].CompletedAt = &at
	ms[i].CompletedBy = &by
	m := ms[i]
	return &m
}

func (s *InMemory) CreateDDProject(_ context.Context, p *models.DDProject, tasks []*models.DDTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[p.TransactionID]; ok {
		return sentinel.ErrAlreadyExists
	}
	s.projects[p.TransactionID] = *p
	ts := make([]models.DDTask, 0, len(tasks))
	for _, t := range tasks {
		ts = append(ts, *t)
	}
	s.tasks[p.ID] = ts
	return nil
}

func (s *InMemory) FindDDProject(_ context.Context, transactionID id.TransactionID) (*models.DDProject, []*models.DDTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[transactionID]
	if !ok {
		return nil, nil, sentinel.ErrNotFound
	}
	ts := s.tasks[p.ID]
	tasks := make([]*models.DDTask, 0, len(ts))
	for _, t := range ts {
		tasks = append(tasks, &t)
	}
	return &p, tasks, nil
}

// InMemoryActivityLog is an append-only activity log.
type InMemoryActivityLog struct {
	mu         sync.RWMutex
	activities map[id.TransactionID][]models.Activity
}

func NewInMemoryActivityLog() *InMemoryActivityLog {
	return &InMemoryActivityLog{activities: make(map[id.TransactionID][]models.Activity)}
}

func (l *InMemoryActivityLog) Append(_ context.Context, a *models.Activity) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry := *a
	entry.Metadata = cloneMetadata(a.Metadata)
	l.activities[a.TransactionID] = append(l.activities[a.TransactionID], entry)
	return nil
}

// List returns the transaction's activities in append order.
func (l *InMemoryActivityLog) List(_ context.Context, transactionID id.TransactionID) ([]*models.Activity, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	entries := l.activities[transactionID]
	out := make([]*models.Activity, 0, len(entries))
	for _, a := range entries {
		a.Metadata = cloneMetadata(a.Metadata)
		out = append(out, &a)
	}
	return out, nil
}

func cloneMetadata(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
