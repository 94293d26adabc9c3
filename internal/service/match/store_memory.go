package match

import (
	"cmp"
	"context"
	"iter"
	"slices"
	"sync"
)

// MemoryStore keeps the queue in process memory. It is only suitable for a
// single instance and for tests.
type MemoryStore struct {
	mu      sync.RWMutex
	tenants map[string]map[string]Ticket
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tenants: make(map[string]map[string]Ticket)}
}

func (s *MemoryStore) Upsert(ctx context.Context, t Ticket) error {
	if err := ctx.Err(); err != nil {
		return storageErr("upsert", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	queue, ok := s.tenants[t.TenantID]
	if !ok {
		queue = make(map[string]Ticket)
		s.tenants[t.TenantID] = queue
	}
	queue[t.ParticipantID] = t
	return nil
}

func (s *MemoryStore) Scan(ctx context.Context, tenantID string) iter.Seq2[Ticket, error] {
	return func(yield func(Ticket, error) bool) {
		s.mu.RLock()
		snapshot := make([]Ticket, 0, len(s.tenants[tenantID]))
		for _, t := range s.tenants[tenantID] {
			snapshot = append(snapshot, t)
		}
		s.mu.RUnlock()

		slices.SortFunc(snapshot, compareTickets)

		for _, t := range snapshot {
			if err := ctx.Err(); err != nil {
				yield(Ticket{}, storageErr("scan", err))
				return
			}
			current, ok := s.get(tenantID, t.ParticipantID)
			if !ok || !current.JoinedAt.Equal(t.JoinedAt) {
				continue
			}
			if !yield(current, nil) {
				return
			}
		}
	}
}

func (s *MemoryStore) Remove(ctx context.Context, tenantID, participantID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, storageErr("remove", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(tenantID, participantID), nil
}

func (s *MemoryStore) ConsumePair(ctx context.Context, tenantID, partnerID, requesterID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, storageErr("consume", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.deleteLocked(tenantID, partnerID) {
		return false, nil
	}
	s.deleteLocked(tenantID, requesterID)
	return true, nil
}

func (s *MemoryStore) Lookup(ctx context.Context, tenantID, participantID string) (Ticket, bool, error) {
	if err := ctx.Err(); err != nil {
		return Ticket{}, false, storageErr("lookup", err)
	}
	t, ok := s.get(tenantID, participantID)
	return t, ok, nil
}

// Len reports the number of tickets held for the tenant.
func (s *MemoryStore) Len(tenantID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tenants[tenantID])
}

func (s *MemoryStore) get(tenantID, participantID string) (Ticket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenants[tenantID][participantID]
	return t, ok
}

func (s *MemoryStore) deleteLocked(tenantID, participantID string) bool {
	queue, ok := s.tenants[tenantID]
	if !ok {
		return false
	}
	if _, ok := queue[participantID]; !ok {
		return false
	}
	delete(queue, participantID)
	if len(queue) == 0 {
		delete(s.tenants, tenantID)
	}
	return true
}

func compareTickets(a, b Ticket) int {
	if c := a.JoinedAt.Compare(b.JoinedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ParticipantID, b.ParticipantID)
}
