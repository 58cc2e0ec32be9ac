package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-chat/internal/domain"
)

// MemoryStore implements both repositories in process. It backs local runs
// without POSTGRES_DSN and the service tests. Missing rows surface as
// pgx.ErrNoRows so callers handle both backends alike.
type MemoryStore struct {
	mu        sync.RWMutex
	customers map[string]*domain.Customer
	messages  map[string][]domain.Message
	nextID    int64
	now       func() time.Time
}

// NewMemoryStore builds an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		customers: make(map[string]*domain.Customer),
		messages:  make(map[string][]domain.Message),
		now:       time.Now,
	}
}

// Customers exposes the store as a CustomerRepository.
func (s *MemoryStore) Customers() CustomerRepository { return memoryCustomers{s} }

// Messages exposes the store as a MessageRepository.
func (s *MemoryStore) Messages() MessageRepository { return memoryMessages{s} }

type memoryCustomers struct{ s *MemoryStore }

func (r memoryCustomers) Create(_ context.Context, customer *domain.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.customers[customer.ID]; exists {
		return ErrDuplicate
	}
	now := r.s.now()
	customer.CreatedAt = now
	customer.LastSeen = now
	stored := *customer
	r.s.customers[customer.ID] = &stored
	return nil
}

func (r memoryCustomers) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.customers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *c
	return &out, nil
}

func (r memoryCustomers) List(_ context.Context) ([]domain.CustomerSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]domain.CustomerSummary, 0, len(r.s.customers))
	for id, c := range r.s.customers {
		summary := domain.CustomerSummary{Customer: *c}
		msgs := r.s.messages[id]
		summary.MessageCount = len(msgs)
		if len(msgs) > 0 {
			last := msgs[len(msgs)-1]
			summary.LastMessage = &last
		}
		result = append(result, summary)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].LastSeen.After(result[j].LastSeen)
	})
	return result, nil
}

func (r memoryCustomers) TouchLastSeen(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.customers[id]
	if !ok {
		return pgx.ErrNoRows
	}
	c.LastSeen = r.s.now()
	return nil
}

func (r memoryCustomers) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.customers[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.s.customers, id)
	delete(r.s.messages, id)
	return nil
}

func (r memoryCustomers) Stats(_ context.Context) (domain.StoreStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	now := r.s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	st := domain.StoreStats{TotalCustomers: int64(len(r.s.customers))}
	for _, c := range r.s.customers {
		if !c.LastSeen.Before(dayStart) {
			st.ActiveToday++
		}
	}
	for _, msgs := range r.s.messages {
		st.TotalMessages += int64(len(msgs))
		for _, m := range msgs {
			if !m.CreatedAt.Before(dayStart) {
				st.MessagesToday++
			}
		}
	}
	return st, nil
}

type memoryMessages struct{ s *MemoryStore }

func (r memoryMessages) Create(_ context.Context, msg *domain.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.customers[msg.CustomerID]; !ok {
		return pgx.ErrNoRows
	}
	r.s.nextID++
	msg.ID = r.s.nextID
	msg.CreatedAt = r.s.now()
	r.s.messages[msg.CustomerID] = append(r.s.messages[msg.CustomerID], *msg)
	return nil
}

func (r memoryMessages) ListByCustomer(_ context.Context, customerID string) ([]domain.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	msgs := r.s.messages[customerID]
	out := make([]domain.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}
