package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"pix-checkout/internal/domain"
)

// MemoryStore keeps customers and billings in process memory. Records are
// lost on restart. It implements both CustomerRepo and BillingRepo.
type MemoryStore struct {
	mu        sync.RWMutex
	customers map[uuid.UUID]domain.Customer
	billings  map[uuid.UUID]domain.Billing
	byGateway map[string]uuid.UUID // gateway id -> billing id
}

var (
	_ CustomerRepo = (*MemoryStore)(nil)
	_ BillingRepo  = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		customers: make(map[uuid.UUID]domain.Customer),
		billings:  make(map[uuid.UUID]domain.Billing),
		byGateway: make(map[string]uuid.UUID),
	}
}

func (s *MemoryStore) CreateCustomer(_ context.Context, customer *domain.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	customer.ID = s.newID(func(id uuid.UUID) bool { _, ok := s.customers[id]; return ok })
	customer.CreatedAt = time.Now().UTC()
	s.customers[customer.ID] = *customer
	return nil
}

func (s *MemoryStore) FindCustomerByID(_ context.Context, id uuid.UUID) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *MemoryStore) CreateBilling(_ context.Context, billing *domain.Billing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	billing.ID = s.newID(func(id uuid.UUID) bool { _, ok := s.billings[id]; return ok })
	if billing.Status == "" {
		billing.Status = domain.BillingPending
	}
	billing.CreatedAt = now
	billing.UpdatedAt = now
	s.billings[billing.ID] = *billing
	if billing.AbacatePayID != "" {
		s.byGateway[billing.AbacatePayID] = billing.ID
	}
	return nil
}

func (s *MemoryStore) UpdateBilling(_ context.Context, id uuid.UUID, patch domain.BillingPatch) (*domain.Billing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.billings[id]
	if !ok {
		return nil, ErrBillingNotFound
	}
	previousGatewayID := b.AbacatePayID
	patch.Apply(&b)
	b.UpdatedAt = time.Now().UTC()
	s.billings[id] = b

	if b.AbacatePayID != previousGatewayID {
		delete(s.byGateway, previousGatewayID)
		if b.AbacatePayID != "" {
			s.byGateway[b.AbacatePayID] = id
		}
	}
	return &b, nil
}

func (s *MemoryStore) FindBillingByID(_ context.Context, id uuid.UUID) (*domain.Billing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.billings[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (s *MemoryStore) FindBillingByGatewayID(_ context.Context, gatewayID string) (*domain.Billing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byGateway[gatewayID]
	if !ok {
		return nil, nil
	}
	b := s.billings[id]
	return &b, nil
}

func (s *MemoryStore) FindPendingBillings(_ context.Context, olderThan time.Duration, limit int) ([]domain.Billing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := time.Now().UTC().Add(-olderThan)
	var out []domain.Billing
	for _, b := range s.billings {
		if b.Status == domain.BillingPending && b.AbacatePayID != "" && b.UpdatedAt.Before(cutoff) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Len reports how many customers and billings are stored.
func (s *MemoryStore) Len() (customers, billings int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.customers), len(s.billings)
}

// newID must be called with s.mu held.
func (s *MemoryStore) newID(taken func(uuid.UUID) bool) uuid.UUID {
	for {
		id := uuid.New()
		if !taken(id) {
			return id
		}
	}
}
