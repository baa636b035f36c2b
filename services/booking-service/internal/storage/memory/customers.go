package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/domain"
)

type CustomerRepository struct {
	s *Store
}

func (r *CustomerRepository) phoneTaken(orgID, phone, exceptID string) bool {
	for id, c := range r.s.customers {
		if id != exceptID && c.OrganizationID == orgID && c.Phone == phone {
			return true
		}
	}
	return false
}

func (r *CustomerRepository) Create(_ context.Context, c domain.Customer) (domain.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.phoneTaken(c.OrganizationID, c.Phone, "") {
		return domain.Customer{}, duplicate(domain.ConstraintCustomerPhone)
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	r.s.customers[c.ID] = c
	return c, nil
}

func (r *CustomerRepository) FindByID(_ context.Context, id string) (domain.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.customers[id]
	if !ok {
		return domain.Customer{}, domain.ErrNoRecord
	}
	return c, nil
}

func (r *CustomerRepository) FindByPhone(_ context.Context, orgID, phone string) (domain.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, c := range r.s.customers {
		if c.OrganizationID == orgID && c.Phone == phone {
			return c, nil
		}
	}
	return domain.Customer{}, domain.ErrNoRecord
}

func (r *CustomerRepository) ListByOrganization(_ context.Context, orgID string) ([]domain.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return sortedValues(r.s.customers,
		func(c domain.Customer) bool { return c.OrganizationID == orgID },
		func(a, b domain.Customer) bool { return a.Name < b.Name },
	), nil
}

func (r *CustomerRepository) Save(_ context.Context, c domain.Customer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.customers[c.ID]; !ok {
		return domain.ErrNoRecord
	}
	if r.phoneTaken(c.OrganizationID, c.Phone, c.ID) {
		return duplicate(domain.ConstraintCustomerPhone)
	}
	r.s.customers[c.ID] = c
	return nil
}

func (r *CustomerRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.customers[id]; !ok {
		return domain.ErrNoRecord
	}
	delete(r.s.customers, id)
	return nil
}
