package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/domain"
)

type OrganizationRepository struct {
	s *Store
}

func (r *OrganizationRepository) Create(_ context.Context, o domain.Organization) (domain.Organization, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.orgs {
		if existing.Name == o.Name {
			return domain.Organization{}, duplicate(domain.ConstraintOrganizationName)
		}
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	o.Schedules = nil
	r.s.orgs[o.ID] = o
	return o, nil
}

func (r *OrganizationRepository) FindByID(_ context.Context, id string) (domain.Organization, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	o, ok := r.s.orgs[id]
	if !ok {
		return domain.Organization{}, domain.ErrNoRecord
	}
	return o, nil
}

func (r *OrganizationRepository) FindByName(_ context.Context, name string) (domain.Organization, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, o := range r.s.orgs {
		if o.Name == name {
			return o, nil
		}
	}
	return domain.Organization{}, domain.ErrNoRecord
}

func (r *OrganizationRepository) ListByOwner(_ context.Context, ownerID string) ([]domain.Organization, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return sortedValues(r.s.orgs,
		func(o domain.Organization) bool { return o.OwnerID == ownerID },
		func(a, b domain.Organization) bool { return a.Name < b.Name },
	), nil
}

func (r *OrganizationRepository) Save(_ context.Context, o domain.Organization) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.orgs[o.ID]; !ok {
		return domain.ErrNoRecord
	}
	for id, existing := range r.s.orgs {
		if id != o.ID && existing.Name == o.Name {
			return duplicate(domain.ConstraintOrganizationName)
		}
	}
	o.Schedules = nil
	r.s.orgs[o.ID] = o
	return nil
}

// Delete removes the organization together with its schedule rows.
func (r *OrganizationRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.orgs[id]; !ok {
		return domain.ErrNoRecord
	}
	delete(r.s.orgs, id)
	for sid, sc := range r.s.schedules {
		if sc.OrganizationID == id {
			delete(r.s.schedules, sid)
		}
	}
	return nil
}

func (r *OrganizationRepository) HasDependents(_ context.Context, id string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, v := range r.s.services {
		if v.OrganizationID == id {
			return true, nil
		}
	}
	for _, v := range r.s.spaces {
		if v.OrganizationID == id {
			return true, nil
		}
	}
	for _, v := range r.s.customers {
		if v.OrganizationID == id {
			return true, nil
		}
	}
	for _, v := range r.s.appointments {
		if v.OrganizationID == id {
			return true, nil
		}
	}
	return false, nil
}
