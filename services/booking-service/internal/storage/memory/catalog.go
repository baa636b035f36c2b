package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/domain"
)

type ServiceRepository struct {
	s *Store
}

func (r *ServiceRepository) nameTaken(orgID, name, exceptID string) bool {
	for id, v := range r.s.services {
		if id != exceptID && v.OrganizationID == orgID && v.Name == name {
			return true
		}
	}
	return false
}

func (r *ServiceRepository) Create(_ context.Context, v domain.Service) (domain.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.nameTaken(v.OrganizationID, v.Name, "") {
		return domain.Service{}, duplicate(domain.ConstraintServiceName)
	}
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	r.s.services[v.ID] = v
	return v, nil
}

func (r *ServiceRepository) FindByID(_ context.Context, id string) (domain.Service, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	v, ok := r.s.services[id]
	if !ok {
		return domain.Service{}, domain.ErrNoRecord
	}
	return v, nil
}

func (r *ServiceRepository) FindByName(_ context.Context, orgID, name string) (domain.Service, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, v := range r.s.services {
		if v.OrganizationID == orgID && v.Name == name {
			return v, nil
		}
	}
	return domain.Service{}, domain.ErrNoRecord
}

func (r *ServiceRepository) ListByOrganization(_ context.Context, orgID string) ([]domain.Service, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return sortedValues(r.s.services,
		func(v domain.Service) bool { return v.OrganizationID == orgID },
		func(a, b domain.Service) bool { return a.Name < b.Name },
	), nil
}

func (r *ServiceRepository) Save(_ context.Context, v domain.Service) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.services[v.ID]; !ok {
		return domain.ErrNoRecord
	}
	if r.nameTaken(v.OrganizationID, v.Name, v.ID) {
		return duplicate(domain.ConstraintServiceName)
	}
	r.s.services[v.ID] = v
	return nil
}

func (r *ServiceRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.services[id]; !ok {
		return domain.ErrNoRecord
	}
	delete(r.s.services, id)
	return nil
}

type SpaceRepository struct {
	s *Store
}

func (r *SpaceRepository) nameTaken(orgID, name, exceptID string) bool {
	for id, v := range r.s.spaces {
		if id != exceptID && v.OrganizationID == orgID && v.Name == name {
			return true
		}
	}
	return false
}

func (r *SpaceRepository) Create(_ context.Context, v domain.Space) (domain.Space, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.nameTaken(v.OrganizationID, v.Name, "") {
		return domain.Space{}, duplicate(domain.ConstraintSpaceName)
	}
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	r.s.spaces[v.ID] = v
	return v, nil
}

func (r *SpaceRepository) FindByID(_ context.Context, id string) (domain.Space, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	v, ok := r.s.spaces[id]
	if !ok {
		return domain.Space{}, domain.ErrNoRecord
	}
	return v, nil
}

func (r *SpaceRepository) FindByName(_ context.Context, orgID, name string) (domain.Space, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, v := range r.s.spaces {
		if v.OrganizationID == orgID && v.Name == name {
			return v, nil
		}
	}
	return domain.Space{}, domain.ErrNoRecord
}

func (r *SpaceRepository) ListByOrganization(_ context.Context, orgID string) ([]domain.Space, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return sortedValues(r.s.spaces,
		func(v domain.Space) bool { return v.OrganizationID == orgID },
		func(a, b domain.Space) bool { return a.Name < b.Name },
	), nil
}

func (r *SpaceRepository) Save(_ context.Context, v domain.Space) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.spaces[v.ID]; !ok {
		return domain.ErrNoRecord
	}
	if r.nameTaken(v.OrganizationID, v.Name, v.ID) {
		return duplicate(domain.ConstraintSpaceName)
	}
	r.s.spaces[v.ID] = v
	return nil
}

func (r *SpaceRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.spaces[id]; !ok {
		return domain.ErrNoRecord
	}
	delete(r.s.spaces, id)
	return nil
}
