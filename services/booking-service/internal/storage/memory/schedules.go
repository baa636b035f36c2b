package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/domain"
)

type ScheduleRepository struct {
	s *Store
}

func (r *ScheduleRepository) CreateBatch(_ context.Context, schedules []domain.Schedule) ([]domain.Schedule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	taken := map[string]map[int]bool{}
	for _, existing := range r.s.schedules {
		if taken[existing.OrganizationID] == nil {
			taken[existing.OrganizationID] = map[int]bool{}
		}
		taken[existing.OrganizationID][existing.Weekday] = true
	}

	out := make([]domain.Schedule, 0, len(schedules))
	for _, sc := range schedules {
		if taken[sc.OrganizationID] == nil {
			taken[sc.OrganizationID] = map[int]bool{}
		}
		if taken[sc.OrganizationID][sc.Weekday] {
			return nil, duplicate(domain.ConstraintScheduleWeekday)
		}
		taken[sc.OrganizationID][sc.Weekday] = true
		if sc.ID == "" {
			sc.ID = uuid.NewString()
		}
		out = append(out, sc)
	}
	for _, sc := range out {
		r.s.schedules[sc.ID] = sc
	}
	return out, nil
}

func (r *ScheduleRepository) FindByID(_ context.Context, id string) (domain.Schedule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sc, ok := r.s.schedules[id]
	if !ok {
		return domain.Schedule{}, domain.ErrNoRecord
	}
	return sc, nil
}

func (r *ScheduleRepository) ListByOrganization(_ context.Context, orgID string) ([]domain.Schedule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return sortedValues(r.s.schedules,
		func(sc domain.Schedule) bool { return sc.OrganizationID == orgID },
		func(a, b domain.Schedule) bool { return a.Weekday < b.Weekday },
	), nil
}

func (r *ScheduleRepository) SaveBatch(_ context.Context, schedules []domain.Schedule) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	next := make(map[string]domain.Schedule, len(r.s.schedules))
	for id, sc := range r.s.schedules {
		next[id] = sc
	}
	for _, sc := range schedules {
		if _, ok := next[sc.ID]; !ok {
			return domain.ErrNoRecord
		}
		next[sc.ID] = sc
	}

	seen := map[string]map[int]bool{}
	for _, sc := range next {
		if seen[sc.OrganizationID] == nil {
			seen[sc.OrganizationID] = map[int]bool{}
		}
		if seen[sc.OrganizationID][sc.Weekday] {
			return duplicate(domain.ConstraintScheduleWeekday)
		}
		seen[sc.OrganizationID][sc.Weekday] = true
	}
	r.s.schedules = next
	return nil
}

func (r *ScheduleRepository) DeleteByOrganization(_ context.Context, orgID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n := 0
	for id, sc := range r.s.schedules {
		if sc.OrganizationID == orgID {
			delete(r.s.schedules, id)
			n++
		}
	}
	return n, nil
}
