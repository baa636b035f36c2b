package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/domain"
)

type AppointmentRepository struct {
	s *Store
}

// slotTaken mirrors the partial unique index on open appointments.
func (r *AppointmentRepository) slotTaken(a domain.Appointment) bool {
	if a.Status == domain.StatusCanceled {
		return false
	}
	for id, other := range r.s.appointments {
		if id == a.ID || other.Status == domain.StatusCanceled {
			continue
		}
		if other.OrganizationID == a.OrganizationID && other.SpaceID == a.SpaceID && other.Date.Equal(a.Date) {
			return true
		}
	}
	return false
}

func (r *AppointmentRepository) Create(_ context.Context, a domain.Appointment) (domain.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.slotTaken(a) {
		return domain.Appointment{}, duplicate(domain.ConstraintAppointmentSlot)
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	r.s.appointments[a.ID] = a
	return a, nil
}

func (r *AppointmentRepository) FindByID(_ context.Context, id string) (domain.Appointment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.appointments[id]
	if !ok {
		return domain.Appointment{}, domain.ErrNoRecord
	}
	return a, nil
}

func (r *AppointmentRepository) FindByOrganizationAndDate(_ context.Context, orgID string, date time.Time) ([]domain.Appointment, error) {
	return r.list(func(a domain.Appointment) bool {
		return a.OrganizationID == orgID && a.Date.Equal(date)
	}), nil
}

func (r *AppointmentRepository) ListByDateRange(_ context.Context, orgID string, start, end time.Time) ([]domain.Appointment, error) {
	return r.list(func(a domain.Appointment) bool {
		return a.OrganizationID == orgID && !a.Date.Before(start) && !a.Date.After(end)
	}), nil
}

func (r *AppointmentRepository) ListByMonth(_ context.Context, orgID string, year int, month time.Month) ([]domain.Appointment, error) {
	start, end := domain.MonthBounds(year, month)
	return r.list(func(a domain.Appointment) bool {
		return a.OrganizationID == orgID && !a.Date.Before(start) && a.Date.Before(end)
	}), nil
}

func (r *AppointmentRepository) Save(_ context.Context, a domain.Appointment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.appointments[a.ID]; !ok {
		return domain.ErrNoRecord
	}
	if r.slotTaken(a) {
		return duplicate(domain.ConstraintAppointmentSlot)
	}
	r.s.appointments[a.ID] = a
	return nil
}

func (r *AppointmentRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.appointments[id]; !ok {
		return domain.ErrNoRecord
	}
	delete(r.s.appointments, id)
	return nil
}

func (r *AppointmentRepository) HasAppointments(_ context.Context, filter domain.AppointmentFilter) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, a := range r.s.appointments {
		if filter.Match(a) {
			return true, nil
		}
	}
	return false, nil
}

func (r *AppointmentRepository) list(keep func(domain.Appointment) bool) []domain.Appointment {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return sortedValues(r.s.appointments, keep, func(a, b domain.Appointment) bool {
		if a.Date.Equal(b.Date) {
			return a.ID < b.ID
		}
		return a.Date.Before(b.Date)
	})
}
