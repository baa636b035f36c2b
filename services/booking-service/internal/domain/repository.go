package domain

import (
	"context"
	"time"
)

// Repositories return ErrNoRecord for misses and an error wrapping
// ErrDuplicate for uniqueness violations. Delete of a missing row is
// ErrNoRecord.

type OrganizationRepository interface {
	Create(ctx context.Context, o Organization) (Organization, error)
	FindByID(ctx context.Context, id string) (Organization, error)
	FindByName(ctx context.Context, name string) (Organization, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Organization, error)
	Save(ctx context.Context, o Organization) error
	Delete(ctx context.Context, id string) error
	// HasDependents reports whether services, spaces, customers or
	// appointments still reference the organization.
	HasDependents(ctx context.Context, id string) (bool, error)
}

type ScheduleRepository interface {
	// CreateBatch persists all rows or none.
	CreateBatch(ctx context.Context, schedules []Schedule) ([]Schedule, error)
	FindByID(ctx context.Context, id string) (Schedule, error)
	// ListByOrganization orders rows by weekday.
	ListByOrganization(ctx context.Context, orgID string) ([]Schedule, error)
	SaveBatch(ctx context.Context, schedules []Schedule) error
	DeleteByOrganization(ctx context.Context, orgID string) (int, error)
}

type ServiceRepository interface {
	Create(ctx context.Context, s Service) (Service, error)
	FindByID(ctx context.Context, id string) (Service, error)
	FindByName(ctx context.Context, orgID, name string) (Service, error)
	ListByOrganization(ctx context.Context, orgID string) ([]Service, error)
	Save(ctx context.Context, s Service) error
	Delete(ctx context.Context, id string) error
}

type SpaceRepository interface {
	Create(ctx context.Context, s Space) (Space, error)
	FindByID(ctx context.Context, id string) (Space, error)
	FindByName(ctx context.Context, orgID, name string) (Space, error)
	ListByOrganization(ctx context.Context, orgID string) ([]Space, error)
	Save(ctx context.Context, s Space) error
	Delete(ctx context.Context, id string) error
}

type CustomerRepository interface {
	Create(ctx context.Context, c Customer) (Customer, error)
	FindByID(ctx context.Context, id string) (Customer, error)
	FindByPhone(ctx context.Context, orgID, phone string) (Customer, error)
	ListByOrganization(ctx context.Context, orgID string) ([]Customer, error)
	Save(ctx context.Context, c Customer) error
	Delete(ctx context.Context, id string) error
}

// AppointmentFilter selects appointments by any combination of references.
// Empty fields match everything.
type AppointmentFilter struct {
	OrganizationID string
	CustomerID     string
	ServiceID      string
	SpaceID        string
}

func (f AppointmentFilter) Match(a Appointment) bool {
	return (f.OrganizationID == "" || f.OrganizationID == a.OrganizationID) &&
		(f.CustomerID == "" || f.CustomerID == a.CustomerID) &&
		(f.ServiceID == "" || f.ServiceID == a.ServiceID) &&
		(f.SpaceID == "" || f.SpaceID == a.SpaceID)
}

type AppointmentRepository interface {
	Create(ctx context.Context, a Appointment) (Appointment, error)
	FindByID(ctx context.Context, id string) (Appointment, error)
	// FindByOrganizationAndDate returns every appointment of the organization
	// at exactly date, whatever its space or status.
	FindByOrganizationAndDate(ctx context.Context, orgID string, date time.Time) ([]Appointment, error)
	// ListByDateRange includes both bounds.
	ListByDateRange(ctx context.Context, orgID string, start, end time.Time) ([]Appointment, error)
	// ListByMonth covers the half-open MonthBounds interval.
	ListByMonth(ctx context.Context, orgID string, year int, month time.Month) ([]Appointment, error)
	Save(ctx context.Context, a Appointment) error
	Delete(ctx context.Context, id string) error
	HasAppointments(ctx context.Context, filter AppointmentFilter) (bool, error)
}
