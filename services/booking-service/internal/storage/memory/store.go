// Package memory is an in-process implementation of the booking repositories.
// It enforces the same uniqueness rules as the Postgres schema, so the
// application services behave identically against either backend.
package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/domain"
)

type Store struct {
	mu           sync.RWMutex
	orgs         map[string]domain.Organization
	schedules    map[string]domain.Schedule
	services     map[string]domain.Service
	spaces       map[string]domain.Space
	customers    map[string]domain.Customer
	appointments map[string]domain.Appointment
}

func NewStore() *Store {
	return &Store{
		orgs:         map[string]domain.Organization{},
		schedules:    map[string]domain.Schedule{},
		services:     map[string]domain.Service{},
		spaces:       map[string]domain.Space{},
		customers:    map[string]domain.Customer{},
		appointments: map[string]domain.Appointment{},
	}
}

func (s *Store) Organizations() *OrganizationRepository { return &OrganizationRepository{s: s} }
func (s *Store) Schedules() *ScheduleRepository         { return &ScheduleRepository{s: s} }
func (s *Store) Services() *ServiceRepository           { return &ServiceRepository{s: s} }
func (s *Store) Spaces() *SpaceRepository               { return &SpaceRepository{s: s} }
func (s *Store) Customers() *CustomerRepository         { return &CustomerRepository{s: s} }
func (s *Store) Appointments() *AppointmentRepository   { return &AppointmentRepository{s: s} }

func duplicate(constraint string) error {
	return fmt.Errorf("%w: %s", domain.ErrDuplicate, constraint)
}

func sortedValues[T any](m map[string]T, keep func(T) bool, less func(a, b T) bool) []T {
	out := make([]T, 0)
	for _, v := range m {
		if keep(v) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
