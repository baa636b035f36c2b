// Package domain holds the booking entities and the storage ports the
// application services depend on.
package domain

import "errors"

var (
	// ErrNoRecord is returned by repositories when a lookup matches nothing.
	ErrNoRecord = errors.New("domain: no matching record")
	// ErrDuplicate is returned when a write violates a uniqueness rule. The
	// wrapping error names the violated constraint.
	ErrDuplicate = errors.New("domain: duplicate record")
	// ErrReferenced is returned when a delete is blocked by rows that still
	// point at the record.
	ErrReferenced = errors.New("domain: record still referenced")
)

// Constraint names shared by the Postgres schema and the in-memory store.
const (
	ConstraintOrganizationName = "organizations_name_key"
	ConstraintScheduleWeekday  = "schedules_organization_id_weekday_key"
	ConstraintServiceName      = "services_organization_id_name_key"
	ConstraintSpaceName        = "spaces_organization_id_name_key"
	ConstraintCustomerPhone    = "customers_organization_id_phone_key"
	ConstraintAppointmentSlot  = "appointments_open_slot_key"
)
