package domain

import (
	"time"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/apperr"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusPaid      Status = "PAID"
	StatusCanceled  Status = "CANCELED"
	StatusFinished  Status = "FINISHED"
)

// Targets reported by InvalidStateError for operations that keep the status.
const (
	TargetRescheduled = "RESCHEDULED"
	TargetUpdated     = "UPDATED"
	TargetDeleted     = "DELETED"
)

// Precision is the resolution appointment instants are stored at. Postgres
// timestamptz keeps microseconds.
const Precision = time.Microsecond

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusPaid, StatusCanceled, StatusFinished:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCanceled || s == StatusFinished
}

func (s Status) Open() bool {
	return s.Valid() && !s.Terminal()
}

// Appointment is a booking of one service, in one space, for one customer,
// at one instant. CanceledAt is set iff Status is CANCELED and FinishedAt iff
// Status is FINISHED.
type Appointment struct {
	ID             string
	OrganizationID string
	ServiceID      string
	SpaceID        string
	CustomerID     string
	Date           time.Time
	Description    string
	Observations   string
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	CanceledAt     *time.Time
	FinishedAt     *time.Time
}

// NewAppointment returns a PENDING appointment stamped with now.
func NewAppointment(orgID, serviceID, spaceID, customerID string, date time.Time, description, observations string, now time.Time) Appointment {
	return Appointment{
		OrganizationID: orgID,
		ServiceID:      serviceID,
		SpaceID:        spaceID,
		CustomerID:     customerID,
		Date:           date.UTC().Truncate(Precision),
		Description:    description,
		Observations:   observations,
		Status:         StatusPending,
		CreatedAt:      now.UTC(),
	}
}

// AppointmentChanges replaces the non-temporal fields of an appointment.
type AppointmentChanges struct {
	CustomerID   string
	ServiceID    string
	SpaceID      string
	Description  string
	Observations string
}

func (a *Appointment) Confirm(now time.Time) error {
	if a.Status != StatusPending {
		return a.invalid(string(StatusConfirmed))
	}
	a.Status = StatusConfirmed
	a.touch(now)
	return nil
}

func (a *Appointment) MarkPaid(now time.Time) error {
	if a.Status != StatusConfirmed {
		return a.invalid(string(StatusPaid))
	}
	a.Status = StatusPaid
	a.touch(now)
	return nil
}

func (a *Appointment) Cancel(now time.Time) error {
	if a.Status.Terminal() {
		return a.invalid(string(StatusCanceled))
	}
	t := now.UTC()
	a.Status = StatusCanceled
	a.CanceledAt = &t
	a.touch(now)
	return nil
}

func (a *Appointment) Complete(now time.Time) error {
	if a.Status.Terminal() {
		return a.invalid(string(StatusFinished))
	}
	t := now.UTC()
	a.Status = StatusFinished
	a.FinishedAt = &t
	a.touch(now)
	return nil
}

func (a *Appointment) Reschedule(date time.Time, now time.Time) error {
	if a.Status.Terminal() {
		return a.invalid(TargetRescheduled)
	}
	a.Date = date.UTC().Truncate(Precision)
	a.touch(now)
	return nil
}

func (a *Appointment) Apply(c AppointmentChanges, now time.Time) error {
	if a.Status.Terminal() {
		return a.invalid(TargetUpdated)
	}
	a.CustomerID = c.CustomerID
	a.ServiceID = c.ServiceID
	a.SpaceID = c.SpaceID
	a.Description = c.Description
	a.Observations = c.Observations
	a.touch(now)
	return nil
}

// CheckDeletable rejects deleting a finished appointment.
func (a Appointment) CheckDeletable() error {
	if a.Status == StatusFinished {
		return &apperr.InvalidStateError{AppointmentID: a.ID, Current: string(a.Status), Target: TargetDeleted}
	}
	return nil
}

func (a *Appointment) invalid(target string) error {
	return &apperr.InvalidStateError{AppointmentID: a.ID, Current: string(a.Status), Target: target}
}

func (a *Appointment) touch(now time.Time) {
	t := now.UTC()
	a.UpdatedAt = &t
}

// MonthBounds returns [first instant of month, first instant of next month) in UTC.
func MonthBounds(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
