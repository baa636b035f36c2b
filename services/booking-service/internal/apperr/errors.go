// Package apperr defines the expected, recoverable failures of the booking
// core. Each failure is a distinct type carrying its details; callers match
// them with errors.As or classify them with KindOf.
package apperr

import (
	"errors"
	"fmt"
	"time"
)

type Kind string

const (
	KindNotFound              Kind = "not_found"
	KindAlreadyExists         Kind = "already_exists"
	KindInvalidState          Kind = "invalid_state"
	KindSlotUnavailable       Kind = "slot_unavailable"
	KindInvalidDate           Kind = "invalid_date"
	KindInvalidRange          Kind = "invalid_range"
	KindMissingScheduleDay    Kind = "missing_schedule_day"
	KindDuplicateWeekday      Kind = "duplicate_weekday"
	KindInvalidHourRange      Kind = "invalid_hour_range"
	KindMandatoryFieldMissing Kind = "mandatory_field_missing"
	KindInvalidField          Kind = "invalid_field"
	KindHasDependents         Kind = "has_dependents"
)

// Subject names the entity a failure is about.
type Subject string

const (
	SubjectOrganization Subject = "organization"
	SubjectCustomer     Subject = "customer"
	SubjectService      Subject = "service"
	SubjectSpace        Subject = "space"
	SubjectAppointment  Subject = "appointment"
	SubjectSchedule     Subject = "schedule"
	SubjectResource     Subject = "resource"
)

type kinded interface {
	Kind() Kind
}

// KindOf returns the kind of the first typed failure in err's chain, or ""
// for unexpected errors.
func KindOf(err error) Kind {
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return ""
}

// IsExpected reports whether err belongs to the taxonomy.
func IsExpected(err error) bool {
	return KindOf(err) != ""
}

type NotFoundError struct {
	Subject Subject
	ID      string
}

func NotFound(subject Subject, id string) error {
	return &NotFoundError{Subject: subject, ID: id}
}

func (e *NotFoundError) Kind() Kind { return KindNotFound }
func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Subject)
	}
	return fmt.Sprintf("%s %q not found", e.Subject, e.ID)
}

type AlreadyExistsError struct {
	Subject Subject
	Field   string
	Value   string
}

func AlreadyExists(subject Subject, field, value string) error {
	return &AlreadyExistsError{Subject: subject, Field: field, Value: value}
}

func (e *AlreadyExistsError) Kind() Kind { return KindAlreadyExists }
func (e *AlreadyExistsError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s already exists", e.Subject)
	}
	return fmt.Sprintf("%s with %s %q already exists", e.Subject, e.Field, e.Value)
}

// InvalidStateError is an illegal appointment status transition.
type InvalidStateError struct {
	AppointmentID string
	Current       string
	Target        string
}

func (e *InvalidStateError) Kind() Kind { return KindInvalidState }
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("appointment %q cannot move from %s to %s", e.AppointmentID, e.Current, e.Target)
}

type SlotUnavailableError struct {
	Instant time.Time
}

func (e *SlotUnavailableError) Kind() Kind { return KindSlotUnavailable }
func (e *SlotUnavailableError) Error() string {
	return fmt.Sprintf("slot %s is not available", e.Instant.UTC().Format(time.RFC3339))
}

// InvalidDateError is a booking instant in the past.
type InvalidDateError struct {
	Instant time.Time
}

func (e *InvalidDateError) Kind() Kind { return KindInvalidDate }
func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("date %s is in the past", e.Instant.UTC().Format(time.RFC3339))
}

type InvalidRangeError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidRangeError) Kind() Kind { return KindInvalidRange }
func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("start %s is after end %s", e.Start.UTC().Format(time.RFC3339), e.End.UTC().Format(time.RFC3339))
}

// MissingScheduleDayError points at a null entry in a schedule batch.
type MissingScheduleDayError struct {
	Index int
}

func (e *MissingScheduleDayError) Kind() Kind { return KindMissingScheduleDay }
func (e *MissingScheduleDayError) Error() string {
	return fmt.Sprintf("schedule entry %d is missing", e.Index)
}

type DuplicateWeekdayError struct {
	Weekday int
}

func (e *DuplicateWeekdayError) Kind() Kind { return KindDuplicateWeekday }
func (e *DuplicateWeekdayError) Error() string {
	return fmt.Sprintf("weekday %d appears more than once", e.Weekday)
}

type InvalidHourRangeError struct {
	Weekday     int
	StartMinute int
	EndMinute   int
}

func (e *InvalidHourRangeError) Kind() Kind { return KindInvalidHourRange }
func (e *InvalidHourRangeError) Error() string {
	return fmt.Sprintf("weekday %d: invalid hour range %d-%d", e.Weekday, e.StartMinute, e.EndMinute)
}

type MandatoryFieldMissingError struct {
	Field string
}

func MandatoryFieldMissing(field string) error {
	return &MandatoryFieldMissingError{Field: field}
}

func (e *MandatoryFieldMissingError) Kind() Kind { return KindMandatoryFieldMissing }
func (e *MandatoryFieldMissingError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

type InvalidFieldError struct {
	Field  string
	Reason string
}

func InvalidField(field, reason string) error {
	return &InvalidFieldError{Field: field, Reason: reason}
}

func (e *InvalidFieldError) Kind() Kind { return KindInvalidField }
func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// HasDependentsError rejects deleting a record other records still point to.
type HasDependentsError struct {
	Subject   Subject
	ID        string
	Dependent Subject
}

func (e *HasDependentsError) Kind() Kind { return KindHasDependents }
func (e *HasDependentsError) Error() string {
	return fmt.Sprintf("%s %q still has %s records", e.Subject, e.ID, e.Dependent)
}
