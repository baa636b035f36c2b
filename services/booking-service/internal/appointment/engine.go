// Package appointment is the booking engine: it books, moves, changes and
// closes appointments while keeping one open appointment per space and
// instant.
package appointment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/availability"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/domain"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/metrics"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/outbox"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Publisher records appointment events.
type Publisher interface {
	Publish(ctx context.Context, evt outbox.Event) error
}

type Deps struct {
	Organizations domain.OrganizationRepository
	Schedules     domain.ScheduleRepository
	Services      domain.ServiceRepository
	Spaces        domain.SpaceRepository
	Customers     domain.CustomerRepository
	Appointments  domain.AppointmentRepository

	// Unit commits appointment writes together with their events. Without
	// one, writes go to Appointments and events to Publisher, and a failed
	// publish is only logged.
	Unit      UnitOfWork
	Publisher Publisher
	Metrics   *metrics.BookingMetrics
	Logger    *slog.Logger
	Now       func() time.Time
}

type Engine struct {
	orgs         domain.OrganizationRepository
	schedules    domain.ScheduleRepository
	services     domain.ServiceRepository
	spaces       domain.SpaceRepository
	customers    domain.CustomerRepository
	appointments domain.AppointmentRepository
	checker      *ConflictChecker
	unit         UnitOfWork

	metrics *metrics.BookingMetrics
	logger  *slog.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

func NewEngine(d Deps) *Engine {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Unit == nil {
		d.Unit = directUnit{tx: Tx{Appointments: d.Appointments, Events: d.Publisher}}
	}
	return &Engine{
		orgs:         d.Organizations,
		schedules:    d.Schedules,
		services:     d.Services,
		spaces:       d.Spaces,
		customers:    d.Customers,
		appointments: d.Appointments,
		checker:      NewConflictChecker(d.Appointments),
		unit:         d.Unit,
		metrics:      d.Metrics,
		logger:       d.Logger,
		tracer:       otel.Tracer("slotbook/booking-service/appointment"),
		now:          d.Now,
	}
}

type CreateInput struct {
	CustomerPhone string
	ServiceID     string
	SpaceID       string
	Date          time.Time
	Description   string
	Observations  string
}

// Create books a PENDING appointment. Checks run in a fixed order and the
// first failure wins: organization, customer (by phone), service, space,
// slot availability, then the instant must not be in the past.
func (e *Engine) Create(ctx context.Context, orgID string, in CreateInput) (appt domain.Appointment, err error) {
	ctx, end := e.begin(ctx, "create", attribute.String("organization.id", orgID))
	defer end(&err)

	if err := e.requireOrganization(ctx, orgID); err != nil {
		return domain.Appointment{}, err
	}
	customer, err := e.customerByPhone(ctx, orgID, in.CustomerPhone)
	if err != nil {
		return domain.Appointment{}, err
	}
	if _, err := e.loadService(ctx, orgID, in.ServiceID); err != nil {
		return domain.Appointment{}, err
	}
	if _, err := e.loadSpace(ctx, orgID, in.SpaceID); err != nil {
		return domain.Appointment{}, err
	}
	date := in.Date.UTC().Truncate(domain.Precision)
	if err := e.requireFree(ctx, orgID, in.SpaceID, date, ""); err != nil {
		return domain.Appointment{}, err
	}
	now := e.now()
	if date.Before(now) {
		return domain.Appointment{}, &apperr.InvalidDateError{Instant: date}
	}

	appt = domain.NewAppointment(orgID, in.ServiceID, in.SpaceID, customer.ID, date, in.Description, in.Observations, now)
	err = e.unit.Run(ctx, func(tx Tx) error {
		created, err := tx.Appointments.Create(ctx, appt)
		if err != nil {
			return slotOr(err, date)
		}
		appt = created
		return e.record(ctx, tx, outbox.AppointmentCreated, appt, time.Time{})
	})
	if err != nil {
		return domain.Appointment{}, err
	}
	e.logger.InfoContext(ctx, "appointment created", "appointment_id", appt.ID, "organization_id", orgID, "date", date)
	return appt, nil
}

func (e *Engine) Confirm(ctx context.Context, orgID, id string) (appt domain.Appointment, err error) {
	ctx, end := e.begin(ctx, "confirm", attribute.String("appointment.id", id))
	defer end(&err)
	return e.transition(ctx, orgID, id, outbox.AppointmentConfirmed, (*domain.Appointment).Confirm)
}

func (e *Engine) MarkPaid(ctx context.Context, orgID, id string) (appt domain.Appointment, err error) {
	ctx, end := e.begin(ctx, "mark_paid", attribute.String("appointment.id", id))
	defer end(&err)
	return e.transition(ctx, orgID, id, outbox.AppointmentPaid, (*domain.Appointment).MarkPaid)
}

func (e *Engine) Cancel(ctx context.Context, orgID, id string) (appt domain.Appointment, err error) {
	ctx, end := e.begin(ctx, "cancel", attribute.String("appointment.id", id))
	defer end(&err)
	return e.transition(ctx, orgID, id, outbox.AppointmentCanceled, (*domain.Appointment).Cancel)
}

func (e *Engine) Complete(ctx context.Context, orgID, id string) (appt domain.Appointment, err error) {
	ctx, end := e.begin(ctx, "complete", attribute.String("appointment.id", id))
	defer end(&err)
	return e.transition(ctx, orgID, id, outbox.AppointmentCompleted, (*domain.Appointment).Complete)
}

// Reschedule moves an open appointment to date within its current space.
func (e *Engine) Reschedule(ctx context.Context, orgID, id string, date time.Time) (appt domain.Appointment, err error) {
	ctx, end := e.begin(ctx, "reschedule", attribute.String("appointment.id", id))
	defer end(&err)

	current, err := e.load(ctx, orgID, id)
	if err != nil {
		return domain.Appointment{}, err
	}
	previous := current.Date
	now := e.now()
	appt = current
	if err := appt.Reschedule(date, now); err != nil {
		return domain.Appointment{}, err
	}
	if appt.Date.Before(now) {
		return domain.Appointment{}, &apperr.InvalidDateError{Instant: appt.Date}
	}
	if err := e.requireFree(ctx, orgID, appt.SpaceID, appt.Date, appt.ID); err != nil {
		return domain.Appointment{}, err
	}
	if err := e.save(ctx, appt, outbox.AppointmentRescheduled, previous); err != nil {
		return domain.Appointment{}, err
	}
	return appt, nil
}

// UpdateInput replaces the non-temporal fields. Empty references keep the
// current customer, service or space.
type UpdateInput struct {
	CustomerPhone string
	ServiceID     string
	SpaceID       string
	Description   string
	Observations  string
}

func (e *Engine) Update(ctx context.Context, orgID, id string, in UpdateInput) (appt domain.Appointment, err error) {
	ctx, end := e.begin(ctx, "update", attribute.String("appointment.id", id))
	defer end(&err)

	appt, err = e.load(ctx, orgID, id)
	if err != nil {
		return domain.Appointment{}, err
	}
	if appt.Status.Terminal() {
		return domain.Appointment{}, &apperr.InvalidStateError{AppointmentID: appt.ID, Current: string(appt.Status), Target: domain.TargetUpdated}
	}

	changes := domain.AppointmentChanges{
		CustomerID:   appt.CustomerID,
		ServiceID:    appt.ServiceID,
		SpaceID:      appt.SpaceID,
		Description:  in.Description,
		Observations: in.Observations,
	}
	if phone := strings.TrimSpace(in.CustomerPhone); phone != "" {
		changed, err := e.customerPhoneChanged(ctx, appt.CustomerID, phone)
		if err != nil {
			return domain.Appointment{}, err
		}
		if changed {
			c, err := e.customerByPhone(ctx, orgID, phone)
			if err != nil {
				return domain.Appointment{}, err
			}
			changes.CustomerID = c.ID
		}
	}
	if in.ServiceID != "" && in.ServiceID != appt.ServiceID {
		if _, err := e.loadService(ctx, orgID, in.ServiceID); err != nil {
			return domain.Appointment{}, err
		}
		changes.ServiceID = in.ServiceID
	}
	if in.SpaceID != "" && in.SpaceID != appt.SpaceID {
		if _, err := e.loadSpace(ctx, orgID, in.SpaceID); err != nil {
			return domain.Appointment{}, err
		}
		if err := e.requireFree(ctx, orgID, in.SpaceID, appt.Date, appt.ID); err != nil {
			return domain.Appointment{}, err
		}
		changes.SpaceID = in.SpaceID
	}

	if err := appt.Apply(changes, e.now()); err != nil {
		return domain.Appointment{}, err
	}
	if err := e.save(ctx, appt, outbox.AppointmentUpdated, time.Time{}); err != nil {
		return domain.Appointment{}, err
	}
	return appt, nil
}

// Delete removes an appointment for good. Finished appointments are kept;
// canceled ones may be removed.
func (e *Engine) Delete(ctx context.Context, orgID, id string) (err error) {
	ctx, end := e.begin(ctx, "delete", attribute.String("appointment.id", id))
	defer end(&err)

	appt, err := e.load(ctx, orgID, id)
	if err != nil {
		return err
	}
	if err := appt.CheckDeletable(); err != nil {
		return err
	}
	return e.unit.Run(ctx, func(tx Tx) error {
		if err := tx.Appointments.Delete(ctx, id); err != nil {
			return domain.NotFoundOr(err, apperr.SubjectAppointment, id)
		}
		return e.record(ctx, tx, outbox.AppointmentDeleted, appt, time.Time{})
	})
}

func (e *Engine) FindByID(ctx context.Context, orgID, id string) (appt domain.Appointment, err error) {
	ctx, end := e.begin(ctx, "find", attribute.String("appointment.id", id))
	defer end(&err)

	if err := e.requireOrganization(ctx, orgID); err != nil {
		return domain.Appointment{}, err
	}
	return e.load(ctx, orgID, id)
}

// ListByRange returns appointments with start <= date <= end.
func (e *Engine) ListByRange(ctx context.Context, orgID string, start, end time.Time) (out []domain.Appointment, err error) {
	ctx, finish := e.begin(ctx, "list_range", attribute.String("organization.id", orgID))
	defer finish(&err)

	if start.After(end) {
		return nil, &apperr.InvalidRangeError{Start: start, End: end}
	}
	if err := e.requireOrganization(ctx, orgID); err != nil {
		return nil, err
	}
	out, err = e.appointments.ListByDateRange(ctx, orgID, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("list appointments by range: %w", err)
	}
	return out, nil
}

// ListByMonth lists month of the current UTC year.
func (e *Engine) ListByMonth(ctx context.Context, orgID string, month int) ([]domain.Appointment, error) {
	return e.ListByMonthYear(ctx, orgID, month, e.now().UTC().Year())
}

func (e *Engine) ListByMonthYear(ctx context.Context, orgID string, month, year int) (out []domain.Appointment, err error) {
	ctx, end := e.begin(ctx, "list_month", attribute.String("organization.id", orgID))
	defer end(&err)

	if month < 1 || month > 12 {
		return nil, apperr.InvalidField("month", fmt.Sprintf("must be between 1 and 12 (got %d)", month))
	}
	if year < 1 {
		return nil, apperr.InvalidField("year", fmt.Sprintf("must be positive (got %d)", year))
	}
	if err := e.requireOrganization(ctx, orgID); err != nil {
		return nil, err
	}
	out, err = e.appointments.ListByMonth(ctx, orgID, year, time.Month(month))
	if err != nil {
		return nil, fmt.Errorf("list appointments by month: %w", err)
	}
	return out, nil
}

// FreeSlots lists the bookable instants of day for a service in a space,
// stepping through the day's opening window by the service duration.
func (e *Engine) FreeSlots(ctx context.Context, orgID, spaceID, serviceID string, day time.Time) (out []time.Time, err error) {
	ctx, end := e.begin(ctx, "free_slots", attribute.String("organization.id", orgID))
	defer end(&err)

	if err := e.requireOrganization(ctx, orgID); err != nil {
		return nil, err
	}
	svc, err := e.loadService(ctx, orgID, serviceID)
	if err != nil {
		return nil, err
	}
	if _, err := e.loadSpace(ctx, orgID, spaceID); err != nil {
		return nil, err
	}

	rows, err := e.schedules.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	day = day.UTC()
	var window availability.Window
	open := false
	for _, row := range rows {
		if row.Weekday == int(day.Weekday()) && !row.Closed() {
			window.Start, window.End = row.Window(day)
			open = true
			break
		}
	}
	if !open {
		return []time.Time{}, nil
	}

	booked, err := e.appointments.ListByDateRange(ctx, orgID, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("list appointments for slots: %w", err)
	}
	taken := make([]time.Time, 0, len(booked))
	for _, a := range booked {
		if a.SpaceID == spaceID && a.Status != domain.StatusCanceled {
			taken = append(taken, a.Date)
		}
	}

	slots := availability.Slots(window, svc.Duration(), svc.Duration(), e.now(), availability.TakenAt(taken))
	if slots == nil {
		slots = []time.Time{}
	}
	return slots, nil
}

func (e *Engine) transition(ctx context.Context, orgID, id, eventType string, step func(*domain.Appointment, time.Time) error) (domain.Appointment, error) {
	appt, err := e.load(ctx, orgID, id)
	if err != nil {
		return domain.Appointment{}, err
	}
	if err := step(&appt, e.now()); err != nil {
		return domain.Appointment{}, err
	}
	if err := e.save(ctx, appt, eventType, time.Time{}); err != nil {
		return domain.Appointment{}, err
	}
	e.logger.InfoContext(ctx, "appointment status changed", "appointment_id", appt.ID, "status", appt.Status)
	return appt, nil
}

// load fetches an appointment owned by orgID. Appointments of other
// organizations are reported as missing.
func (e *Engine) load(ctx context.Context, orgID, id string) (domain.Appointment, error) {
	appt, err := e.appointments.FindByID(ctx, id)
	if err != nil {
		return domain.Appointment{}, domain.NotFoundOr(err, apperr.SubjectAppointment, id)
	}
	if appt.OrganizationID != orgID {
		return domain.Appointment{}, apperr.NotFound(apperr.SubjectAppointment, id)
	}
	return appt, nil
}

// save stores appt and records eventType in the same unit of work.
func (e *Engine) save(ctx context.Context, appt domain.Appointment, eventType string, previous time.Time) error {
	return e.unit.Run(ctx, func(tx Tx) error {
		if err := tx.Appointments.Save(ctx, appt); err != nil {
			if errors.Is(err, domain.ErrNoRecord) {
				return apperr.NotFound(apperr.SubjectAppointment, appt.ID)
			}
			return slotOr(err, appt.Date)
		}
		return e.record(ctx, tx, eventType, appt, previous)
	})
}

func (e *Engine) requireFree(ctx context.Context, orgID, spaceID string, date time.Time, excludeID string) error {
	ok, err := e.checker.IsAvailable(ctx, orgID, spaceID, date, excludeID)
	if err != nil {
		return err
	}
	if !ok {
		return &apperr.SlotUnavailableError{Instant: date}
	}
	return nil
}

func (e *Engine) requireOrganization(ctx context.Context, orgID string) error {
	if _, err := e.orgs.FindByID(ctx, orgID); err != nil {
		return domain.NotFoundOr(err, apperr.SubjectOrganization, orgID)
	}
	return nil
}

func (e *Engine) customerByPhone(ctx context.Context, orgID, phone string) (domain.Customer, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return domain.Customer{}, apperr.MandatoryFieldMissing("customer_phone")
	}
	c, err := e.customers.FindByPhone(ctx, orgID, phone)
	if err != nil {
		return domain.Customer{}, domain.NotFoundOr(err, apperr.SubjectCustomer, phone)
	}
	return c, nil
}

func (e *Engine) customerPhoneChanged(ctx context.Context, customerID, phone string) (bool, error) {
	current, err := e.customers.FindByID(ctx, customerID)
	switch {
	case errors.Is(err, domain.ErrNoRecord):
		return true, nil
	case err != nil:
		return false, fmt.Errorf("load customer %s: %w", customerID, err)
	}
	return current.Phone != phone, nil
}

func (e *Engine) loadService(ctx context.Context, orgID, id string) (domain.Service, error) {
	svc, err := e.services.FindByID(ctx, id)
	if err != nil {
		return domain.Service{}, domain.NotFoundOr(err, apperr.SubjectService, id)
	}
	if svc.OrganizationID != orgID {
		return domain.Service{}, apperr.NotFound(apperr.SubjectService, id)
	}
	return svc, nil
}

func (e *Engine) loadSpace(ctx context.Context, orgID, id string) (domain.Space, error) {
	sp, err := e.spaces.FindByID(ctx, id)
	if err != nil {
		return domain.Space{}, domain.NotFoundOr(err, apperr.SubjectSpace, id)
	}
	if sp.OrganizationID != orgID {
		return domain.Space{}, apperr.NotFound(apperr.SubjectSpace, id)
	}
	return sp, nil
}

// record hands the event to tx.Events. Inside an atomic unit a failure
// aborts the write; otherwise it is logged and the write stands.
func (e *Engine) record(ctx context.Context, tx Tx, eventType string, appt domain.Appointment, previous time.Time) error {
	if tx.Events == nil {
		return nil
	}
	evt, err := outbox.AppointmentEvent(eventType, appt, previous, e.now())
	if err == nil {
		err = tx.Events.Publish(ctx, evt)
	}
	if err == nil {
		e.metrics.ObserveEvent(eventType, "recorded")
		return nil
	}
	e.metrics.ObserveEvent(eventType, "failed")
	if tx.Atomic {
		return fmt.Errorf("record %s: %w", eventType, err)
	}
	e.logger.ErrorContext(ctx, "appointment event not published", "event_type", eventType, "appointment_id", appt.ID, "err", err)
	return nil
}

func (e *Engine) begin(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(*error)) {
	ctx, span := e.tracer.Start(ctx, "appointment."+op, trace.WithAttributes(attrs...))
	started := time.Now()
	return ctx, func(errp *error) {
		outcome := "ok"
		if err := *errp; err != nil {
			outcome = string(apperr.KindOf(err))
			if outcome == "" {
				outcome = "error"
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
		}
		span.SetAttributes(attribute.String("booking.outcome", outcome))
		e.metrics.ObserveOperation(op, outcome, time.Since(started).Seconds())
		span.End()
	}
}

// slotOr maps a uniqueness violation on the slot index to SlotUnavailable.
func slotOr(err error, date time.Time) error {
	if errors.Is(err, domain.ErrDuplicate) {
		return &apperr.SlotUnavailableError{Instant: date}
	}
	return fmt.Errorf("write appointment: %w", err)
}
